// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const contentTypeJSONLines = "application/x-ndjson"

// S3Sink writes archive objects to an AWS S3 bucket
type S3Sink struct {
	client *s3.Client
	logger *slog.Logger
	bucket string
	prefix string
}

func NewS3Sink(
	ctx context.Context,
	bucket string,
	prefix string,
	opts SinkOptions,
) (*S3Sink, error) {
	if bucket == "" {
		return nil, errors.New("s3 archive: bucket not set")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 archive: load default AWS config: %w", err)
	}
	// Override region if specified
	if opts.Region != "" {
		awsCfg.Region = opts.Region
	}
	return &S3Sink{
		client: s3.NewFromConfig(awsCfg),
		logger: logger.With("component", "archive"),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Put writes a value to key
func (d *S3Sink) Put(ctx context.Context, key string, data []byte) error {
	fullKey := d.prefix + key
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(fullKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeJSONLines),
	})
	if err != nil {
		d.logger.Error(
			"s3 put failed",
			"key", fullKey,
			"error", err,
		)
		return err
	}
	d.logger.Debug(
		"s3 put ok",
		"key", fullKey,
		"bytes", len(data),
	)
	return nil
}

// Close is a no-op, the S3 client needs no explicit closing
func (d *S3Sink) Close() error {
	return nil
}
