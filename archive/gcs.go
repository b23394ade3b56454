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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSSink writes archive objects to a Google Cloud Storage bucket
type GCSSink struct {
	client *storage.Client
	bucket *storage.BucketHandle
	logger *slog.Logger
	prefix string
}

func NewGCSSink(
	ctx context.Context,
	bucket string,
	prefix string,
	opts SinkOptions,
) (*GCSSink, error) {
	if bucket == "" {
		return nil, errors.New("gcs archive: bucket not set")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	clientOpts := []option.ClientOption{storage.WithDisabledClientMetrics()}
	if opts.CredentialsFile != "" {
		if err := validateCredentials(opts.CredentialsFile); err != nil {
			return nil, err
		}
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(opts.CredentialsFile),
		)
	}
	client, err := storage.NewGRPCClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf(
			"gcs archive: failed in creating storage client: %w",
			err,
		)
	}
	return &GCSSink{
		client: client,
		bucket: client.Bucket(bucket),
		logger: logger.With("component", "archive"),
		prefix: prefix,
	}, nil
}

// validateCredentials checks that a credentials file is a readable JSON
// document naming its credential type
func validateCredentials(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("gcs archive: read credentials file: %w", err)
	}
	var creds struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("gcs archive: parse credentials file: %w", err)
	}
	if creds.Type == "" {
		return errors.New("gcs archive: credentials file has no type")
	}
	return nil
}

// Put writes a value to key
func (d *GCSSink) Put(ctx context.Context, key string, data []byte) error {
	fullKey := d.prefix + key
	w := d.bucket.Object(fullKey).NewWriter(ctx)
	w.ContentType = contentTypeJSONLines
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs put %q: %w", fullKey, err)
	}
	// The object is only committed on Close
	if err := w.Close(); err != nil {
		d.logger.Error(
			"gcs put failed",
			"key", fullKey,
			"error", err,
		)
		return fmt.Errorf("gcs put %q: %w", fullKey, err)
	}
	d.logger.Debug(
		"gcs put ok",
		"key", fullKey,
		"bytes", len(data),
	)
	return nil
}

// Close closes the GCS client
func (d *GCSSink) Close() error {
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}
