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
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Sink stores archive objects by key
type Sink interface {
	Put(ctx context.Context, key string, data []byte) error
	Close() error
}

// SinkOptions holds the settings shared by the cloud sinks
type SinkOptions struct {
	Logger *slog.Logger
	// Region overrides the AWS region of an s3:// destination
	Region string
	// CredentialsFile is a service account key for a gs:// destination
	CredentialsFile string
}

// NewSink opens the sink for a destination of the form file://<dir>,
// gs://<bucket>[/prefix] or s3://<bucket>[/prefix]
func NewSink(
	ctx context.Context,
	dest string,
	opts SinkOptions,
) (Sink, error) {
	scheme, path, ok := strings.Cut(dest, "://")
	if !ok {
		return nil, fmt.Errorf("archive destination %q has no scheme", dest)
	}
	switch scheme {
	case "file":
		return NewFileSink(path)
	case "gs", "gcs":
		bucket, prefix, err := splitBucketPath(path)
		if err != nil {
			return nil, err
		}
		return NewGCSSink(ctx, bucket, prefix, opts)
	case "s3":
		bucket, prefix, err := splitBucketPath(path)
		if err != nil {
			return nil, err
		}
		return NewS3Sink(ctx, bucket, prefix, opts)
	default:
		return nil, fmt.Errorf("unsupported archive scheme %q", scheme)
	}
}

// splitBucketPath splits "bucket/some/prefix" into the bucket and a
// normalized key prefix ending in a slash
func splitBucketPath(path string) (string, string, error) {
	bucket, prefix, _ := strings.Cut(path, "/")
	if bucket == "" {
		return "", "", errors.New("archive destination is missing a bucket")
	}
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return bucket, prefix, nil
}
