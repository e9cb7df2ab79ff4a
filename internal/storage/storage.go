// Copyright 2025 the shp-processor authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package storage opens row files from the local filesystem or from
// blob storage (s3://, gs://, azblob://, file://) behind one call.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// Open returns a reader for a local path or a blob URL in the form
// <scheme>://<bucket>/<key>.
func Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !strings.Contains(location, "://") {
		file, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("failed to open %q: %w", location, err)
		}
		return file, nil
	}
	return openBlob(ctx, location)
}

func openBlob(ctx context.Context, location string) (io.ReadCloser, error) {
	parts := strings.Split(location, "/")
	if len(parts) < 4 {
		return nil, fmt.Errorf("expected a location in the form <scheme>://<bucket>/<key>")
	}

	var bucketName string
	var key string
	if parts[0] == "file:" {
		bucketName = strings.Join(parts[:len(parts)-1], "/")
		key = parts[len(parts)-1]
	} else {
		bucketName = strings.Join(parts[:3], "/")
		key = strings.Join(parts[3:], "/")
	}

	bucket, err := blob.OpenBucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", bucketName, err)
	}

	reader, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		bucket.Close()
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}

	return &blobReadCloser{Reader: reader, bucket: bucket}, nil
}

type blobReadCloser struct {
	*blob.Reader
	bucket *blob.Bucket
}

func (r *blobReadCloser) Close() error {
	readerErr := r.Reader.Close()
	bucketErr := r.bucket.Close()
	if readerErr != nil {
		return readerErr
	}
	return bucketErr
}
