package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// BlobReader reads an object from a cloud bucket (S3, GCS, Azure, local
// directories) with ranged reads.
type BlobReader struct {
	ranged
	ctx    context.Context
	bucket *blob.Bucket
	key    string
	owned  bool
}

// NewBlobReader creates a reader for key in an already opened bucket. The
// bucket is not closed by Close.
func NewBlobReader(ctx context.Context, bucket *blob.Bucket, key string) (*BlobReader, error) {
	attrs, err := bucket.Attributes(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get attributes for key %s: %w", key, err)
	}

	r := &BlobReader{ctx: ctx, bucket: bucket, key: key}
	r.fetch, r.size = r.get, attrs.Size
	return r, nil
}

// OpenBlob opens the bucket of an object URL such as s3://bucket/dir/file.tif
// or file:///data/glcc/gbogeg20.tif and returns a reader for the object.
func OpenBlob(ctx context.Context, objectURL string) (*BlobReader, error) {
	bucketURL, key, err := splitObjectURL(objectURL)
	if err != nil {
		return nil, err
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", bucketURL, err)
	}
	r, err := NewBlobReader(ctx, bucket, key)
	if err != nil {
		bucket.Close()
		return nil, err
	}
	r.owned = true
	return r, nil
}

// splitObjectURL separates the bucket part of an object URL from the key.
// For file:// URLs the bucket is the containing directory.
func splitObjectURL(objectURL string) (bucketURL, key string, err error) {
	u, err := url.Parse(objectURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid object url %q: %w", objectURL, err)
	}
	if u.Scheme == "file" {
		dir, file := path.Split(u.Path)
		if file == "" {
			return "", "", fmt.Errorf("object url %q has no file name", objectURL)
		}
		u.Path = strings.TrimSuffix(dir, "/")
		if u.Path == "" {
			u.Path = "/"
		}
		return u.String(), file, nil
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("object url %q has no key", objectURL)
	}
	u.Path = ""
	return u.String(), key, nil
}

func (r *BlobReader) get(p []byte, off int64) (int, error) {
	reader, err := r.bucket.NewRangeReader(r.ctx, r.key, off, int64(len(p)), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create range reader: %w", err)
	}
	defer reader.Close()
	return io.ReadFull(reader, p)
}

// Close releases the bucket when it was opened by OpenBlob.
func (r *BlobReader) Close() error {
	if r.owned {
		return r.bucket.Close()
	}
	return nil
}
