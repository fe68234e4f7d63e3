// Package source opens raster files from local disk, HTTP servers and cloud
// buckets behind one random access reader.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader is a sized random access reader over a raster file.
type Reader interface {
	io.ReadSeeker
	io.ReaderAt
	io.Closer
	Size() int64
}

var bucketSchemes = []string{"file://", "s3://", "gs://", "azblob://"}

// Open returns a Reader for uri. http(s) URLs use range requests, bucket
// URLs go through gocloud.dev/blob and anything else is a local path.
func Open(ctx context.Context, uri string) (Reader, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		r, err := NewHTTPRangeReader(ctx, uri, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP reader for %s: %w", uri, err)
		}
		return r, nil
	}
	for _, scheme := range bucketSchemes {
		if strings.HasPrefix(uri, scheme) {
			return OpenBlob(ctx, uri)
		}
	}
	return OpenFile(uri)
}

// File is a local file with a known size.
type File struct {
	*os.File
	size int64
}

// OpenFile opens a local file.
func OpenFile(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open local file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &File{File: f, size: st.Size()}, nil
}

// Size returns the file size in bytes.
func (f *File) Size() int64 { return f.size }

// Name returns the scheme-less name of uri, used in log lines and error
// messages.
func Name(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		return uri[i+3:]
	}
	return uri
}
