package source

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var payload = []byte("0123456789abcdefghijklmnopqrstuvwxyz")

func writeTemp(t *testing.T) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "glcc.img")
	require.NoError(t, os.WriteFile(name, payload, 0o644))
	return name
}

func checkReader(t *testing.T, r Reader) {
	t.Helper()
	assert.Equal(t, int64(len(payload)), r.Size())

	p := make([]byte, 5)
	n, err := r.ReadAt(p, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "abcde", string(p))

	_, err = r.Seek(-3, io.SeekEnd)
	require.NoError(t, err)
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(rest))
}

func TestOpenLocalFile(t *testing.T) {
	r, err := Open(context.Background(), writeTemp(t))
	require.NoError(t, err)
	defer r.Close()
	checkReader(t, r)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.tif"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenBucket(t *testing.T) {
	name := writeTemp(t)
	r, err := Open(context.Background(), "file://"+name)
	require.NoError(t, err)
	defer r.Close()
	checkReader(t, r)
}

func TestOpenHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "glcc.img", time.Time{}, bytes.NewReader(payload))
	}))
	defer srv.Close()

	r, err := Open(context.Background(), srv.URL+"/glcc.img")
	require.NoError(t, err)
	defer r.Close()
	checkReader(t, r)
}

func TestReadAtPastEnd(t *testing.T) {
	r, err := OpenFile(writeTemp(t))
	require.NoError(t, err)
	defer r.Close()

	h := &ranged{size: int64(len(payload))}
	h.fetch = func(p []byte, off int64) (int, error) { return r.ReadAt(p, off) }

	p := make([]byte, 10)
	n, err := h.ReadAt(p, int64(len(payload))-4)
	assert.Equal(t, 4, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = h.Seek(-1, io.SeekStart)
	assert.Error(t, err)
}

func TestSplitObjectURL(t *testing.T) {
	tests := []struct {
		in         string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{in: "s3://glcc/v2/gbogeg20.tif?region=us-west-2", wantBucket: "s3://glcc?region=us-west-2", wantKey: "v2/gbogeg20.tif"},
		{in: "gs://glcc/gigbp2_0g.img", wantBucket: "gs://glcc", wantKey: "gigbp2_0g.img"},
		{in: "file:///data/glcc/gbogeg20.tif", wantBucket: "file:///data/glcc", wantKey: "gbogeg20.tif"},
		{in: "file:///gbogeg20.tif", wantBucket: "file:///", wantKey: "gbogeg20.tif"},
		{in: "s3://glcc", wantErr: true},
		{in: "file:///data/", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			bucket, key, err := splitObjectURL(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantBucket, bucket)
			assert.Equal(t, tc.wantKey, key)
		})
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "glcc/v2/a.tif", Name("s3://glcc/v2/a.tif"))
	assert.Equal(t, "/data/a.img", Name("/data/a.img"))
}
