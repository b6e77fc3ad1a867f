package iohelper

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		max     int64
		want    string
		wantErr error
	}{
		{"under limit", "hello", 10, "hello", nil},
		{"exactly limit", "hello", 5, "hello", nil},
		{"over limit", "hello world", 5, "hello", ErrTruncated},
		{"empty", "", 5, "", nil},
		{"zero limit uses default", "abc", 0, "abc", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadBody(strings.NewReader(tt.input), tt.max)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestReadBody_NilReader(t *testing.T) {
	t.Parallel()
	got, err := ReadBody(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestReadBody_ReaderError(t *testing.T) {
	t.Parallel()
	_, err := ReadBody(failingReader{}, 10)
	assert.EqualError(t, err, "read failed")
}

type trackingCloser struct {
	io.Reader
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}

func TestDrainAndClose(t *testing.T) {
	t.Parallel()

	rc := &trackingCloser{Reader: bytes.NewReader(make([]byte, 1024))}
	assert.NoError(t, DrainAndClose(rc))
	assert.True(t, rc.closed)

	remaining, _ := io.ReadAll(rc.Reader)
	assert.Empty(t, remaining)

	assert.NoError(t, DrainAndClose(nil))
}
