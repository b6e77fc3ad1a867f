// Package iohelper provides helpers for reading HTTP response bodies with a
// size limit and releasing connections afterwards.
package iohelper

import (
	"errors"
	"io"
)

// Body size limits.
const (
	// DefaultMaxBodySize bounds page and script bodies (10MB).
	DefaultMaxBodySize int64 = 10 * 1024 * 1024

	// drainLimit bounds how much is discarded to make a connection reusable.
	drainLimit int64 = 64 * 1024
)

// ErrTruncated is returned together with the first maxSize bytes when the
// body is longer than the limit.
var ErrTruncated = errors.New("iohelper: body exceeds size limit")

// ReadBody reads at most maxSize bytes from r. A nil reader yields an empty
// body. When r holds more than maxSize bytes the prefix is returned along
// with ErrTruncated, so callers can decide whether a partial body is useful.
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return data, err
	}
	if int64(len(data)) > maxSize {
		return data[:maxSize], ErrTruncated
	}
	return data, nil
}

// DrainAndClose discards up to 64KB of what is left in r and closes it, so
// the underlying keep-alive connection can be reused. It always returns nil
// so it can be deferred directly.
func DrainAndClose(r io.ReadCloser) error {
	if r == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r, drainLimit))
	_ = r.Close()
	return nil
}
