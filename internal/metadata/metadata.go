// Package metadata looks up title, uploader and duration for watched media.
package metadata

import (
	"context"
	"errors"
)

// ErrUnsupported is returned for URLs an extractor cannot handle
var ErrUnsupported = errors.New("unsupported media URL")

// ErrNotFound is returned when the media no longer exists upstream
var ErrNotFound = errors.New("media not found")

// Metadata describes one piece of media
type Metadata struct {
	Title           string
	Uploader        string
	Description     string
	Transcript      string
	DurationSeconds int
}

// Extractor fetches metadata for a media URL
type Extractor interface {
	Supports(url string) bool
	Extract(ctx context.Context, url string) (*Metadata, error)
}
