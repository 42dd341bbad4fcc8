package history

import (
	"errors"
	"time"
)

// Item describes a captured or uploaded file.
// DateTime is kept in UTC, zero value means unknown.
type Item struct {
	Filename     string
	Filepath     string
	DateTime     time.Time
	Type         string
	Host         string
	URL          string
	ThumbnailURL string
	DeletionURL  string
	ShortenedURL string
}

var (
	ErrNilItem    = errors.New("history item is nil")
	ErrNoFilename = errors.New("history item has no file name")
	ErrNoDateTime = errors.New("history item has no date")
	ErrNoLocation = errors.New("history item has neither url nor file path")
)

// Validate returns nil if item can be appended to history.
// An item needs a file name, a date and either an url or a local path.
func Validate(item *Item) error {
	if item == nil {
		return ErrNilItem
	}
	if item.Filename == "" {
		return ErrNoFilename
	}
	if item.DateTime.IsZero() {
		return ErrNoDateTime
	}
	if item.URL == "" && item.Filepath == "" {
		return ErrNoLocation
	}
	return nil
}

// IsValid is Validate(item) == nil
func IsValid(item *Item) bool {
	return Validate(item) == nil
}
