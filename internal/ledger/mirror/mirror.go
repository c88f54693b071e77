// Package mirror maintains the flat-file copy of the scan ledger. The file
// is a convenience export: the durable store stays authoritative and a
// failed mirror write never rolls anything back.
package mirror

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"scanpoint/internal/ledger/models"
	"scanpoint/pkg/platform/sentinel"
)

var header = []string{"display_name", "group_label", "timestamp"}

// File appends one CSV line per scan to a flat file. The mutex covers only
// the file's own write; it is never held across store I/O.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a mirror writing to path. The file is created lazily on
// first append.
func NewFile(path string) *File {
	return &File{path: path}
}

// Append writes one scan line. An empty or missing file gets the header
// first. Failures wrap sentinel.ErrIOFailure.
func (f *File) Append(displayName, groupLabel string, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open mirror: %w", errors.Join(sentinel.ErrIOFailure, err))
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat mirror: %w", errors.Join(sentinel.ErrIOFailure, err))
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write mirror header: %w", errors.Join(sentinel.ErrIOFailure, err))
		}
	}
	if err := w.Write([]string{displayName, groupLabel, ts.Format(models.TimestampLayout)}); err != nil {
		return fmt.Errorf("write mirror line: %w", errors.Join(sentinel.ErrIOFailure, err))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush mirror: %w", errors.Join(sentinel.ErrIOFailure, err))
	}
	return nil
}

// Clear truncates the mirror to empty. The next append rewrites the header.
func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("truncate mirror: %w", errors.Join(sentinel.ErrIOFailure, err))
	}
	return file.Close()
}
