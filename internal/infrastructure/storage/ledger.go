package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"MonkHerald/internal/ports"
)

// FileLedger persists the date of the last successful batch as a single
// ISO date string. An absent file means the batch has never succeeded.
type FileLedger struct {
	path string
}

var _ ports.RunLedger = (*FileLedger)(nil)

// NewFileLedger points the ledger at path without touching the filesystem.
func NewFileLedger(path string) *FileLedger {
	return &FileLedger{path: path}
}

// LastSuccess returns the recorded date, or an empty string when none exists.
func (l *FileLedger) LastSuccess() (string, error) {
	raw, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read run ledger: %w", err)
	}

	return strings.TrimSpace(string(raw)), nil
}

// RecordSuccess overwrites the ledger with the given date.
func (l *FileLedger) RecordSuccess(date string) error {
	if err := os.WriteFile(l.path, []byte(date+"\n"), 0o644); err != nil {
		return fmt.Errorf("write run ledger: %w", err)
	}
	return nil
}
