package utils

import (
	"fmt"
	"os"
)

// SafeWriteFile writes data to a temp file and atomically renames it into
// place, so a crash mid-write never leaves a truncated file at path.
func SafeWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}
