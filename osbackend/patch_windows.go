//go:build windows

package osbackend

import (
	"fmt"
	"os"
)

// writeBackPatches on Windows falls back to plain WriteAt: the mmap
// path is Unix-only (golang.org/x/sys/unix has no Windows build), and a
// handful of 64-byte overwrites per binary doesn't justify a separate
// Windows file-mapping API call.
func writeBackPatches(path string, writes []patchWrite) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("osbackend: opening %s for patch: %w", path, err)
	}
	defer f.Close()

	for _, w := range writes {
		if _, err := f.WriteAt(w.data, w.offset); err != nil {
			return fmt.Errorf("osbackend: writing patch to %s at offset %d: %w", path, w.offset, err)
		}
	}
	return nil
}
