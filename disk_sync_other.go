//go:build !linux

package pagebuf

import "os"

// fdatasync falls back to a full sync on platforms without fdatasync.
func fdatasync(f *os.File) error {
	return f.Sync()
}
