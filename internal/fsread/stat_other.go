//go:build !linux && !darwin

package fsread

import "os"

// deviceInode has no portable equivalent outside POSIX. Rename
// inference falls back entirely to the content-fingerprint path (see
// internal/monitor's rename inference) on platforms that land here.
func deviceInode(_ string, _ os.FileInfo) (device, inode uint64, err error) {
	return 0, 0, nil
}
