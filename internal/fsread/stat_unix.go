//go:build linux || darwin

package fsread

import (
	"os"

	"golang.org/x/sys/unix"
)

// deviceInode extracts the (device, inode) pair the monitor's rename
// inference keys on. On POSIX this is reliable for detecting
// delete+create pairs produced by an atomic rename; platforms that
// recycle inodes aggressively fall back to the content fingerprint.
func deviceInode(absPath string, _ os.FileInfo) (device, inode uint64, err error) {
	var st unix.Stat_t
	if err := unix.Stat(absPath, &st); err != nil {
		return 0, 0, err
	}
	return uint64(st.Dev), uint64(st.Ino), nil
}
