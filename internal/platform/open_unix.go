//go:build unix

package platform

import (
	"os"
	"syscall"
)

// openFlags keeps a FIFO swapped in after the Lstat check from blocking
// the open.
const openFlags = os.O_RDONLY | syscall.O_NONBLOCK
