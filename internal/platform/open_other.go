//go:build !unix

package platform

import "os"

const openFlags = os.O_RDONLY
