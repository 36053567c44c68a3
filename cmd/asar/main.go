// Command asar creates, inspects, extracts, and distributes asar archives.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "asar:", err)
		os.Exit(1)
	}
}
