package main

import (
	"os"
)

var (
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
