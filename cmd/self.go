package cmd

import "os"

// selfPath resolves the path to the running binary, used to re-exec into
// the hidden intermediate/grandchild/probe subcommands.
func selfPath() string {
	self, err := os.Executable()
	if err != nil {
		return os.Args[0]
	}
	return self
}
