// Command nsctl is a low-level toolkit for creating and manipulating
// Linux kernel namespaces.
package main

import (
	"fmt"
	"os"

	"nsctl/cmd"
	"nsctl/logging"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logging.Error("nsctl command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
