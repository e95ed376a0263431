// Command toictl drives hibernate/resume cycles against a host-process
// arena and a file-backed swap device, for manual exploration of the
// engine outside the test suite (§6, C9). It is not part of the tested
// core contract.
package main

import (
	"fmt"
	"os"

	"toi/cmd/toictl/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
