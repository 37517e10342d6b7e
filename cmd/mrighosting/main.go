// Command mrighosting measures MRI ghosting artifacts in phantom images
// following IPEM Report 112.
//
// Usage:
//
//	mrighosting analyze <dir-or-file>...
//	mrighosting init
//	mrighosting results
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

func main() {
	if err := fang.Execute(
		context.Background(),
		NewRootCmd(),
		fang.WithVersion(getVersion()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
