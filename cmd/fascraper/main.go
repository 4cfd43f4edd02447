// Command fascraper is a command line front end for the furaffinity package.
package main

import (
	"os"

	"fascraper/pkg/ui"
)

func main() {
	a := newApp()
	if err := newRootCmd(a).Execute(); err != nil {
		if a.out == nil {
			a.out = ui.NewPrinter(os.Stderr)
		}
		a.out.Error("Error", err)
		os.Exit(1)
	}
}
