// Command cci-extract inspects and decodes CCI disc images.
package main

import (
	"fmt"
	"os"

	"github.com/eunmann/cci-extract/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
