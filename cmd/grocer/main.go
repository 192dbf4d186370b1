// Command grocer records grocery prices and coupons and ranks items by value.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/grocer/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil && !cli.IsReported(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
