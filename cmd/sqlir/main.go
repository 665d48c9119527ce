// Command sqlir validates query IR documents and compiles them to SQL.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/sqlir/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		// Commands render their own failures; anything else is reported here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
