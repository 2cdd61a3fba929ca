// Command flowgate checks schemas and flow definitions offline.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
)

// errRejected is returned when a checked document has blocking findings.
var errRejected = errors.New("document rejected")

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errRejected) {
			fmt.Fprintln(os.Stderr, err)
		}

		os.Exit(1)
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:                  "flowgate",
		Usage:                 "Validate flow definitions and input schemas",
		EnableShellCompletion: true,
		Writer:                out,
		Commands: []*cli.Command{
			newSchemaCommand(out),
			newFlowCommand(out),
		},
	}
}
