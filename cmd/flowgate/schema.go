package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dukex/flowgate/pkg/schema"
	cli "github.com/urfave/cli/v3"
)

var errFileRequired = errors.New("a FILE argument is required")

func newSchemaCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Inspect input schemas",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Report errors and warnings of a schema",
				ArgsUsage: "FILE",
				Action: func(_ context.Context, command *cli.Command) error {
					text, err := schemaArg(command)
					if err != nil {
						return err
					}

					report := schema.ValidateSchema(text)
					if err := printJSON(out, report); err != nil {
						return err
					}

					if !report.IsValid {
						return errRejected
					}

					return nil
				},
			},
			{
				Name:      "sample",
				Usage:     "Print a sample payload for a schema",
				ArgsUsage: "FILE",
				Action: func(_ context.Context, command *cli.Command) error {
					text, err := schemaArg(command)
					if err != nil {
						return err
					}

					parsed, err := schema.Parse(text)
					if err != nil {
						return fmt.Errorf("cannot sample schema: %w", err)
					}

					return printJSON(out, schema.NewGenerator(nil).Sample(parsed))
				},
			},
		},
	}
}

func schemaArg(command *cli.Command) (string, error) {
	path := command.Args().First()
	if path == "" {
		return "", errFileRequired
	}

	data, err := readDocument(path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
