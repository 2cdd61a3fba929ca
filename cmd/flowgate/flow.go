package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dukex/flowgate/pkg/models"
	"github.com/dukex/flowgate/pkg/validation"
	"github.com/dukex/flowgate/pkg/web"
	cli "github.com/urfave/cli/v3"
)

func newFlowCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "flow",
		Usage: "Inspect flow definitions",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Run every activation check against a flow definition",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "Target environment (dev, stage, prod); overrides the file",
					},
					&cli.StringFlag{
						Name:  "schema",
						Usage: "Input schema file resolved for the start node",
					},
				},
				Action: func(_ context.Context, command *cli.Command) error {
					path := command.Args().First()
					if path == "" {
						return errFileRequired
					}

					data, err := readDocument(path)
					if err != nil {
						return err
					}

					var flow models.Flow
					if err := json.Unmarshal(data, &flow); err != nil {
						return fmt.Errorf("invalid flow definition: %w", err)
					}

					if env := command.String("env"); env != "" {
						flow.Environment = models.ParseEnvironment(env)
					} else {
						flow.Environment = models.ParseEnvironment(string(flow.Environment))
					}

					inputSchema := ""
					if schemaPath := command.String("schema"); schemaPath != "" {
						text, err := readDocument(schemaPath)
						if err != nil {
							return err
						}

						inputSchema = string(text)
					}

					issues := validation.ValidateFlow(validation.NewContext(&flow, inputSchema))
					valid := !models.HasErrors(issues)

					if err := printJSON(out, web.ValidateFlowResponse{Valid: valid, Issues: issues}); err != nil {
						return err
					}

					if !valid {
						return errRejected
					}

					return nil
				},
			},
		},
	}
}
