package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/vaultd/internal/amps"
	"github.com/hpungsan/vaultd/internal/auth"
	"github.com/hpungsan/vaultd/internal/errors"
	"github.com/hpungsan/vaultd/internal/ops"
	"github.com/hpungsan/vaultd/internal/server"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(vault *ops.Vault) *cli.App {
	app := &cli.App{
		Name:    "vaultd",
		Usage:   "Encrypted personal vault for autonomous agents",
		Version: Version,
		Commands: []*cli.Command{
			initCmd(vault),
			serveCmd(vault),
			queryCmd(vault),
			classifyCmd(vault),
			contributeCmd(vault),
			statsCmd(vault),
			pendingCmd(vault),
			approveCmd(vault),
			rejectCmd(vault),
			tokenCmd(vault),
			secretCmd(vault),
			exportCmd(vault),
			importCmd(vault),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// initCmd creates the init command.
func initCmd(vault *ops.Vault) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialise the vault and mint the owner token",
		Action: func(c *cli.Context) error {
			out, err := vault.TokenCreate(ops.TokenCreateInput{
				Role:  auth.RoleOwner,
				Label: "owner-initial",
			})
			if err != nil {
				return outputError(err)
			}

			fmt.Printf("Vault initialised at %s\n", vault.Root)
			fmt.Printf("Vault ID: %s\n", vault.Auth.VaultID())
			fmt.Printf("\nOwner token (save it now, it is never shown again):\n\n  %s\n", out.Token)
			return nil
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(vault *ops.Vault) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "127.0.0.1:8420", Usage: "Listen address"},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(vault, vault.Logger)
			if err := srv.Run(ctx, c.String("addr")); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// queryCmd creates the query command.
func queryCmd(vault *ops.Vault) *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Search across memory, knowledge vaults, and peers",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "network", Usage: "Also consult the shared network knowledge base"},
		},
		Action: func(c *cli.Context) error {
			q := strings.Join(c.Args().Slice(), " ")
			if q == "" {
				return outputError(errors.NewInvalidRequest("query is required"))
			}

			output, err := vault.Query(c.Context, ops.QueryInput{
				Q:              q,
				IncludeNetwork: c.Bool("network"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// classifyCmd creates the classify command.
func classifyCmd(vault *ops.Vault) *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Score text against the contribution taxonomy",
		ArgsUsage: "[text]",
		Action: func(c *cli.Context) error {
			text, err := textArgOrStdin(c)
			if err != nil {
				return outputError(err)
			}

			output, err := vault.Classify(ops.ClassifyInput{Content: text})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// contributeCmd creates the contribute command.
func contributeCmd(vault *ops.Vault) *cli.Command {
	return &cli.Command{
		Name:      "contribute",
		Usage:     "Sanitise, classify, and stage knowledge for approval",
		ArgsUsage: "[text]",
		Action: func(c *cli.Context) error {
			text, err := textArgOrStdin(c)
			if err != nil {
				return outputError(err)
			}

			output, err := vault.Contribute(ops.ContributeInput{Content: text})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(vault *ops.Vault) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show contribution counters, ratio, and access tier",
		Action: func(c *cli.Context) error {
			output, err := vault.Stats()
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// pendingCmd creates the pending command.
func pendingCmd(vault *ops.Vault) *cli.Command {
	return &cli.Command{
		Name:  "pending",
		Usage: "List contributions awaiting approval",
		Action: func(c *cli.Context) error {
			output, err := vault.Pending()
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// approveCmd creates the approve command.
func approveCmd(vault *ops.Vault) *cli.Command {
	return &cli.Command{
		Name:      "approve",
		Usage:     "Approve a staged contribution",
		ArgsUsage: "<contribution-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("contribution id is required"))
			}
			output, err := vault.Approve(c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// rejectCmd creates the reject command.
func rejectCmd(vault *ops.Vault) *cli.Command {
	return &cli.Command{
		Name:      "reject",
		Usage:     "Reject a staged contribution",
		ArgsUsage: "<contribution-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("contribution id is required"))
			}
			output, err := vault.Reject(c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// tokenCmd creates the token command with its subcommands.
func tokenCmd(vault *ops.Vault) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Manage access tokens",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Mint a new token (the raw value is shown exactly once)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "role", Value: "subscriber", Usage: "Token role: owner|subscriber"},
					&cli.StringFlag{Name: "agent", Usage: "Agent name the token is issued for"},
					&cli.StringFlag{Name: "label", Usage: "Human-readable label"},
					&cli.StringFlag{Name: "expires", Usage: "Expiry timestamp, RFC 3339"},
				},
				Action: func(c *cli.Context) error {
					input := ops.TokenCreateInput{
						Role:  auth.Role(c.String("role")),
						Agent: c.String("agent"),
						Label: c.String("label"),
					}
					if expires := c.String("expires"); expires != "" {
						ts, err := time.Parse(time.RFC3339, expires)
						if err != nil {
							return outputError(errors.NewInvalidRequest("expires must be RFC 3339"))
						}
						input.ExpiresAt = &ts
					}

					output, err := vault.TokenCreate(input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "revoke",
				Usage:     "Revoke a token by its raw value",
				ArgsUsage: "<token>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return outputError(errors.NewInvalidRequest("token is required"))
					}
					output, err := vault.TokenRevoke(c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "list",
				Usage: "List issued tokens (raw values never appear)",
				Action: func(c *cli.Context) error {
					return outputJSON(vault.TokenList())
				},
			},
		},
	}
}

// secretCmd creates the secret command with its subcommands.
func secretCmd(vault *ops.Vault) *cli.Command {
	return &cli.Command{
		Name:  "secret",
		Usage: "Manage encrypted secrets",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Store a secret (value is read from stdin)",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return outputError(errors.NewInvalidRequest("secret name is required"))
					}
					if !stdinHasData() {
						return outputError(errors.NewInvalidRequest("secret value must be piped via stdin"))
					}
					value, err := readStdin()
					if err != nil {
						return outputError(errors.NewInternal(err))
					}

					output, err := vault.SecretSet(ops.SecretSetInput{
						Name:  c.Args().First(),
						Value: value,
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "get",
				Usage:     "Retrieve a decrypted secret",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return outputError(errors.NewInvalidRequest("secret name is required"))
					}
					output, err := vault.SecretGet(c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a secret",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return outputError(errors.NewInvalidRequest("secret name is required"))
					}
					output, err := vault.SecretDelete(c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "list",
				Usage: "List secret names",
				Action: func(c *cli.Context) error {
					return outputJSON(vault.SecretList())
				},
			},
		},
	}
}

// exportCmd creates the export command.
func exportCmd(vault *ops.Vault) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the vault as a portable AMPS document (secrets excluded)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write to file instead of stdout"},
		},
		Action: func(c *cli.Context) error {
			doc, err := vault.Export()
			if err != nil {
				return outputError(err)
			}

			if path := c.String("out"); path != "" {
				data, err := json.MarshalIndent(doc, "", "  ")
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if err := os.WriteFile(path, data, 0o600); err != nil {
					return outputError(errors.NewInternal(err))
				}
				fmt.Printf("Exported to %s\n", path)
				return nil
			}
			return outputJSON(doc)
		},
	}
}

// importCmd creates the import command.
func importCmd(vault *ops.Vault) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import an AMPS document (additive unless --overwrite)",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "overwrite", Usage: "Replace memory documents instead of appending"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("import file is required"))
			}

			data, err := os.ReadFile(c.Args().First())
			if err != nil {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("cannot read %s: %v", c.Args().First(), err)))
			}
			doc := &amps.Document{}
			if err := json.Unmarshal(data, doc); err != nil {
				return outputError(errors.NewInvalidRequest("file is not a valid AMPS document"))
			}

			output, err := vault.Import(ops.ImportInput{
				Document:  doc,
				Overwrite: c.Bool("overwrite"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if vaultErr, ok := err.(*errors.VaultError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", vaultErr.Code, vaultErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// textArgOrStdin returns the joined positional arguments, falling back to
// piped stdin.
func textArgOrStdin(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if !stdinHasData() {
		return "", errors.NewInvalidRequest("text must be given as an argument or piped via stdin")
	}
	text, err := readStdin()
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return text, nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
