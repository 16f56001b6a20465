package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/strategykit/compiler"
	"github.com/kbukum/strategykit/logger"
	"github.com/kbukum/strategykit/server"
	"github.com/kbukum/strategykit/strategy"
	"github.com/kbukum/strategykit/version"
)

// errInvalid is returned by validate for a strategy with errors, after the
// result has been printed.
var errInvalid = errors.New("strategy is invalid")

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Compile flash-loan strategy graphs into atomic transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: cmd/strategyc/config.yml or ./config.yml)")

	root.AddCommand(
		newValidateCmd(opts),
		newCompileCmd(opts),
		newSimulateCmd(opts),
		newServeCmd(opts),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

// withApp loads configuration, wires the app and closes it after fn.
func withApp(cmd *cobra.Command, opts *rootOptions, telemetry bool, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, telemetry)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			a.log.Warn("telemetry shutdown failed", logger.ErrorFields("close", err))
		}
	}()
	return fn(ctx, a)
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <strategy-file>",
		Short: "Check a strategy against the schema and graph rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := strategy.Load(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, false, func(ctx context.Context, a *app) error {
				result := a.compiler.Validate(ctx, s)
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if !result.Valid {
					return errInvalid
				}
				return nil
			})
		},
	}
}

func newCompileCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "compile <strategy-file>",
		Short: "Compile a strategy into a command sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := strategy.Load(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, false, func(ctx context.Context, a *app) error {
				out, err := a.compiler.Compile(ctx, s)
				if err != nil {
					if r := compiler.ValidationResultOf(err); r != nil {
						_ = printJSON(cmd.ErrOrStderr(), r)
					}
					return err
				}
				return writeJSON(cmd.OutOrStdout(), output, out)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the compilation to a file instead of stdout")
	return cmd
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	var sender string
	cmd := &cobra.Command{
		Use:   "simulate <strategy-file>",
		Short: "Compile a strategy and dry-run it on the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := strategy.Load(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, false, func(ctx context.Context, a *app) error {
				out, err := a.compiler.Compile(ctx, s)
				if err != nil {
					return err
				}
				report, err := a.submitter.Simulate(ctx, out.Program, sender)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				if !report.Success {
					return fmt.Errorf("dry-run failed: %s", report.Error)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sender, "sender", "", "sender address (default: ledger.sender)")
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the compiler over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, true, func(ctx context.Context, a *app) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()

				srv := server.New(a.cfg.Server, a.log)
				srv.ApplyMiddleware(a.metrics)
				srv.RegisterRoutes(server.API{
					Service:    a.cfg.Name,
					Compiler:   a.compiler,
					Submitter:  a.submitter,
					Ledger:     a.rpc,
					Exposition: a.exposition,
				})
				if err := srv.Start(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", srv.Addr())

				<-ctx.Done()
				a.log.Info("shutdown signal received")
				return srv.Stop(context.Background())
			})
		},
	}
}

func newInitCmd() *cobra.Command {
	var (
		tmpl   strategy.TemplateOptions
		output string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a borrow, swap, swap, repay strategy to start from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := strategy.FormatFromPath(output)
			if err != nil {
				return err
			}
			if !force {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", output)
				}
			}
			s := strategy.FlashLoanTemplate(tmpl)
			raw, err := strategy.Encode(s, format)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, raw, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote strategy %s to %s\n", s.ID, output)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "strategy.yaml", "file to write (.json, .yaml or .yml)")
	f.BoolVar(&force, "force", false, "overwrite an existing file")
	f.StringVar(&tmpl.Name, "name", "flash-loan round trip", "strategy name")
	f.StringVar(&tmpl.Lender, "lender", "navi", "flash-loan protocol tag")
	f.StringVar(&tmpl.Exchange, "exchange", "cetus", "exchange protocol tag")
	f.StringVar(&tmpl.Amount, "amount", "1000000000", "amount to borrow, in base units")
	f.StringVar(&tmpl.PoolAB, "pool-ab", "0x1", "pool for the outbound swap")
	f.StringVar(&tmpl.PoolBA, "pool-ba", "0x2", "pool for the return swap")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), version.GetVersionInfo())
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeJSON prints v to w, or writes it to path when path is set.
func writeJSON(w io.Writer, path string, v any) error {
	if path == "" {
		return printJSON(w, v)
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}

