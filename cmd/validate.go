package cmd

import (
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type validateCfg struct {
	source
	Jobs int
}

func validateCommand() *cobra.Command {
	cfg := &validateCfg{}

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Load and parse image set configurations",
		Long: `Load and parse each configuration and report whether it is well formed.

Files are processed in parallel; results are printed in argument order.
A missing file is never retried.

Examples:
  mirror-config validate imageset-config.yaml
  cat imageset-config.yaml | mirror-config validate -
  mirror-config validate --retries 3 --jobs 8 configs/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.stdin = cmd.InOrStdin()
			return cfg.Run(cmd, args)
		},
	}

	cfg.addFlags(cmd)
	cmd.Flags().IntVarP(&cfg.Jobs, "jobs", "j", 4, "Number of files to validate concurrently")

	return cmd
}

func (c *validateCfg) Run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := clog.FromContext(ctx)

	if c.Jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", c.Jobs)
	}
	if err := checkStdin(args); err != nil {
		return err
	}

	results := make([]error, len(args))
	var g errgroup.Group
	g.SetLimit(c.Jobs)
	for i, path := range args {
		g.Go(func() error {
			_, results[i] = c.parse(ctx, path)
			return nil
		})
	}
	// Failures are collected per file, never returned from the group.
	_ = g.Wait()

	var errs FileErrors
	for i, path := range args {
		if results[i] != nil {
			errs.Add(path, results[i])
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", displayName(path))
	}
	log.InfoContextf(ctx, "validated %d file(s), %d failed", len(args), len(errs.Errors))

	if errs.HasErrors() {
		return &errs
	}
	return nil
}
