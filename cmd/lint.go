package cmd

import (
	"fmt"
	"io"
	"os"

	"chainguard.dev/tw/mirror-config/internal/imageset"
	"github.com/chainguard-dev/clog"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type lintCfg struct {
	source
	highlight func(imageset.Severity) string
}

func lintCommand() *cobra.Command {
	cfg := &lintCfg{}

	cmd := &cobra.Command{
		Use:   "lint FILE",
		Short: "Report likely mistakes in a configuration",
		Long: `Parse a configuration and report problems a mirroring tool would hit later.

Errors: unparseable apiVersion, catalog or additional image references.
Warnings: unexpected kind, duplicate package or channel names, nothing requested.

Version bounds are not compared. Exit code is non-zero if any error is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.stdin = cmd.InOrStdin()
			return cfg.Run(cmd, args[0])
		},
	}

	cfg.addFlags(cmd)

	return cmd
}

func (c *lintCfg) Run(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()

	doc, err := c.parse(ctx, path)
	if err != nil {
		return err
	}

	findings := imageset.Lint(doc)
	clog.FromContext(ctx).InfoContext(ctx, "linted config", "path", displayName(path), "findings", len(findings))

	if c.highlight == nil {
		c.highlight = severityHighlighter(cmd.OutOrStdout())
	}
	out := cmd.OutOrStdout()
	errCount := 0
	for _, f := range findings {
		if f.Severity == imageset.SeverityError {
			errCount++
		}
		fmt.Fprintf(out, "%s: %s: %s\n", c.highlight(f.Severity), f.Path, f.Message)
	}

	if errCount > 0 {
		return fmt.Errorf("lint failed: %d error(s)", errCount)
	}
	return nil
}

// severityHighlighter colors severities when w is a terminal.
func severityHighlighter(w io.Writer) func(imageset.Severity) string {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return func(s imageset.Severity) string { return string(s) }
	}
	return func(s imageset.Severity) string {
		if s == imageset.SeverityError {
			return "\x1b[31;1m" + string(s) + "\x1b[0m"
		}
		return "\x1b[33;1m" + string(s) + "\x1b[0m"
	}
}
