package cmd

import (
	"fmt"

	"chainguard.dev/tw/mirror-config/internal/imageset"
	"github.com/spf13/cobra"
)

type showCfg struct {
	source
	Output string
}

func showCommand() *cobra.Command {
	cfg := &showCfg{}

	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print the parsed configuration",
		Long: `Parse a configuration and print it in normalized form.

Keys are sorted and fields absent from the source are omitted, so two
documents that parse to the same configuration print identically.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.stdin = cmd.InOrStdin()
			return cfg.Run(cmd, args[0])
		},
	}

	cfg.addFlags(cmd)
	cmd.Flags().StringVarP(&cfg.Output, "output", "o", "yaml", "Output format (yaml or json)")

	return cmd
}

func (c *showCfg) Run(cmd *cobra.Command, path string) error {
	encode := imageset.EncodeYAML
	switch c.Output {
	case "yaml":
	case "json":
		encode = imageset.EncodeJSON
	default:
		return fmt.Errorf("invalid output format %q (must be yaml or json)", c.Output)
	}

	doc, err := c.parse(cmd.Context(), path)
	if err != nil {
		return err
	}
	return encode(cmd.OutOrStdout(), doc)
}
