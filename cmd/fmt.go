package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"chainguard.dev/tw/mirror-config/internal/imageset"
	"github.com/chainguard-dev/clog"
	"github.com/chainguard-dev/yam/pkg/yam/formatted"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const yamConfigName = ".yam.yaml"

type fmtCfg struct {
	source
	DryRun bool
}

func fmtCommand() *cobra.Command {
	cfg := &fmtCfg{}

	cmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Reformat a configuration in place",
		Long: `Check that a configuration parses, then rewrite it with consistent formatting.

Comments and key order are kept. A .yam.yaml file next to the configuration
overrides the formatting options. Input read from stdin is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.stdin = cmd.InOrStdin()
			return cfg.Run(cmd, args[0])
		},
	}

	cfg.addFlags(cmd)
	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "Print the formatted configuration instead of writing it")

	return cmd
}

func (c *fmtCfg) Run(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	log := clog.FromContext(ctx)

	text, err := c.load(ctx, path)
	if err != nil {
		return err
	}
	// Refuse to rewrite anything that would not load afterwards.
	if _, err := imageset.Parse(text); err != nil {
		return err
	}

	root, err := singleDocument(text)
	if err != nil {
		return fmt.Errorf("%s: %w", displayName(path), err)
	}

	dir := "."
	if path != stdinName {
		dir = filepath.Dir(path)
	}
	formattedText, err := format(root, dir)
	if err != nil {
		return err
	}

	if c.DryRun || path == stdinName {
		_, err := cmd.OutOrStdout().Write(formattedText)
		return err
	}

	if bytes.Equal(formattedText, []byte(text)) {
		log.InfoContextf(ctx, "%s already formatted", path)
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, formattedText, info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	log.InfoContextf(ctx, "formatted %s", path)
	return nil
}

// singleDocument decodes text, which must hold exactly one YAML document.
// Rewriting from the first document alone would drop the rest.
func singleDocument(text string) (*yaml.Node, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))

	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	count := 1
	for {
		var next yaml.Node
		err := dec.Decode(&next)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
		count++
	}
	if count > 1 {
		return nil, fmt.Errorf("%w: found %d", errMultipleDocuments, count)
	}
	return &root, nil
}

var errMultipleDocuments = errors.New("fmt only rewrites files holding a single YAML document")

// format encodes root with yam, using the .yam.yaml in dir when present.
func format(root *yaml.Node, dir string) ([]byte, error) {
	var buf bytes.Buffer

	enc := formatted.NewEncoder(&buf)

	f, err := os.Open(filepath.Join(dir, yamConfigName))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("opening %s: %w", yamConfigName, err)
	default:
		defer f.Close()
		opts, err := formatted.ReadConfigFrom(f)
		switch {
		case errors.Is(err, io.EOF):
			// An empty file keeps the defaults.
		case err != nil:
			return nil, fmt.Errorf("reading %s: %w", yamConfigName, err)
		default:
			if enc, err = enc.UseOptions(*opts); err != nil {
				return nil, fmt.Errorf("applying %s: %w", yamConfigName, err)
			}
		}
	}

	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	return buf.Bytes(), nil
}
