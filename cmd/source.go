package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"chainguard.dev/tw/mirror-config/internal/imageset"
	"github.com/avast/retry-go/v4"
	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

// stdinName selects stdin as the configuration source.
const stdinName = "-"

// maxRetries bounds --retries; retry-go treats zero attempts as unlimited.
const maxRetries = 100

// source loads configuration text, retrying transient read failures.
type source struct {
	Retries    uint
	RetryDelay time.Duration
	stdin      io.Reader
}

func (s *source) addFlags(cmd *cobra.Command) {
	cmd.Flags().UintVar(&s.Retries, "retries", 0, "Number of times to retry a failed read")
	cmd.Flags().DurationVar(&s.RetryDelay, "retry-delay", 100*time.Millisecond, "Delay between read retries")
	cmd.PreRunE = func(*cobra.Command, []string) error {
		return s.checkFlags()
	}
}

func (s *source) checkFlags() error {
	if s.Retries > maxRetries {
		return fmt.Errorf("--retries must be at most %d, got %d", maxRetries, s.Retries)
	}
	if s.RetryDelay < 0 {
		return fmt.Errorf("--retry-delay must not be negative, got %s", s.RetryDelay)
	}
	return nil
}

func (s *source) load(ctx context.Context, path string) (string, error) {
	if path == stdinName {
		return imageset.Read(s.stdin)
	}

	if err := s.checkFlags(); err != nil {
		return "", err
	}

	log := clog.FromContext(ctx).With("path", path)

	var text string
	err := retry.Do(
		func() error {
			t, err := imageset.Load(path)
			if err != nil {
				return err
			}
			text = t
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.Retries+1),
		retry.Delay(s.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(transient),
		retry.OnRetry(func(n uint, err error) {
			log.WarnContextf(ctx, "[%d/%d] read failed, retrying: %v", n+1, s.Retries, err)
		}),
	)
	if err != nil {
		return "", err
	}
	log.DebugContext(ctx, "loaded config", "bytes", len(text))
	return text, nil
}

func (s *source) parse(ctx context.Context, path string) (*imageset.Document, error) {
	text, err := s.load(ctx, path)
	if err != nil {
		return nil, err
	}
	return imageset.Parse(text)
}

// transient reports whether a read failure may go away on its own.
func transient(err error) bool {
	return !errors.Is(err, fs.ErrNotExist) &&
		!errors.Is(err, fs.ErrPermission) &&
		!errors.Is(err, imageset.ErrInvalidUTF8)
}

func displayName(path string) string {
	if path == stdinName {
		return "<stdin>"
	}
	return path
}

func checkStdin(args []string) error {
	n := 0
	for _, a := range args {
		if a == stdinName {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("stdin (%s) can only be read once", stdinName)
	}
	return nil
}
