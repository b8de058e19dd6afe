// Command phq9ctl scores respondents offline and exercises a running
// service with synthetic sheets.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/okian/phq9/pkg/logger"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Exit codes.
const (
	exitFailure  = 1
	exitNotFound = 2
)

func main() {
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}

	if err := newRootCmd().Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "phq9ctl",
		Short:         "Score PHQ-9 respondents and verify a running scoring service",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return logger.SetLevelString(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(newScoreCmd(), newGenerateCmd(), newVerifyCmd())
	return root
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}
