package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/phq9/internal/synthetic"
	"github.com/spf13/cobra"
)

type verifyFlags struct {
	url     string
	expect  string
	workers int
	timeout time.Duration
	verbose bool
	jsonOut bool
}

func newVerifyCmd() *cobra.Command {
	f := &verifyFlags{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a running service against an expectations file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.url, "url", "http://localhost:9080", "Base URL of the service")
	flags.StringVar(&f.expect, "expect", "expected.json", "Expectations written by generate")
	flags.IntVar(&f.workers, "workers", runtime.NumCPU()*synthetic.WorkerChannelMultiplier, "Concurrent workers")
	flags.DurationVar(&f.timeout, "timeout", 30*time.Second, "HTTP request timeout")
	flags.BoolVar(&f.verbose, "verbose", false, "Log each mismatch as it is found")
	flags.BoolVar(&f.jsonOut, "json", false, "Print the report as JSON")

	return cmd
}

func runVerify(cmd *cobra.Command, f *verifyFlags) error {
	respondents, err := synthetic.LoadExpectations(f.expect)
	if err != nil {
		return err
	}

	report, err := synthetic.Verify(cmd.Context(), synthetic.Config{
		BaseURL: f.url,
		Workers: f.workers,
		Timeout: f.timeout,
		Verbose: f.verbose,
	}, respondents)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "checked %d, matched %d, mismatched %d, failed %d in %s\n",
			report.Checked, report.Matched, report.Mismatched, report.Failed, report.Duration.Round(time.Millisecond))
		for _, m := range report.Mismatches {
			fmt.Fprintf(out, "  %s: %s\n", m.Name, m.Reason)
		}
	}

	if !report.OK() {
		return exitError(exitFailure, "%d of %d respondents did not match", report.Mismatched+report.Failed, report.Checked)
	}
	return nil
}
