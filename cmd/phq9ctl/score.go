package main

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/okian/phq9/internal/adapters/sheet"
	service "github.com/okian/phq9/internal/app"
	"github.com/okian/phq9/internal/domain/model"
	"github.com/okian/phq9/internal/domain/resolver"
	"github.com/spf13/cobra"
)

type scoreFlags struct {
	sheet           string
	phrases         string
	identityColumns int
	reservedColumns int
	policy          string
	timeout         time.Duration
	clientName      string
	first           string
	middle          string
	last            string
	suffix          string
}

func newScoreCmd() *cobra.Command {
	f := &scoreFlags{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one respondent from a sheet and print the assessment as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.sheet, "sheet", "", "Sheet CSV export: http(s) URL or local path")
	flags.StringVar(&f.phrases, "phrases", "phrases_phq9.json", "Phrase bank path (JSON or YAML); empty disables commentary")
	flags.IntVar(&f.identityColumns, "identity-columns", model.DefaultIdentityColumns, "Trailing name cells: 1, 2 or 4")
	flags.IntVar(&f.reservedColumns, "reserved-columns", model.DefaultReservedColumns, "Trailing cells excluded from answers")
	flags.StringVar(&f.policy, "duplicate-policy", string(model.DuplicateFirst), "Duplicate rows: first or reject")
	flags.DurationVar(&f.timeout, "timeout", sheet.DefaultTimeout, "Sheet fetch timeout")
	flags.StringVar(&f.clientName, "client-name", "", "Full name as one value")
	flags.StringVar(&f.first, "first", "", "First name")
	flags.StringVar(&f.middle, "middle", "", "Middle name")
	flags.StringVar(&f.last, "last", "", "Last name")
	flags.StringVar(&f.suffix, "suffix", "", "Name suffix")
	_ = cmd.MarkFlagRequired("sheet")

	return cmd
}

func runScore(cmd *cobra.Command, f *scoreFlags) error {
	ctx := cmd.Context()

	policy, err := model.ParseDuplicatePolicy(f.policy)
	if err != nil {
		return err
	}
	svc := service.New(
		service.WithSheetURL(f.sheet),
		service.WithFetchTimeout(f.timeout),
		service.WithLayout(model.Layout{IdentityColumns: f.identityColumns, ReservedColumns: f.reservedColumns}),
		service.WithDuplicatePolicy(policy),
		service.WithPhrasesPath(f.phrases),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	a, err := svc.Analyze(ctx, model.Identity{
		ClientName: f.clientName,
		First:      f.first,
		Middle:     f.middle,
		Last:       f.last,
		Suffix:     f.suffix,
	})
	if errors.Is(err, resolver.ErrNotFound) {
		return exitError(exitNotFound, "%v", err)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}
