package main

import (
	"fmt"

	"github.com/okian/phq9/internal/domain/model"
	"github.com/okian/phq9/internal/synthetic"
	"github.com/spf13/cobra"
)

type generateFlags struct {
	rows            int
	out             string
	expect          string
	identityColumns int
	reservedColumns int
	seed            uint64
}

func newGenerateCmd() *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic sheet and the scores the service should report for it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&f.rows, "rows", 100, "Number of respondents")
	flags.StringVar(&f.out, "out", "sheet.csv", "Sheet output path")
	flags.StringVar(&f.expect, "expect", "expected.json", "Expectations output path")
	flags.IntVar(&f.identityColumns, "identity-columns", model.DefaultIdentityColumns, "Trailing name cells: 1, 2 or 4")
	flags.IntVar(&f.reservedColumns, "reserved-columns", model.DefaultReservedColumns, "Trailing cells excluded from answers")
	flags.Uint64Var(&f.seed, "seed", 0, "Answer seed; 0 picks one at random")

	return cmd
}

func runGenerate(cmd *cobra.Command, f *generateFlags) error {
	ctx := cmd.Context()
	if f.rows < 1 {
		return fmt.Errorf("rows must be positive, got %d", f.rows)
	}

	layout := model.Layout{IdentityColumns: f.identityColumns, ReservedColumns: f.reservedColumns}
	gen, err := synthetic.NewGenerator(layout, f.seed)
	if err != nil {
		return err
	}
	respondents, err := gen.Generate(ctx, f.rows)
	if err != nil {
		return err
	}
	if err := synthetic.SaveSheet(ctx, f.out, layout, respondents); err != nil {
		return err
	}
	if err := synthetic.SaveExpectations(ctx, f.expect, respondents); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d respondents to %s (expectations: %s)\n", len(respondents), f.out, f.expect)
	return nil
}
