package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/phq9/internal/domain/types"
	"github.com/okian/phq9/internal/synthetic"
	"github.com/okian/phq9/pkg/logger"
)

const sheetCSV = "Timestamp,Q1,Q2,Q3,Q4,Q5,Q6,Q7,Q8,Q9,Email,Name\n" +
	"3/1/2024 9:00,Nearly every day,Nearly every day,Nearly every day,Nearly every day,Nearly every day,Nearly every day,Nearly every day,More than half the days,Not at all,g@example.com,Grace Hopper\n"

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScoreCommand(t *testing.T) {
	sheetPath := writeFile(t, "sheet.csv", sheetCSV)

	t.Run("found", func(t *testing.T) {
		out, err := execute(t, "score", "--sheet", sheetPath, "--phrases", "", "--client-name", "grace hopper")
		if err != nil {
			t.Fatalf("score: %v", err)
		}
		var a types.Assessment
		if err := json.Unmarshal([]byte(out), &a); err != nil {
			t.Fatalf("decode %q: %v", out, err)
		}
		if a.TotalScore != 23 {
			t.Errorf("TotalScore = %d, want 23", a.TotalScore)
		}
		if a.Interpretation != "Severe (20-27)" {
			t.Errorf("Interpretation = %q", a.Interpretation)
		}
		if a.AdditionalImpressions == nil {
			t.Error("AdditionalImpressions should be an empty list, not null")
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := execute(t, "score", "--sheet", sheetPath, "--phrases", "", "--client-name", "alan turing")
		var ee *exitErr
		if !errors.As(err, &ee) || ee.code != exitNotFound {
			t.Fatalf("err = %v, want exit code %d", err, exitNotFound)
		}
	})

	t.Run("missing sheet flag", func(t *testing.T) {
		if _, err := execute(t, "score", "--client-name", "x"); err == nil {
			t.Fatal("expected error without --sheet")
		}
	})

	t.Run("bad policy", func(t *testing.T) {
		_, err := execute(t, "score", "--sheet", sheetPath, "--duplicate-policy", "merge", "--client-name", "x")
		if err == nil {
			t.Fatal("expected error for unknown duplicate policy")
		}
	})
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	sheetPath := filepath.Join(dir, "out", "sheet.csv")
	expectPath := filepath.Join(dir, "out", "expected.json")

	out, err := execute(t, "generate", "--rows", "12", "--identity-columns", "2", "--reserved-columns", "3",
		"--seed", "5", "--out", sheetPath, "--expect", expectPath)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "wrote 12 respondents") {
		t.Errorf("output = %q", out)
	}

	respondents, err := synthetic.LoadExpectations(expectPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(respondents) != 12 {
		t.Fatalf("len = %d, want 12", len(respondents))
	}

	// The generated sheet scores the same through the score command.
	r := respondents[0]
	scored, err := execute(t, "score", "--sheet", sheetPath, "--phrases", "",
		"--identity-columns", "2", "--reserved-columns", "3", "--first", r.First, "--last", r.Last)
	if err != nil {
		t.Fatalf("score generated row: %v", err)
	}
	var a types.Assessment
	if err := json.Unmarshal([]byte(scored), &a); err != nil {
		t.Fatal(err)
	}
	if a.TotalScore != r.TotalScore {
		t.Errorf("TotalScore = %d, want %d", a.TotalScore, r.TotalScore)
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero rows", []string{"generate", "--rows", "0"}},
		{"bad layout", []string{"generate", "--identity-columns", "3", "--reserved-columns", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestVerifyCommandMissingExpectations(t *testing.T) {
	_, err := execute(t, "verify", "--expect", filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected error for missing expectations file")
	}
}
