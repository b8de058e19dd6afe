package synthetic

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/okian/phq9/internal/domain/model"
	"github.com/okian/phq9/internal/domain/scoring"
	"github.com/okian/phq9/pkg/logger"
)

// QuestionCount is the number of PHQ-9 items per row.
const QuestionCount = 9

// NamePrefix marks generated respondents. Each name also carries a full UUID.
const NamePrefix = "Synthetic"

var answerPhrases = []string{ //nolint:gochecknoglobals // fixed answer scale
	scoring.AnswerNotAtAll,
	scoring.AnswerSeveralDays,
	scoring.AnswerMoreThanHalfDays,
	scoring.AnswerNearlyEveryDay,
}

// Generator produces respondents with unique names for a given layout.
type Generator struct {
	layout  model.Layout
	weights *scoring.Weights
	rng     *rand.Rand
}

// NewGenerator creates a generator. A zero seed draws a random one.
func NewGenerator(layout model.Layout, seed uint64) (*Generator, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{
		layout:  layout,
		weights: scoring.NewWeights(),
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Layout returns the layout rows are generated for.
func (g *Generator) Layout() model.Layout { return g.layout }

// Generate creates n respondents.
func (g *Generator) Generate(ctx context.Context, n int) ([]Respondent, error) {
	logger.Get().Info(ctx, "generating respondents", logger.Int("count", n), logger.String("layout", g.layout.String()))

	out := make([]Respondent, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generate respondent %d: %w", i, err)
		}
		out = append(out, g.respondent())
	}
	return out, nil
}

func (g *Generator) respondent() Respondent {
	answers := make([]string, QuestionCount)
	for i := range answers {
		answers[i] = answerPhrases[g.rng.IntN(len(answerPhrases))]
	}
	total := g.weights.Total(answers)

	r := Respondent{
		Answers:        answers,
		TotalScore:     total,
		Interpretation: scoring.Classify(total).Interpretation(),
	}

	id := uuid.NewString()
	switch g.layout.IdentityColumns {
	case 1:
		r.ClientName = NamePrefix + " " + id
	case 2:
		r.First, r.Last = id, NamePrefix
	default:
		r.First, r.Middle, r.Last = id, "Q", NamePrefix
		if g.rng.IntN(2) == 0 {
			r.Suffix = "Jr."
		}
	}
	return r
}

// Row renders r as a sheet row for layout: timestamp, answers, any unused
// reserved cells, then the identity cells.
func Row(layout model.Layout, r Respondent, timestamp string) []string {
	row := make([]string, 0, 1+QuestionCount+layout.ReservedColumns)
	row = append(row, timestamp)
	row = append(row, r.Answers...)
	for i := 0; i < layout.ReservedColumns-layout.IdentityColumns; i++ {
		row = append(row, "")
	}
	switch layout.IdentityColumns {
	case 1:
		row = append(row, r.ClientName)
	case 2:
		row = append(row, r.First, r.Last)
	default:
		row = append(row, r.First, r.Middle, r.Last, r.Suffix)
	}
	return row
}

// Header returns the header row matching Row.
func Header(layout model.Layout) []string {
	h := []string{"Timestamp"}
	for i := 1; i <= QuestionCount; i++ {
		h = append(h, fmt.Sprintf("Q%d", i))
	}
	for i := 0; i < layout.ReservedColumns-layout.IdentityColumns; i++ {
		h = append(h, fmt.Sprintf("Reserved%d", i+1))
	}
	switch layout.IdentityColumns {
	case 1:
		h = append(h, "Name")
	case 2:
		h = append(h, "First Name", "Last Name")
	default:
		h = append(h, "First Name", "Middle Name", "Last Name", "Suffix")
	}
	return h
}
