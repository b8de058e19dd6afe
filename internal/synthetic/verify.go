package synthetic

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/phq9/pkg/logger"
)

// WorkerChannelMultiplier sizes the job channel relative to the worker count.
const WorkerChannelMultiplier = 2

// Verify checks health, then scores every respondent concurrently and
// compares the service's answer with the expected score and interpretation.
func Verify(ctx context.Context, cfg Config, respondents []Respondent) (*Report, error) {
	if len(respondents) == 0 {
		return nil, ErrNoRespondents
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	log := logger.Get()
	report := &Report{StartTime: time.Now(), Mismatches: []Mismatch{}}

	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	log.Info(ctx, "verifying respondents",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("respondents", len(respondents)),
		logger.Int("workers", workers))

	var (
		checked, matched, mismatched, failed int64
		mu                                   sync.Mutex
		wg                                   sync.WaitGroup
	)
	record := func(m Mismatch) {
		mu.Lock()
		report.Mismatches = append(report.Mismatches, m)
		mu.Unlock()
		if cfg.Verbose {
			log.Warn(ctx, "mismatch", logger.String("name", m.Name), logger.String("reason", m.Reason))
		}
	}

	jobs := make(chan Respondent, workers*WorkerChannelMultiplier)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				atomic.AddInt64(&checked, 1)
				name := r.Identity().DisplayName()
				got, err := client.Analyze(ctx, r)
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
					record(Mismatch{Name: name, Reason: err.Error()})
				case got.TotalScore != r.TotalScore:
					atomic.AddInt64(&mismatched, 1)
					record(Mismatch{Name: name, Reason: fmt.Sprintf("score %d, want %d", got.TotalScore, r.TotalScore)})
				case got.Interpretation != r.Interpretation:
					atomic.AddInt64(&mismatched, 1)
					record(Mismatch{Name: name, Reason: fmt.Sprintf("interpretation %q, want %q", got.Interpretation, r.Interpretation)})
				default:
					atomic.AddInt64(&matched, 1)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, r := range respondents {
			select {
			case <-ctx.Done():
				return
			case jobs <- r:
			}
		}
	}()
	wg.Wait()

	report.Checked = int(atomic.LoadInt64(&checked))
	report.Matched = int(atomic.LoadInt64(&matched))
	report.Mismatched = int(atomic.LoadInt64(&mismatched))
	report.Failed = int(atomic.LoadInt64(&failed))
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	log.Info(ctx, "verification finished",
		logger.Int("checked", report.Checked),
		logger.Int("matched", report.Matched),
		logger.Int("mismatched", report.Mismatched),
		logger.Int("failed", report.Failed),
		logger.String("duration", report.Duration.String()))

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("verification interrupted: %w", err)
	}
	return report, nil
}
