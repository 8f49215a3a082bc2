package simulator

import (
	"context"
	"fmt"
	"io"

	"github.com/chrisdamba/foodroutesim/internal/rating"
	"github.com/chrisdamba/foodroutesim/internal/repositories"
	"github.com/lucsky/cuid"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// SetupHandler is called before every run.
type SetupHandler func(run int64, sim *Simulation)

// FinishedHandler is called after every run. Returning true ends the
// series early; the finished run still counts.
type FinishedHandler func(result RunResult) bool

type RunnerOption func(*Runner)

func WithSetupHandler(h SetupHandler) RunnerOption {
	return func(r *Runner) { r.setup = append(r.setup, h) }
}

func WithFinishedHandler(h FinishedHandler) RunnerOption {
	return func(r *Runner) { r.finished = append(r.finished, h) }
}

func WithRatingRepository(repo repositories.RatingRepository) RunnerOption {
	return func(r *Runner) { r.ratings = repo }
}

// WithProgress draws a progress bar over the runs on w.
func WithProgress(w io.Writer) RunnerOption {
	return func(r *Runner) { r.progress = w }
}

// Runner repeats a simulation and averages the scores of its runs.
type Runner struct {
	sim      *Simulation
	runs     int
	length   int64
	setup    []SetupHandler
	finished []FinishedHandler
	ratings  repositories.RatingRepository
	progress io.Writer
}

type Summary struct {
	Problem  string
	Results  []RunResult
	Averages map[rating.Criteria]float64
}

func NewRunner(sim *Simulation, runs int, length int64, opts ...RunnerOption) *Runner {
	r := &Runner{sim: sim, runs: runs, length: length}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{Problem: r.sim.Problem().Name}
	if r.runs <= 0 || r.length <= 0 {
		return summary, fmt.Errorf("need at least one run of one tick, got %d runs of %d ticks", r.runs, r.length)
	}

	var bar *progressbar.ProgressBar
	if r.progress != nil {
		bar = progressbar.NewOptions(r.runs,
			progressbar.OptionSetWriter(r.progress),
			progressbar.OptionSetDescription(fmt.Sprintf("simulating %s", summary.Problem)),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	for run := int64(1); run <= int64(r.runs); run++ {
		r.sim.Reset(run, cuid.New())
		for _, h := range r.setup {
			h(run, r.sim)
		}

		result, err := r.sim.Run(ctx, r.length)
		if err != nil {
			return r.finish(summary), fmt.Errorf("run %d: %w", run, err)
		}
		summary.Results = append(summary.Results, result)

		if r.ratings != nil {
			if err := r.ratings.BulkCreate(ctx, r.sim.ratingRecords(result.Scores)); err != nil {
				return r.finish(summary), fmt.Errorf("store ratings of run %d: %w", run, err)
			}
		}
		if bar != nil {
			_ = bar.Add(1)
		}

		stop := false
		for _, h := range r.finished {
			if h(result) {
				stop = true
			}
		}
		if stop {
			log.WithField("run", run).Info("runner stopped by finished handler")
			break
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	summary = r.finish(summary)
	for criteria, avg := range summary.Averages {
		log.WithFields(logrus.Fields{
			"problem":  summary.Problem,
			"criteria": criteria,
			"average":  avg,
			"runs":     len(summary.Results),
		}).Info("average score")
	}
	return summary, nil
}

func (r *Runner) finish(summary Summary) Summary {
	summary.Averages = Average(summary.Results)
	return summary
}

// Average returns the mean score per criteria over the given runs.
func Average(results []RunResult) map[rating.Criteria]float64 {
	sums := make(map[rating.Criteria]float64)
	counts := make(map[rating.Criteria]int)
	for _, result := range results {
		for criteria, score := range result.Scores {
			sums[criteria] += score
			counts[criteria]++
		}
	}
	averages := make(map[rating.Criteria]float64, len(sums))
	for criteria, sum := range sums {
		averages[criteria] = sum / float64(counts[criteria])
	}
	return averages
}
