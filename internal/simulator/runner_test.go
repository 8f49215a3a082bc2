package simulator

import (
	"context"
	"io"
	"testing"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ratingRecorder struct {
	ratings []*models.RatingRecord
}

func (r *ratingRecorder) BulkCreate(_ context.Context, ratings []*models.RatingRecord) error {
	r.ratings = append(r.ratings, ratings...)
	return nil
}

func (r *ratingRecorder) GetByProblem(context.Context, string) ([]*models.RatingRecord, error) {
	return r.ratings, nil
}

func (r *ratingRecorder) DeleteAll(context.Context) error { return nil }

func TestAverage(t *testing.T) {
	averages := Average([]RunResult{
		{Scores: map[rating.Criteria]float64{rating.CriteriaInTime: 1, rating.CriteriaAmountDelivered: 0.5}},
		{Scores: map[rating.Criteria]float64{rating.CriteriaInTime: 0.5}},
	})
	assert.Equal(t, map[rating.Criteria]float64{
		rating.CriteriaInTime:          0.75,
		rating.CriteriaAmountDelivered: 0.5,
	}, averages)
	assert.Empty(t, Average(nil))
}

func TestRunnerRepeatsRuns(t *testing.T) {
	repo := &ratingRecorder{}
	var setups []int64
	sim := NewSimulation(deliveryProblem(t), &memoryOutput{})
	runner := NewRunner(sim, 3, 20,
		WithRatingRepository(repo),
		WithProgress(io.Discard),
		WithSetupHandler(func(run int64, s *Simulation) {
			setups = append(setups, run)
			assert.Equal(t, int64(0), s.Tick())
		}),
	)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, setups)
	require.Len(t, summary.Results, 3)
	assert.NotEqual(t, summary.Results[0].RunID, summary.Results[1].RunID)
	assert.Equal(t, 1.0, summary.Averages[rating.CriteriaAmountDelivered])
	assert.Equal(t, summary.Results[0].Scores[rating.CriteriaTravelDistance], summary.Averages[rating.CriteriaTravelDistance])

	require.Len(t, repo.ratings, 9)
	assert.Equal(t, int64(3), repo.ratings[8].Run)
	assert.Equal(t, "one-street", repo.ratings[0].Problem)
}

func TestRunnerStopsWhenFinishedHandlerSaysSo(t *testing.T) {
	sim := NewSimulation(deliveryProblem(t), &memoryOutput{})
	runner := NewRunner(sim, 5, 10, WithFinishedHandler(func(result RunResult) bool {
		return result.Run == 2
	}))

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, summary.Results, 2)
}

func TestRunnerRejectsEmptySeries(t *testing.T) {
	sim := NewSimulation(deliveryProblem(t), &memoryOutput{})
	_, err := NewRunner(sim, 0, 10).Run(context.Background())
	assert.Error(t, err)
	_, err = NewRunner(sim, 1, 0).Run(context.Background())
	assert.Error(t, err)
}
