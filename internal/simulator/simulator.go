package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/rating"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var log = logrus.WithField("component", "simulator")

// TickListener observes the events of every tick. Returning true asks the
// simulation to stop before the next tick.
type TickListener func(tick int64, events []models.Event) bool

type SimulationOption func(*Simulation)

// WithTicksPerSecond paces the simulation in real time. Zero or less runs
// as fast as possible.
func WithTicksPerSecond(ticksPerSecond float64) SimulationOption {
	return func(s *Simulation) {
		if ticksPerSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(ticksPerSecond), 1)
		}
	}
}

func WithListener(listener TickListener) SimulationOption {
	return func(s *Simulation) {
		s.listeners = append(s.listeners, listener)
	}
}

func WithStartTime(start time.Time) SimulationOption {
	return func(s *Simulation) {
		s.info.StartTime = start
	}
}

// Simulation drives one Problem tick by tick and serializes its events.
type Simulation struct {
	problem   *Problem
	output    OutputDestination
	limiter   *rate.Limiter
	listeners []TickListener
	info      RunInfo
	tick      int64
	events    int
}

// RunResult summarises a finished run.
type RunResult struct {
	Run     int64
	RunID   string
	Ticks   int64
	Events  int
	Stopped bool
	Scores  map[rating.Criteria]float64
}

func NewSimulation(problem *Problem, output OutputDestination, opts ...SimulationOption) *Simulation {
	s := &Simulation{
		problem: problem,
		output:  output,
		info:    RunInfo{Problem: problem.Name, StartTime: time.Now().UTC().Truncate(time.Minute)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulation) Problem() *Problem { return s.problem }
func (s *Simulation) Tick() int64       { return s.tick }

// Step runs a single tick: new orders, the delivery service, the raters,
// the listeners and finally the output. It reports whether a listener
// asked to stop.
func (s *Simulation) Step() (bool, error) {
	tick := s.tick
	orders, err := s.problem.Generator.GenerateOrders(tick)
	if err != nil {
		return false, fmt.Errorf("generate orders at tick %d: %w", tick, err)
	}
	s.problem.Service.Deliver(orders...)

	events, err := s.problem.Service.Tick(tick)
	if err != nil {
		return false, fmt.Errorf("tick %d: %w", tick, err)
	}
	for _, r := range s.problem.Raters {
		r.OnTick(events, tick)
	}

	stop := false
	for _, listener := range s.listeners {
		if listener(tick, events) {
			stop = true
		}
	}

	for _, event := range events {
		msg, err := s.serializeEvent(event)
		if err != nil {
			log.WithError(err).Error("error serializing event")
			continue
		}
		if err := s.output.WriteMessage(msg.Topic, msg.Message); err != nil {
			log.WithField("topic", msg.Topic).WithError(err).Error("failed to write message")
		}
	}
	s.events += len(events)
	s.tick++
	return stop, nil
}

// Run advances the simulation until length ticks have passed, a listener
// asks to stop, or ctx is done. Scores are written to the output as rating
// records at the end of the run.
func (s *Simulation) Run(ctx context.Context, length int64) (RunResult, error) {
	log.WithFields(logrus.Fields{
		"problem": s.info.Problem,
		"run":     s.info.Run,
		"ticks":   length,
	}).Info("simulation starts")

	stopped := false
	for s.tick < length && !stopped {
		if err := ctx.Err(); err != nil {
			return s.result(stopped), err
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return s.result(stopped), err
			}
		}
		stop, err := s.Step()
		if err != nil {
			return s.result(stopped), err
		}
		stopped = stop
	}

	result := s.result(stopped)
	for _, record := range s.ratingRecords(result.Scores) {
		msg, err := json.Marshal(record)
		if err != nil {
			return result, err
		}
		if err := s.output.WriteMessage(TopicRunRatings, msg); err != nil {
			log.WithError(err).Error("failed to write rating")
		}
	}

	log.WithFields(logrus.Fields{
		"problem": s.info.Problem,
		"run":     s.info.Run,
		"ticks":   s.tick,
		"events":  s.events,
	}).Info("simulation completed")
	return result, nil
}

// Reset rewinds to tick 0 for the next run.
func (s *Simulation) Reset(run int64, runID string) {
	s.problem.Service.Reset()
	s.problem.Generator.Reset()
	for _, r := range s.problem.Raters {
		r.Reset()
	}
	s.tick = 0
	s.events = 0
	s.info.Run = run
	s.info.RunID = runID
}

func (s *Simulation) Scores() map[rating.Criteria]float64 {
	scores := make(map[rating.Criteria]float64, len(s.problem.Raters))
	for _, r := range s.problem.Raters {
		scores[r.Criteria()] = r.Score()
	}
	return scores
}

func (s *Simulation) result(stopped bool) RunResult {
	return RunResult{
		Run:     s.info.Run,
		RunID:   s.info.RunID,
		Ticks:   s.tick,
		Events:  s.events,
		Stopped: stopped,
		Scores:  s.Scores(),
	}
}

func (s *Simulation) ratingRecords(scores map[rating.Criteria]float64) []*models.RatingRecord {
	records := make([]*models.RatingRecord, 0, len(scores))
	for _, r := range s.problem.Raters {
		records = append(records, &models.RatingRecord{
			Timestamp: s.info.timestamp(s.tick),
			RunID:     s.info.RunID,
			Run:       s.info.Run,
			Problem:   s.info.Problem,
			Criteria:  string(r.Criteria()),
			Score:     scores[r.Criteria()],
		})
	}
	return records
}

func (s *Simulation) serializeEvent(event models.Event) (EventMessage, error) {
	record, err := NewEventRecord(event, s.info)
	if err != nil {
		return EventMessage{}, err
	}
	msg, err := json.Marshal(record)
	if err != nil {
		return EventMessage{}, err
	}
	return EventMessage{Topic: TopicFor(event.Type()), Message: msg}, nil
}
