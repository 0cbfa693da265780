// Package session owns the state of one planning session: the loaded
// reference data, the batch being assembled, and whether a dispatch is in
// flight. A Session is driven from a single goroutine.
package session

import (
	"context"
	"errors"

	"github.com/nhle/planbatch/internal/apperr"
	"github.com/nhle/planbatch/internal/batch"
	"github.com/nhle/planbatch/internal/ingest"
	"github.com/nhle/planbatch/internal/logger"
	"github.com/nhle/planbatch/internal/model"
	"github.com/nhle/planbatch/internal/planner"
	"github.com/nhle/planbatch/internal/store"
)

// ErrDispatchInFlight is returned by mutations attempted while a batch is
// being sent.
var ErrDispatchInFlight = errors.New("an upload is in progress; wait for it to finish")

// ErrNotDispatching is returned by EndDispatch without a matching BeginDispatch.
var ErrNotDispatching = errors.New("no upload in progress")

// Session is the explicit replacement for page-level globals.
type Session struct {
	gen     *planner.Generator
	journal store.Journal

	ref   *model.ReferenceData
	batch *batch.Store

	dispatching bool
	inFlight    []model.PlanTask
}

// Option configures a Session.
type Option func(*Session)

// WithJournal records acknowledged dispatches in j.
func WithJournal(j store.Journal) Option {
	return func(s *Session) { s.journal = j }
}

// New returns an empty session with no reference data.
func New(gen *planner.Generator, opts ...Option) *Session {
	s := &Session{gen: gen, batch: batch.New()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetReferenceData replaces the reference snapshot wholesale.
func (s *Session) SetReferenceData(ref *model.ReferenceData) {
	s.ref = ref
}

// ResetReferenceData drops the snapshot, e.g. after a failed reload, so
// stale data is never used.
func (s *Session) ResetReferenceData() {
	s.ref = nil
}

// Reference returns the current snapshot, or nil before a load.
func (s *Session) Reference() *model.ReferenceData {
	return s.ref
}

// Loaded reports whether reference data is available.
func (s *Session) Loaded() bool {
	return s.ref != nil
}

// Dispatching reports whether a dispatch is in flight.
func (s *Session) Dispatching() bool {
	return s.dispatching
}

// Tasks returns the batch in arrival order.
func (s *Session) Tasks() []model.PlanTask {
	return s.batch.List()
}

// Len returns the batch size.
func (s *Session) Len() int {
	return s.batch.Len()
}

// Add generates the tasks for req and appends them. On error the batch is
// unchanged.
func (s *Session) Add(req planner.Request) ([]model.PlanTask, error) {
	if s.dispatching {
		return nil, ErrDispatchInFlight
	}
	tasks, err := s.gen.Generate(req, s.ref)
	if err != nil {
		return nil, err
	}
	s.batch.Append(tasks...)
	logger.Debug("tasks added", "type", req.TaskType(), "count", len(tasks), "batch", s.batch.Len())
	return tasks, nil
}

// Remove deletes one task by id. Removing an absent id is a no-op.
func (s *Session) Remove(id string) (bool, error) {
	if s.dispatching {
		return false, ErrDispatchInFlight
	}
	return s.batch.Remove(id), nil
}

// Clear empties the batch.
func (s *Session) Clear() error {
	if s.dispatching {
		return ErrDispatchInFlight
	}
	s.batch.Clear()
	return nil
}

// BeginDispatch freezes the batch and returns the snapshot to send. The
// batch cannot change until EndDispatch.
func (s *Session) BeginDispatch() ([]model.PlanTask, error) {
	if s.dispatching {
		return nil, ErrDispatchInFlight
	}
	if s.batch.Len() == 0 {
		return nil, &apperr.ValidationError{Message: "no tasks to upload"}
	}
	s.dispatching = true
	s.inFlight = s.batch.List()
	return append([]model.PlanTask(nil), s.inFlight...), nil
}

// EndDispatch unfreezes the batch. When sendErr is nil the batch is
// cleared and the dispatch is journaled; otherwise the batch is kept for
// a manual retry. Journal failures are logged and do not affect the
// batch.
func (s *Session) EndDispatch(ctx context.Context, receipt ingest.Receipt, sendErr error) error {
	if !s.dispatching {
		return ErrNotDispatching
	}
	sent := s.inFlight
	s.dispatching = false
	s.inFlight = nil

	if sendErr != nil {
		logger.Warn("dispatch failed; batch kept", "count", len(sent), "err", sendErr)
		return nil
	}

	s.batch.Clear()
	logger.Info("batch dispatched",
		"count", len(sent),
		"confirmed", receipt.Confirmed,
		"endpoint", receipt.Endpoint,
	)

	if s.journal != nil {
		_, err := s.journal.RecordDispatch(ctx, model.Dispatch{
			Endpoint:  receipt.Endpoint,
			Mode:      string(receipt.Mode),
			TaskCount: len(sent),
			Confirmed: receipt.Confirmed,
			RowsAdded: receipt.RowsAdded,
			Message:   receipt.Message,
		}, sent)
		if err != nil {
			logger.Error("recording dispatch in journal", "err", err)
		}
	}
	return nil
}

// Dispatch sends the batch through sub and settles the session. It is the
// synchronous form of BeginDispatch, Submit and EndDispatch.
func (s *Session) Dispatch(ctx context.Context, sub ingest.Submitter) (ingest.Receipt, error) {
	snapshot, err := s.BeginDispatch()
	if err != nil {
		return ingest.Receipt{}, err
	}
	receipt, sendErr := sub.Submit(ctx, snapshot)
	if err := s.EndDispatch(ctx, receipt, sendErr); err != nil {
		return ingest.Receipt{}, err
	}
	if sendErr != nil {
		return ingest.Receipt{}, sendErr
	}
	return receipt, nil
}
