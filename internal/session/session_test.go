package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planbatch/internal/apperr"
	"github.com/nhle/planbatch/internal/ingest"
	"github.com/nhle/planbatch/internal/model"
	"github.com/nhle/planbatch/internal/planner"
	"github.com/nhle/planbatch/tests/testutil"
)

func loadedSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s := New(testutil.NewGenerator(), opts...)
	s.SetReferenceData(testutil.Reference())
	return s
}

func addFive(t *testing.T, s *Session) {
	t.Helper()
	// Three Coastal properties plus two monthly plans.
	_, err := s.Add(planner.PortfolioPlan{Portfolio: "Coastal", Month: "March 2025", Subject: "Call", DueDate: "2025-03-10"})
	require.NoError(t, err)
	for _, subject := range []string{"Email", "Site Visit"} {
		_, err := s.Add(testutil.MonthlyPlan(subject))
		require.NoError(t, err)
	}
	require.Equal(t, 5, s.Len())
}

func TestAddRequiresReferenceData(t *testing.T) {
	s := New(testutil.NewGenerator())

	_, err := s.Add(testutil.MonthlyPlan("Call"))
	assert.True(t, apperr.IsDataIntegrityError(err))
	assert.Zero(t, s.Len())
}

func TestFailedAddLeavesBatchUntouched(t *testing.T) {
	s := loadedSession(t)
	addFive(t, s)
	before := s.Tasks()

	_, err := s.Add(planner.PortfolioPlan{Portfolio: "Desert", Month: "March 2025", Subject: "Call", DueDate: "2025-03-10"})
	require.Error(t, err)

	_, err = s.Add(planner.OwnerExternal{OwnerApproval: planner.OwnerApproval{Property: model.Property{ID: "P5"}, DueDate: "2025-03-10"}})
	assert.Equal(t, apperr.ReasonNoOwnerMapped, apperr.IntegrityReasonOf(err))

	assert.Equal(t, before, s.Tasks())
}

func TestRemoveAndClear(t *testing.T) {
	s := loadedSession(t)
	addFive(t, s)
	first := s.Tasks()[0].ID

	removed, err := s.Remove(first)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Remove(first)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 4, s.Len())

	require.NoError(t, s.Clear())
	assert.Zero(t, s.Len())
}

func TestResetReferenceData(t *testing.T) {
	s := loadedSession(t)
	require.True(t, s.Loaded())

	s.ResetReferenceData()
	assert.False(t, s.Loaded())
	assert.Nil(t, s.Reference())
}

func TestDispatchSuccessClearsBatchAndJournals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	journal := testutil.NewTestStore(t)
	s := loadedSession(t, WithJournal(journal))
	addFive(t, s)
	sent := s.Tasks()

	client, err := ingest.NewClient(srv.URL)
	require.NoError(t, err)

	receipt, err := s.Dispatch(context.Background(), client)
	require.NoError(t, err)
	assert.True(t, receipt.Accepted)
	assert.False(t, receipt.Confirmed)
	assert.Equal(t, 5, receipt.Count)
	assert.Zero(t, s.Len())
	assert.False(t, s.Dispatching())

	history, err := journal.ListDispatches(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 5, history[0].TaskCount)
	assert.Equal(t, srv.URL, history[0].Endpoint)
	assert.Equal(t, model.IngestModeOptimistic, history[0].Mode)

	journaled, err := journal.GetDispatchTasks(context.Background(), history[0].ID)
	require.NoError(t, err)
	assert.Equal(t, sent, journaled)
}

func TestDispatchUnreachableKeepsBatch(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	journal := testutil.NewTestStore(t)
	s := loadedSession(t, WithJournal(journal))
	addFive(t, s)
	before := s.Tasks()

	client, err := ingest.NewClient(url)
	require.NoError(t, err)

	_, err = s.Dispatch(context.Background(), client)
	assert.True(t, apperr.IsTransportError(err))
	assert.Equal(t, before, s.Tasks())
	assert.False(t, s.Dispatching())

	history, err := journal.ListDispatches(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

// meddlingSubmitter tries to edit the batch while its Submit is running.
type meddlingSubmitter struct {
	s    *Session
	errs []error
	got  []model.PlanTask
}

func (m *meddlingSubmitter) Submit(_ context.Context, tasks []model.PlanTask) (ingest.Receipt, error) {
	m.got = tasks
	_, err := m.s.Add(testutil.MonthlyPlan("Call"))
	m.errs = append(m.errs, err)
	_, err = m.s.Remove(tasks[0].ID)
	m.errs = append(m.errs, err)
	m.errs = append(m.errs, m.s.Clear())
	_, err = m.s.BeginDispatch()
	m.errs = append(m.errs, err)
	return ingest.Receipt{}, errors.New("boom")
}

func TestMutationsRefusedWhileDispatching(t *testing.T) {
	s := loadedSession(t)
	addFive(t, s)
	before := s.Tasks()

	sub := &meddlingSubmitter{s: s}
	_, err := s.Dispatch(context.Background(), sub)
	assert.EqualError(t, err, "boom")

	for _, e := range sub.errs {
		assert.ErrorIs(t, e, ErrDispatchInFlight)
	}
	assert.Equal(t, before, sub.got)
	assert.Equal(t, before, s.Tasks())
}

func TestBeginDispatchEmptyBatch(t *testing.T) {
	s := loadedSession(t)

	_, err := s.BeginDispatch()
	assert.True(t, apperr.IsValidationError(err))
	assert.False(t, s.Dispatching())

	assert.ErrorIs(t, s.EndDispatch(context.Background(), ingest.Receipt{}, nil), ErrNotDispatching)
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	s := loadedSession(t)
	addFive(t, s)

	snap, err := s.BeginDispatch()
	require.NoError(t, err)
	snap[0].Subject = "changed"

	assert.NotEqual(t, "changed", s.Tasks()[0].Subject)
	require.NoError(t, s.EndDispatch(context.Background(), ingest.Receipt{}, errors.New("cancelled")))
	assert.Equal(t, 5, s.Len())
}
