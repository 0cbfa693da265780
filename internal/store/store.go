package store

import (
	"context"

	"github.com/nhle/planbatch/internal/model"
)

// Journal records batches after they are dispatched. It is history only;
// the batch being assembled is never stored here.
type Journal interface {
	// RecordDispatch stores d and a copy of the tasks it sent, in order.
	// A blank d.ID is filled in. The stored record is returned.
	RecordDispatch(ctx context.Context, d model.Dispatch, tasks []model.PlanTask) (model.Dispatch, error)

	// ListDispatches returns the most recent dispatches first. A limit of
	// zero or less returns all of them.
	ListDispatches(ctx context.Context, limit int) ([]model.Dispatch, error)

	// GetDispatch returns one dispatch by id, or ErrNotFound.
	GetDispatch(ctx context.Context, id string) (*model.Dispatch, error)

	// GetDispatchTasks returns the tasks sent by dispatch id in send order.
	GetDispatchTasks(ctx context.Context, id string) ([]model.PlanTask, error)

	Close() error
}
