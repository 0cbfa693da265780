// Package batch holds the ordered, in-memory collection of generated tasks
// waiting to be dispatched.
package batch

import "github.com/nhle/planbatch/internal/model"

// Store is an ordered list of plan tasks, oldest first. It is owned by a
// single goroutine and does no locking.
type Store struct {
	tasks []model.PlanTask
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Append adds tasks to the end in the given order.
func (s *Store) Append(tasks ...model.PlanTask) {
	s.tasks = append(s.tasks, tasks...)
}

// Remove deletes the task with id. It reports whether a task was removed;
// removing an absent id is not an error.
func (s *Store) Remove(id string) bool {
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the store.
func (s *Store) Clear() {
	s.tasks = nil
}

// List returns a copy of the tasks in arrival order.
func (s *Store) List() []model.PlanTask {
	return append([]model.PlanTask(nil), s.tasks...)
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	return len(s.tasks)
}

// Get returns the task with id.
func (s *Store) Get(id string) (model.PlanTask, bool) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.PlanTask{}, false
}
