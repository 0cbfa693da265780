package model

import "time"

// Dispatch is the journal entry for one batch handed to the ingestion
// endpoint. Confirmed is false for optimistic dispatches, whose arrival
// was never observed.
type Dispatch struct {
	ID           string    `db:"id" json:"id"`
	DispatchedAt time.Time `db:"dispatched_at" json:"dispatched_at"`
	Endpoint     string    `db:"endpoint" json:"endpoint"`
	Mode         string    `db:"mode" json:"mode"`
	TaskCount    int       `db:"task_count" json:"task_count"`
	Confirmed    bool      `db:"confirmed" json:"confirmed"`
	RowsAdded    int       `db:"rows_added" json:"rows_added"`
	Message      string    `db:"message" json:"message"`
}
