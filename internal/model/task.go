package model

import "strings"

// TaskType selects which generation rule produces a plan task and which
// inputs the form asks for.
type TaskType string

const (
	TaskTypeMonthlyPlan   TaskType = "Monthly Plan"
	TaskTypePortfolioPlan TaskType = "Portfolio Plan"
	TaskTypeOwnerExternal TaskType = "Owner External"
	TaskTypeOwnerInternal TaskType = "Owner Internal"
)

// AllTaskTypes lists every task type in menu order.
var AllTaskTypes = []TaskType{
	TaskTypeMonthlyPlan,
	TaskTypePortfolioPlan,
	TaskTypeOwnerExternal,
	TaskTypeOwnerInternal,
}

// ParseTaskType resolves a wire value (case-insensitive) to a TaskType.
func ParseTaskType(s string) (TaskType, bool) {
	s = strings.TrimSpace(s)
	for _, tt := range AllTaskTypes {
		if strings.EqualFold(string(tt), s) {
			return tt, true
		}
	}
	return "", false
}

// IsOwnerTask reports whether the owner is derived from the property mapping
// instead of being chosen by the user.
func (t TaskType) IsOwnerTask() bool {
	return t == TaskTypeOwnerExternal || t == TaskTypeOwnerInternal
}

const (
	// StatusNotStarted is the only status a task is created with.
	StatusNotStarted = "Not Started"

	// OwnerApprovalSubject is forced on owner external/internal tasks.
	OwnerApprovalSubject = "Owner Account Management/Owner Approval"

	// DefaultDescription replaces a blank description.
	DefaultDescription = "No description provided"

	// DueDateLayout is the calendar date format used on the wire.
	DueDateLayout = "2006-01-02"
)

// PlanTask is a single task record queued for upload. The JSON names match
// what the ingestion endpoint reads (whatId/whatName for the related record).
type PlanTask struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"ownerId"`
	OwnerName   string   `json:"ownerName"`
	TargetID    string   `json:"whatId"`
	TargetName  string   `json:"whatName"`
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	DueDate     string   `json:"dueDate"`
	Month       string   `json:"month"`
	TaskType    TaskType `json:"taskType"`
	Status      string   `json:"status"`

	// Portfolio is set only on tasks fanned out from a portfolio plan.
	Portfolio string `json:"portfolio,omitempty"`
}
