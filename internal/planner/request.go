package planner

import (
	"fmt"

	"github.com/nhle/planbatch/internal/apperr"
	"github.com/nhle/planbatch/internal/model"
)

// Request is one of MonthlyPlan, PortfolioPlan, OwnerExternal or
// OwnerInternal. Each variant carries only the inputs its rule reads.
type Request interface {
	TaskType() model.TaskType
	request()
}

// MonthlyPlan produces one task for a chosen owner and property.
type MonthlyPlan struct {
	Owner       model.SalesPerson
	Property    model.Property
	Month       string
	Subject     string
	Description string
	DueDate     string
}

// PortfolioPlan fans out into one task per property mapped to Portfolio.
type PortfolioPlan struct {
	Portfolio   string
	Month       string
	Subject     string
	Description string
	DueDate     string
}

// OwnerApproval holds the inputs shared by the owner task variants. The
// owner and subject are not inputs; they are derived.
type OwnerApproval struct {
	Property    model.Property
	Description string
	DueDate     string
}

// OwnerExternal is an owner approval task facing the property owner.
type OwnerExternal struct{ OwnerApproval }

// OwnerInternal is an owner approval task handled internally.
type OwnerInternal struct{ OwnerApproval }

func (MonthlyPlan) TaskType() model.TaskType   { return model.TaskTypeMonthlyPlan }
func (PortfolioPlan) TaskType() model.TaskType { return model.TaskTypePortfolioPlan }
func (OwnerExternal) TaskType() model.TaskType { return model.TaskTypeOwnerExternal }
func (OwnerInternal) TaskType() model.TaskType { return model.TaskTypeOwnerInternal }

func (MonthlyPlan) request()   {}
func (PortfolioPlan) request() {}
func (OwnerExternal) request() {}
func (OwnerInternal) request() {}

// Selection is the flat set of choices the presentation layer collects.
// Request narrows it to the variant for TaskType, dropping inputs that
// type does not use.
type Selection struct {
	TaskType    model.TaskType
	Owner       model.SalesPerson
	Property    model.Property
	Portfolio   string
	Month       string
	Subject     string
	Description string
	DueDate     string
}

// Request converts the selection into its typed request.
func (s Selection) Request() (Request, error) {
	switch s.TaskType {
	case model.TaskTypeMonthlyPlan:
		return MonthlyPlan{
			Owner:       s.Owner,
			Property:    s.Property,
			Month:       s.Month,
			Subject:     s.Subject,
			Description: s.Description,
			DueDate:     s.DueDate,
		}, nil
	case model.TaskTypePortfolioPlan:
		return PortfolioPlan{
			Portfolio:   s.Portfolio,
			Month:       s.Month,
			Subject:     s.Subject,
			Description: s.Description,
			DueDate:     s.DueDate,
		}, nil
	case model.TaskTypeOwnerExternal:
		return OwnerExternal{s.ownerApproval()}, nil
	case model.TaskTypeOwnerInternal:
		return OwnerInternal{s.ownerApproval()}, nil
	case "":
		return nil, &apperr.ValidationError{Missing: []string{"task type"}}
	default:
		return nil, &apperr.ValidationError{
			Message: fmt.Sprintf("unknown task type %q", s.TaskType),
		}
	}
}

func (s Selection) ownerApproval() OwnerApproval {
	return OwnerApproval{
		Property:    s.Property,
		Description: s.Description,
		DueDate:     s.DueDate,
	}
}
