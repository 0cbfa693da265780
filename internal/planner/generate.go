// Package planner turns a task-type request plus reference data into plan
// tasks. It performs no I/O.
package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/planbatch/internal/apperr"
	"github.com/nhle/planbatch/internal/model"
)

// Generator produces plan tasks. The zero value is not usable; call New.
type Generator struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the source of "today" for due-date checks.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithIDFunc sets the task id source. It must not repeat within a session.
func WithIDFunc(newID func() string) Option {
	return func(g *Generator) { g.newID = newID }
}

// New returns a Generator using the wall clock and random task ids.
func New(opts ...Option) *Generator {
	g := &Generator{
		now:   time.Now,
		newID: func() string { return "task_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate validates req and builds its tasks. It returns either at least
// one task or an error, never both.
func (g *Generator) Generate(req Request, ref *model.ReferenceData) ([]model.PlanTask, error) {
	if req == nil {
		return nil, &apperr.ValidationError{Missing: []string{"task type"}}
	}
	if ref == nil {
		return nil, &apperr.DataIntegrityError{
			Reason:  apperr.ReasonEmptyCollection,
			Entity:  "reference data",
			Message: "reference data is not loaded",
		}
	}

	switch r := req.(type) {
	case MonthlyPlan:
		return g.monthly(r)
	case PortfolioPlan:
		return g.portfolio(r, ref)
	case OwnerExternal:
		return g.ownerApproval(r.TaskType(), r.OwnerApproval, ref)
	case OwnerInternal:
		return g.ownerApproval(r.TaskType(), r.OwnerApproval, ref)
	default:
		return nil, &apperr.ValidationError{
			Message: fmt.Sprintf("unsupported request type %T", req),
		}
	}
}

func (g *Generator) monthly(r MonthlyPlan) ([]model.PlanTask, error) {
	err := g.check(r.TaskType(), map[Field]string{
		FieldOwner:    r.Owner.ID,
		FieldProperty: r.Property.ID,
		FieldMonth:    r.Month,
		FieldSubject:  r.Subject,
		FieldDueDate:  r.DueDate,
	}, r.DueDate)
	if err != nil {
		return nil, err
	}

	return []model.PlanTask{{
		ID:          g.newID(),
		OwnerID:     r.Owner.ID,
		OwnerName:   r.Owner.Name,
		TargetID:    r.Property.ID,
		TargetName:  r.Property.Name,
		Subject:     r.Subject,
		Description: description(r.Description),
		DueDate:     r.DueDate,
		Month:       r.Month,
		TaskType:    r.TaskType(),
		Status:      model.StatusNotStarted,
	}}, nil
}

func (g *Generator) portfolio(r PortfolioPlan, ref *model.ReferenceData) ([]model.PlanTask, error) {
	err := g.check(r.TaskType(), map[Field]string{
		FieldPortfolio: r.Portfolio,
		FieldMonth:     r.Month,
		FieldSubject:   r.Subject,
		FieldDueDate:   r.DueDate,
	}, r.DueDate)
	if err != nil {
		return nil, err
	}

	label := strings.TrimSpace(r.Portfolio)
	if model.IsOrgWide(label) {
		label = model.OrgWidePortfolio
	}

	mappings := ref.MappingsForPortfolio(label)
	if len(mappings) == 0 {
		return nil, &apperr.DataIntegrityError{Reason: apperr.ReasonEmptyPortfolio, Entity: label}
	}

	desc := description(r.Description)
	tasks := make([]model.PlanTask, 0, len(mappings))
	for _, m := range mappings {
		tasks = append(tasks, model.PlanTask{
			ID:          g.newID(),
			OwnerID:     m.OwnerUserID,
			OwnerName:   userName(ref, m.OwnerUserID),
			TargetID:    m.PropertyID,
			TargetName:  propertyName(ref, model.Property{ID: m.PropertyID}),
			Subject:     r.Subject,
			Description: desc,
			DueDate:     r.DueDate,
			Month:       r.Month,
			TaskType:    r.TaskType(),
			Status:      model.StatusNotStarted,
			Portfolio:   label,
		})
	}
	return tasks, nil
}

func (g *Generator) ownerApproval(tt model.TaskType, r OwnerApproval, ref *model.ReferenceData) ([]model.PlanTask, error) {
	err := g.check(tt, map[Field]string{
		FieldProperty: r.Property.ID,
		FieldDueDate:  r.DueDate,
	}, r.DueDate)
	if err != nil {
		return nil, err
	}

	m, ok := ref.OwnerMapping(r.Property.ID)
	if !ok || strings.TrimSpace(m.OwnerUserID) == "" {
		return nil, &apperr.DataIntegrityError{
			Reason: apperr.ReasonNoOwnerMapped,
			Entity: propertyLabel(ref, r.Property),
		}
	}

	return []model.PlanTask{{
		ID:          g.newID(),
		OwnerID:     m.OwnerUserID,
		OwnerName:   userName(ref, m.OwnerUserID),
		TargetID:    r.Property.ID,
		TargetName:  propertyName(ref, r.Property),
		Subject:     model.OwnerApprovalSubject,
		Description: description(r.Description),
		DueDate:     r.DueDate,
		TaskType:    tt,
		Status:      model.StatusNotStarted,
	}}, nil
}

// check reports every required field of tt that is blank in values, then
// validates the due date. Missing fields are listed in policy order.
func (g *Generator) check(tt model.TaskType, values map[Field]string, dueDate string) error {
	var missing []string
	for _, f := range requirements[tt] {
		if strings.TrimSpace(values[f]) == "" {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return &apperr.ValidationError{Subject: string(tt), Missing: missing}
	}
	return g.checkDueDate(tt, dueDate)
}

// Today returns the calendar date of now, in now's own location, as
// midnight UTC so it compares directly with parsed due dates.
func Today(now time.Time) time.Time {
	y, mo, d := now.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func (g *Generator) checkDueDate(tt model.TaskType, dueDate string) error {
	due, err := time.Parse(model.DueDateLayout, strings.TrimSpace(dueDate))
	if err != nil {
		return &apperr.ValidationError{
			Subject: string(tt),
			Message: fmt.Sprintf("invalid due date %q: expected YYYY-MM-DD", dueDate),
		}
	}
	today := Today(g.now())
	if due.Before(today) {
		return &apperr.ValidationError{
			Subject: string(tt),
			Message: fmt.Sprintf("due date %s is before today (%s)", dueDate, today.Format(model.DueDateLayout)),
		}
	}
	return nil
}

func description(s string) string {
	if strings.TrimSpace(s) == "" {
		return model.DefaultDescription
	}
	return s
}

func userName(ref *model.ReferenceData, id string) string {
	if u, ok := ref.User(id); ok && u.Name != "" {
		return u.Name
	}
	return id
}

// propertyName prefers the name carried by the selection, then the
// reference data, then the raw id.
func propertyName(ref *model.ReferenceData, p model.Property) string {
	if p.Name != "" {
		return p.Name
	}
	if rp, ok := ref.Property(p.ID); ok && rp.Name != "" {
		return rp.Name
	}
	return p.ID
}

func propertyLabel(ref *model.ReferenceData, p model.Property) string {
	name := propertyName(ref, p)
	if name == p.ID {
		return p.ID
	}
	return fmt.Sprintf("%s (%s)", name, p.ID)
}
