package planner

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/nhle/planbatch/internal/apperr"
	"github.com/nhle/planbatch/internal/model"
)

func genWord(t *rapid.T, label string) string {
	return rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,15}`).Draw(t, label)
}

func genDueDate(t *rapid.T) string {
	offset := rapid.IntRange(0, 800).Draw(t, "dueOffset")
	return fixedNow.AddDate(0, 0, offset).Format(model.DueDateLayout)
}

var brands = []string{"Coastal", "Mountain", "Urban"}

// genReference builds reference data with between 0 and 12 mappings spread
// over a few brands. Some mappings point at unknown users or properties.
func genReference(t *rapid.T) *model.ReferenceData {
	nUsers := rapid.IntRange(1, 5).Draw(t, "nUsers")
	users := make([]model.SalesPerson, nUsers)
	for i := range users {
		users[i] = model.SalesPerson{ID: fmt.Sprintf("U%d", i), Name: genWord(t, "userName")}
	}
	nProps := rapid.IntRange(1, 8).Draw(t, "nProps")
	props := make([]model.Property, nProps)
	for i := range props {
		props[i] = model.Property{ID: fmt.Sprintf("P%d", i), Name: genWord(t, "propName")}
	}

	nMappings := rapid.IntRange(0, 12).Draw(t, "nMappings")
	mappings := make([]model.PropertyMapping, nMappings)
	for i := range mappings {
		mappings[i] = model.PropertyMapping{
			PropertyID:  fmt.Sprintf("P%d", rapid.IntRange(0, nProps+1).Draw(t, "mapProp")),
			OwnerUserID: fmt.Sprintf("U%d", rapid.IntRange(0, nUsers+1).Draw(t, "mapOwner")),
			Brand:       rapid.SampledFrom(append([]string{""}, brands...)).Draw(t, "brand"),
		}
	}
	return model.NewReferenceData(users, props, []string{"Call"}, nil, mappings)
}

func propertyGenerator(t *rapid.T) *Generator {
	return New(WithClock(func() time.Time { return fixedNow }), WithIDFunc(sequentialIDs()))
}

func TestMonthlyPlanCopiesInputsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		req := MonthlyPlan{
			Owner:       model.SalesPerson{ID: genWord(t, "ownerID"), Name: genWord(t, "ownerName")},
			Property:    model.Property{ID: genWord(t, "propID"), Name: genWord(t, "propName")},
			Month:       genWord(t, "month"),
			Subject:     genWord(t, "subject"),
			Description: rapid.SampledFrom([]string{"", "  ", "\t", "notes", " keep spacing "}).Draw(t, "desc"),
			DueDate:     genDueDate(t),
		}

		tasks, err := propertyGenerator(t).Generate(req, genReference(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tasks) != 1 {
			t.Fatalf("got %d tasks, want 1", len(tasks))
		}
		task := tasks[0]
		got := []string{task.OwnerID, task.OwnerName, task.TargetID, task.TargetName, task.Subject, task.DueDate, task.Month}
		want := []string{req.Owner.ID, req.Owner.Name, req.Property.ID, req.Property.Name, req.Subject, req.DueDate, req.Month}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("field %d = %q, want %q", i, got[i], want[i])
			}
		}

		blank := strings.TrimSpace(req.Description) == ""
		if blank && task.Description != model.DefaultDescription {
			t.Fatalf("blank description became %q", task.Description)
		}
		if !blank && task.Description != req.Description {
			t.Fatalf("description = %q, want %q", task.Description, req.Description)
		}
		if task.Status != model.StatusNotStarted || task.TaskType != model.TaskTypeMonthlyPlan {
			t.Fatalf("unexpected status/type %q/%q", task.Status, task.TaskType)
		}
	})
}

func TestOwnerTaskWithoutMappingFailsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ref := genReference(t)
		mapped := map[string]bool{}
		for _, m := range ref.Mappings() {
			mapped[m.PropertyID] = true
		}
		propID := fmt.Sprintf("P%d", rapid.IntRange(0, 20).Draw(t, "propID"))

		approval := OwnerApproval{Property: model.Property{ID: propID}, DueDate: genDueDate(t)}
		req := rapid.SampledFrom([]Request{OwnerExternal{approval}, OwnerInternal{approval}}).Draw(t, "req")

		tasks, err := propertyGenerator(t).Generate(req, ref)
		if mapped[propID] {
			if err != nil || len(tasks) != 1 {
				t.Fatalf("mapped property %s: tasks=%d err=%v", propID, len(tasks), err)
			}
			if tasks[0].Subject != model.OwnerApprovalSubject {
				t.Fatalf("subject = %q", tasks[0].Subject)
			}
			return
		}
		if apperr.IntegrityReasonOf(err) != apperr.ReasonNoOwnerMapped {
			t.Fatalf("unmapped property %s: want no-owner error, got %v", propID, err)
		}
		if len(tasks) != 0 {
			t.Fatalf("unmapped property produced %d tasks", len(tasks))
		}
	})
}

func TestPortfolioFanOutProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ref := genReference(t)
		portfolio := rapid.SampledFrom(append([]string{model.OrgWidePortfolio, "ORG-WIDE"}, brands...)).Draw(t, "portfolio")

		want := 0
		for _, m := range ref.Mappings() {
			if model.IsOrgWide(portfolio) || m.Brand == portfolio {
				want++
			}
		}

		tasks, err := propertyGenerator(t).Generate(PortfolioPlan{
			Portfolio: portfolio,
			Month:     "March 2025",
			Subject:   "Call",
			DueDate:   genDueDate(t),
		}, ref)

		if want == 0 {
			if apperr.IntegrityReasonOf(err) != apperr.ReasonEmptyPortfolio {
				t.Fatalf("want empty-portfolio error, got %v", err)
			}
			return
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tasks) != want {
			t.Fatalf("got %d tasks, want %d", len(tasks), want)
		}

		label := portfolio
		if model.IsOrgWide(portfolio) {
			label = model.OrgWidePortfolio
		}
		ids := map[string]bool{}
		for _, task := range tasks {
			if task.Portfolio != label {
				t.Fatalf("portfolio = %q, want %q", task.Portfolio, label)
			}
			if task.OwnerName == "" || task.TargetName == "" {
				t.Fatalf("empty display name in %+v", task)
			}
			if ids[task.ID] {
				t.Fatalf("duplicate id %s", task.ID)
			}
			ids[task.ID] = true
		}
	})
}
