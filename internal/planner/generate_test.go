package planner

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planbatch/internal/apperr"
	"github.com/nhle/planbatch/internal/model"
)

var fixedNow = time.Date(2025, time.March, 1, 9, 30, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("task_%d", n)
	}
}

func newTestGenerator() *Generator {
	return New(WithClock(func() time.Time { return fixedNow }), WithIDFunc(sequentialIDs()))
}

func testReference() *model.ReferenceData {
	return model.NewReferenceData(
		[]model.SalesPerson{{ID: "U1", Name: "Ana"}, {ID: "U2", Name: "Ben"}, {ID: "U3", Name: "Cara"}},
		[]model.Property{
			{ID: "P1", Name: "Harbor Inn"},
			{ID: "P2", Name: "Grand Plaza"},
			{ID: "P3", Name: "Lakeside"},
			{ID: "P4", Name: "Summit Lodge"},
			{ID: "P5", Name: "Old Mill"},
		},
		[]string{"Call", "Visit", "Review", "Email"},
		[]model.Portfolio{{Name: "Coastal"}, {Name: "Mountain"}},
		[]model.PropertyMapping{
			{PropertyID: "P1", OwnerUserID: "U1", Brand: "Coastal"},
			{PropertyID: "P2", OwnerUserID: "U2", Brand: "Coastal"},
			{PropertyID: "P4", OwnerUserID: "U3", Brand: "Mountain"},
			{PropertyID: "P9", OwnerUserID: "U7", Brand: "Coastal"},
		},
	)
}

func TestGenerateMonthlyPlan(t *testing.T) {
	g := newTestGenerator()

	tasks, err := g.Generate(MonthlyPlan{
		Owner:    model.SalesPerson{ID: "U1", Name: "Ana"},
		Property: model.Property{ID: "P1", Name: "Harbor Inn"},
		Month:    "March 2025",
		Subject:  "Call",
		DueDate:  "2025-03-10",
	}, testReference())
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	assert.Equal(t, model.PlanTask{
		ID:          "task_1",
		OwnerID:     "U1",
		OwnerName:   "Ana",
		TargetID:    "P1",
		TargetName:  "Harbor Inn",
		Subject:     "Call",
		Description: model.DefaultDescription,
		DueDate:     "2025-03-10",
		Month:       "March 2025",
		TaskType:    model.TaskTypeMonthlyPlan,
		Status:      model.StatusNotStarted,
	}, tasks[0])
}

func TestGenerateMonthlyPlanKeepsDescription(t *testing.T) {
	g := newTestGenerator()

	tasks, err := g.Generate(MonthlyPlan{
		Owner:       model.SalesPerson{ID: "U1", Name: "Ana"},
		Property:    model.Property{ID: "P1", Name: "Harbor Inn"},
		Month:       "March 2025",
		Subject:     "Call",
		Description: "  bring the Q2 numbers ",
		DueDate:     "2025-03-01",
	}, testReference())
	require.NoError(t, err)
	assert.Equal(t, "  bring the Q2 numbers ", tasks[0].Description)
}

func TestGenerateMissingFields(t *testing.T) {
	g := newTestGenerator()
	ref := testReference()

	tests := []struct {
		name    string
		req     Request
		missing []string
	}{
		{
			name:    "monthly plan with nothing selected",
			req:     MonthlyPlan{Description: "x"},
			missing: []string{"owner", "property", "month", "subject", "due date"},
		},
		{
			name: "monthly plan with whitespace subject",
			req: MonthlyPlan{
				Owner:    model.SalesPerson{ID: "U1"},
				Property: model.Property{ID: "P1"},
				Month:    "March 2025",
				Subject:  "   ",
				DueDate:  "2025-03-10",
			},
			missing: []string{"subject"},
		},
		{
			name:    "portfolio plan without portfolio",
			req:     PortfolioPlan{Month: "March 2025", Subject: "Call", DueDate: "2025-03-10"},
			missing: []string{"portfolio"},
		},
		{
			name:    "owner external without property",
			req:     OwnerExternal{OwnerApproval{DueDate: "2025-03-10"}},
			missing: []string{"property"},
		},
		{
			name:    "owner internal without anything",
			req:     OwnerInternal{},
			missing: []string{"property", "due date"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := g.Generate(tt.req, ref)
			require.Error(t, err)
			assert.Empty(t, tasks)

			var verr *apperr.ValidationError
			require.True(t, errors.As(err, &verr), "want ValidationError, got %T", err)
			assert.Equal(t, tt.missing, verr.Missing)
			assert.Equal(t, string(tt.req.TaskType()), verr.Subject)
		})
	}
}

func TestGenerateDueDateChecks(t *testing.T) {
	g := newTestGenerator()
	base := MonthlyPlan{
		Owner:    model.SalesPerson{ID: "U1", Name: "Ana"},
		Property: model.Property{ID: "P1", Name: "Harbor Inn"},
		Month:    "March 2025",
		Subject:  "Call",
	}

	tests := []struct {
		name    string
		dueDate string
		wantErr string
	}{
		{name: "today is allowed", dueDate: "2025-03-01"},
		{name: "future is allowed", dueDate: "2026-01-15"},
		{name: "yesterday is rejected", dueDate: "2025-02-28", wantErr: "due date 2025-02-28 is before today (2025-03-01)"},
		{name: "wrong layout is rejected", dueDate: "03/10/2025", wantErr: `invalid due date "03/10/2025": expected YYYY-MM-DD`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			req.DueDate = tt.dueDate
			tasks, err := g.Generate(req, testReference())
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Len(t, tasks, 1)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.IsValidationError(err))
			assert.Equal(t, tt.wantErr, err.Error())
			assert.Empty(t, tasks)
		})
	}
}

func TestGenerateOwnerApproval(t *testing.T) {
	g := newTestGenerator()
	ref := testReference()

	for _, req := range []Request{
		OwnerExternal{OwnerApproval{Property: model.Property{ID: "P2", Name: "Grand Plaza"}, DueDate: "2025-04-01"}},
		OwnerInternal{OwnerApproval{Property: model.Property{ID: "P2"}, DueDate: "2025-04-01", Description: "sign off"}},
	} {
		t.Run(string(req.TaskType()), func(t *testing.T) {
			tasks, err := g.Generate(req, ref)
			require.NoError(t, err)
			require.Len(t, tasks, 1)

			task := tasks[0]
			assert.Equal(t, "U2", task.OwnerID)
			assert.Equal(t, "Ben", task.OwnerName)
			assert.Equal(t, "P2", task.TargetID)
			assert.Equal(t, "Grand Plaza", task.TargetName)
			assert.Equal(t, model.OwnerApprovalSubject, task.Subject)
			assert.Empty(t, task.Month)
			assert.Empty(t, task.Portfolio)
			assert.Equal(t, req.TaskType(), task.TaskType)
			assert.Equal(t, model.StatusNotStarted, task.Status)
		})
	}
}

func TestGenerateOwnerApprovalWithoutMapping(t *testing.T) {
	g := newTestGenerator()

	tasks, err := g.Generate(OwnerExternal{OwnerApproval{
		Property: model.Property{ID: "P3", Name: "Lakeside"},
		DueDate:  "2025-04-01",
	}}, testReference())

	require.Error(t, err)
	assert.Empty(t, tasks)
	assert.Equal(t, apperr.ReasonNoOwnerMapped, apperr.IntegrityReasonOf(err))
	assert.Equal(t, "no owner mapped for property Lakeside (P3)", err.Error())
}

func TestGenerateOwnerApprovalLastMappingWins(t *testing.T) {
	g := newTestGenerator()
	ref := model.NewReferenceData(
		[]model.SalesPerson{{ID: "U1", Name: "Ana"}, {ID: "U2", Name: "Ben"}},
		[]model.Property{{ID: "P1", Name: "Harbor Inn"}},
		[]string{"Call"},
		nil,
		[]model.PropertyMapping{
			{PropertyID: "P1", OwnerUserID: "U1"},
			{PropertyID: "P1", OwnerUserID: "U2"},
		},
	)

	tasks, err := g.Generate(OwnerInternal{OwnerApproval{Property: model.Property{ID: "P1"}, DueDate: "2025-03-02"}}, ref)
	require.NoError(t, err)
	assert.Equal(t, "U2", tasks[0].OwnerID)
}

func TestGeneratePortfolioByBrand(t *testing.T) {
	g := newTestGenerator()

	tasks, err := g.Generate(PortfolioPlan{
		Portfolio: "Coastal",
		Month:     "April 2025",
		Subject:   "Visit",
		DueDate:   "2025-04-10",
	}, testReference())
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	// Source order is kept; P9/U7 are unknown and fall back to raw ids.
	assert.Equal(t, []string{"P1", "P2", "P9"}, targetIDs(tasks))
	assert.Equal(t, []string{"Harbor Inn", "Grand Plaza", "P9"}, targetNames(tasks))
	assert.Equal(t, "U7", tasks[2].OwnerName)
	for _, task := range tasks {
		assert.Equal(t, "Coastal", task.Portfolio)
		assert.Equal(t, model.TaskTypePortfolioPlan, task.TaskType)
		assert.Equal(t, "April 2025", task.Month)
		assert.Equal(t, model.DefaultDescription, task.Description)
	}
}

func TestGeneratePortfolioOrgWide(t *testing.T) {
	g := newTestGenerator()

	tasks, err := g.Generate(PortfolioPlan{
		Portfolio: "org-wide",
		Month:     "April 2025",
		Subject:   "Visit",
		DueDate:   "2025-04-10",
	}, testReference())
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	for _, task := range tasks {
		assert.Equal(t, model.OrgWidePortfolio, task.Portfolio)
	}
	assert.Equal(t, []string{"task_1", "task_2", "task_3", "task_4"}, taskIDs(tasks))
}

func TestGeneratePortfolioEmpty(t *testing.T) {
	g := newTestGenerator()

	tasks, err := g.Generate(PortfolioPlan{
		Portfolio: "Desert",
		Month:     "April 2025",
		Subject:   "Visit",
		DueDate:   "2025-04-10",
	}, testReference())
	require.Error(t, err)
	assert.Empty(t, tasks)
	assert.Equal(t, apperr.ReasonEmptyPortfolio, apperr.IntegrityReasonOf(err))
	assert.Equal(t, `no properties in portfolio "Desert"`, err.Error())
}

func TestLoadWithoutMappingsRejectsOrgWide(t *testing.T) {
	ref := model.NewReferenceData(
		[]model.SalesPerson{{ID: "U1", Name: "A"}, {ID: "U2", Name: "B"}, {ID: "U3", Name: "C"}},
		[]model.Property{{ID: "P1"}, {ID: "P2"}, {ID: "P3"}, {ID: "P4"}, {ID: "P5"}},
		[]string{"Call", "Visit", "Review", "Email"},
		nil,
		nil,
	)

	_, err := newTestGenerator().Generate(PortfolioPlan{
		Portfolio: model.OrgWidePortfolio,
		Month:     "March 2025",
		Subject:   "Call",
		DueDate:   "2025-03-10",
	}, ref)
	assert.Equal(t, apperr.ReasonEmptyPortfolio, apperr.IntegrityReasonOf(err))
}

func TestGenerateWithoutReferenceData(t *testing.T) {
	_, err := newTestGenerator().Generate(OwnerExternal{}, nil)
	assert.True(t, apperr.IsDataIntegrityError(err))
}

func TestDefaultIDsAreUnique(t *testing.T) {
	g := New(WithClock(func() time.Time { return fixedNow }))

	tasks, err := g.Generate(PortfolioPlan{
		Portfolio: model.OrgWidePortfolio,
		Month:     "March 2025",
		Subject:   "Call",
		DueDate:   "2025-03-10",
	}, testReference())
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, task := range tasks {
		assert.Regexp(t, `^task_`, task.ID)
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestSelectionRequest(t *testing.T) {
	sel := Selection{
		Owner:     model.SalesPerson{ID: "U1"},
		Property:  model.Property{ID: "P1"},
		Portfolio: "Coastal",
		Month:     "March 2025",
		Subject:   "Call",
		DueDate:   "2025-03-10",
	}

	sel.TaskType = model.TaskTypePortfolioPlan
	req, err := sel.Request()
	require.NoError(t, err)
	assert.Equal(t, PortfolioPlan{Portfolio: "Coastal", Month: "March 2025", Subject: "Call", DueDate: "2025-03-10"}, req)

	sel.TaskType = model.TaskTypeOwnerExternal
	req, err = sel.Request()
	require.NoError(t, err)
	assert.Equal(t, OwnerExternal{OwnerApproval{Property: model.Property{ID: "P1"}, DueDate: "2025-03-10"}}, req)

	sel.TaskType = ""
	_, err = sel.Request()
	assert.True(t, apperr.IsValidationError(err))

	sel.TaskType = "Weekly Plan"
	_, err = sel.Request()
	assert.EqualError(t, err, `unknown task type "Weekly Plan"`)
}

func TestRequirementsPolicy(t *testing.T) {
	assert.Equal(t, []Field{FieldOwner, FieldProperty, FieldMonth, FieldSubject, FieldDueDate},
		Requirements(model.TaskTypeMonthlyPlan))
	assert.Equal(t, []Field{FieldProperty, FieldDueDate, FieldDescription},
		Inputs(model.TaskTypeOwnerInternal))
	assert.True(t, Requires(model.TaskTypePortfolioPlan, FieldPortfolio))
	assert.False(t, Requires(model.TaskTypeOwnerExternal, FieldSubject))
	assert.Nil(t, Inputs("Weekly Plan"))

	// Callers get a copy.
	r := Requirements(model.TaskTypeOwnerExternal)
	r[0] = FieldSubject
	assert.Equal(t, FieldProperty, Requirements(model.TaskTypeOwnerExternal)[0])
}

func taskIDs(tasks []model.PlanTask) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func targetIDs(tasks []model.PlanTask) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.TargetID
	}
	return out
}

func targetNames(tasks []model.PlanTask) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.TargetName
	}
	return out
}

func TestTodayUsesClockLocation(t *testing.T) {
	west := time.FixedZone("UTC-5", -5*60*60)
	east := time.FixedZone("UTC+9", 9*60*60)

	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Today(time.Date(2025, 3, 1, 21, 0, 0, 0, west)))
	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		Today(time.Date(2025, 3, 2, 1, 0, 0, 0, east)))
}
