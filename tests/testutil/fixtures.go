package testutil

import (
	"fmt"
	"time"

	"github.com/nhle/planbatch/internal/model"
	"github.com/nhle/planbatch/internal/planner"
)

// Today is the date tests treat as the current day.
var Today = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

// Clock returns a clock frozen at Today.
func Clock() func() time.Time {
	return func() time.Time { return Today }
}

// SequentialIDs returns an id source yielding task_1, task_2, ...
func SequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("task_%d", n)
	}
}

// NewGenerator returns a planner with a frozen clock and predictable ids.
func NewGenerator() *planner.Generator {
	return planner.New(planner.WithClock(Clock()), planner.WithIDFunc(SequentialIDs()))
}

// Reference returns a small snapshot: three users, five properties, four
// subjects, two brands and four mappings.
func Reference() *model.ReferenceData {
	return model.NewReferenceData(
		[]model.SalesPerson{{ID: "U1", Name: "Ana Lopez"}, {ID: "U2", Name: "Ben Ortiz"}, {ID: "U3", Name: "Cara Singh"}},
		[]model.Property{
			{ID: "P1", Name: "Harbor Inn"},
			{ID: "P2", Name: "Grand Plaza"},
			{ID: "P3", Name: "Lakeside Suites"},
			{ID: "P4", Name: "Summit Lodge"},
			{ID: "P5", Name: "Old Mill Hotel"},
		},
		[]string{"Call", "Site Visit", "Rate Review", "Email"},
		[]model.Portfolio{{Name: "Coastal"}, {Name: "Mountain"}},
		[]model.PropertyMapping{
			{PropertyID: "P1", OwnerUserID: "U1", Brand: "Coastal"},
			{PropertyID: "P2", OwnerUserID: "U2", Brand: "Coastal"},
			{PropertyID: "P3", OwnerUserID: "U2", Brand: "Coastal"},
			{PropertyID: "P4", OwnerUserID: "U3", Brand: "Mountain"},
		},
	)
}

// MonthlyPlan returns a valid monthly plan request for owner U1 and property P1.
func MonthlyPlan(subject string) planner.MonthlyPlan {
	return planner.MonthlyPlan{
		Owner:    model.SalesPerson{ID: "U1", Name: "Ana Lopez"},
		Property: model.Property{ID: "P1", Name: "Harbor Inn"},
		Month:    "March 2025",
		Subject:  subject,
		DueDate:  "2025-03-10",
	}
}
