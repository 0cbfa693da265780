package planner

import "github.com/nhle/planbatch/internal/model"

// Field names an input of the plan form. The string value is what error
// messages and form labels use.
type Field string

const (
	FieldOwner       Field = "owner"
	FieldProperty    Field = "property"
	FieldPortfolio   Field = "portfolio"
	FieldMonth       Field = "month"
	FieldSubject     Field = "subject"
	FieldDueDate     Field = "due date"
	FieldDescription Field = "description"
)

var requirements = map[model.TaskType][]Field{
	model.TaskTypeMonthlyPlan:   {FieldOwner, FieldProperty, FieldMonth, FieldSubject, FieldDueDate},
	model.TaskTypePortfolioPlan: {FieldPortfolio, FieldMonth, FieldSubject, FieldDueDate},
	model.TaskTypeOwnerExternal: {FieldProperty, FieldDueDate},
	model.TaskTypeOwnerInternal: {FieldProperty, FieldDueDate},
}

// Requirements returns the fields that must be present for tt, in form
// order. Unknown task types have no requirements.
func Requirements(tt model.TaskType) []Field {
	return append([]Field(nil), requirements[tt]...)
}

// Inputs returns every field the form shows for tt: the required ones
// followed by the optional description.
func Inputs(tt model.TaskType) []Field {
	req, ok := requirements[tt]
	if !ok {
		return nil
	}
	return append(append([]Field(nil), req...), FieldDescription)
}

// Requires reports whether f is mandatory for tt.
func Requires(tt model.TaskType, f Field) bool {
	for _, r := range requirements[tt] {
		if r == f {
			return true
		}
	}
	return false
}
