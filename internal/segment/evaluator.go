package segment

import (
	"strings"
	"time"

	appErrors "github.com/brightsend/campaign-engine/internal/errors"
	"github.com/brightsend/campaign-engine/internal/model"
)

// Evaluate checks a single customer against a rule group in memory, with the
// same operator semantics the compiled filter has in SQL. Useful for
// real-time match checks without a round trip to the store.
func Evaluate(group model.RuleGroup, customer model.Customer) (bool, error) {
	return evaluateGroup(group, customer, 1)
}

func evaluateGroup(group model.RuleGroup, customer model.Customer, depth int) (bool, error) {
	if depth > MaxDepth {
		return false, appErrors.NewValidation("tree deeper than %d levels", MaxDepth)
	}
	if group.ChildCount() == 0 {
		return false, appErrors.NewValidation("group has no children")
	}

	results := make([]bool, 0, group.ChildCount())
	for _, rule := range group.Rules {
		ok, err := evaluateRule(rule, customer)
		if err != nil {
			return false, err
		}
		results = append(results, ok)
	}
	for _, sub := range group.Groups {
		ok, err := evaluateGroup(sub, customer, depth+1)
		if err != nil {
			return false, err
		}
		results = append(results, ok)
	}

	switch group.Operator {
	case model.LogicAnd:
		for _, r := range results {
			if !r {
				return false, nil
			}
		}
		return true, nil
	case model.LogicOr:
		for _, r := range results {
			if r {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, appErrors.NewValidation("unknown logic operator %q", group.Operator)
	}
}

func evaluateRule(rule model.Rule, customer model.Customer) (bool, error) {
	fieldType, ok := model.FieldCatalog[rule.Field]
	if !ok {
		return false, appErrors.NewValidation("unknown field %q", rule.Field)
	}
	value, err := coerceValue(rule, fieldType)
	if err != nil {
		return false, err
	}

	switch fieldType {
	case model.FieldString:
		return compareString(stringField(rule.Field, customer), rule.Operator, value.(string))
	case model.FieldNumber:
		return compareNumber(numberField(rule.Field, customer), rule.Operator, value.(float64))
	case model.FieldDate:
		return compareTime(customer.LastActiveAt, rule.Operator, value.(time.Time))
	}
	return false, appErrors.NewValidation("field %q has unsupported type %s", rule.Field, fieldType)
}

func stringField(field string, c model.Customer) string {
	switch field {
	case "name":
		return c.Name
	case "email":
		return c.Email
	}
	return ""
}

func numberField(field string, c model.Customer) float64 {
	switch field {
	case "total_spend":
		return c.TotalSpend
	case "visits":
		return float64(c.Visits)
	}
	return 0
}

func compareString(have string, op model.Operator, want string) (bool, error) {
	switch op {
	case model.OpEquals:
		return have == want, nil
	case model.OpNotEquals:
		return have != want, nil
	case model.OpContains:
		return strings.Contains(have, want), nil
	}
	return false, appErrors.NewValidation("operator %s not defined for string fields", op)
}

func compareNumber(have float64, op model.Operator, want float64) (bool, error) {
	switch op {
	case model.OpEquals:
		return have == want, nil
	case model.OpNotEquals:
		return have != want, nil
	case model.OpGt:
		return have > want, nil
	case model.OpLt:
		return have < want, nil
	case model.OpGte:
		return have >= want, nil
	case model.OpLte:
		return have <= want, nil
	}
	return false, appErrors.NewValidation("operator %s not defined for numeric fields", op)
}

func compareTime(have time.Time, op model.Operator, want time.Time) (bool, error) {
	switch op {
	case model.OpEquals:
		return have.Equal(want), nil
	case model.OpNotEquals:
		return !have.Equal(want), nil
	case model.OpGt:
		return have.After(want), nil
	case model.OpLt:
		return have.Before(want), nil
	case model.OpGte:
		return !have.Before(want), nil
	case model.OpLte:
		return !have.After(want), nil
	}
	return false, appErrors.NewValidation("operator %s not defined for date fields", op)
}
