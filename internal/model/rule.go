// internal/model/rule.go
package model

// Operator is a comparison operator usable inside a segment rule.
type Operator string

const (
	OpEquals    Operator = "="
	OpNotEquals Operator = "!="
	OpGt        Operator = ">"
	OpLt        Operator = "<"
	OpGte       Operator = ">="
	OpLte       Operator = "<="
	OpContains  Operator = "contains"
)

// FieldType is the declared type of a filterable customer attribute.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
)

// FieldCatalog maps every filterable customer attribute to its column type.
// Unknown fields are rejected at compile time.
var FieldCatalog = map[string]FieldType{
	"name":           FieldString,
	"email":          FieldString,
	"total_spend":    FieldNumber,
	"visits":         FieldNumber,
	"last_active_at": FieldDate,
}

// LogicOperator combines the children of a rule group.
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// Rule is a single field/operator/value comparison. Value decodes from JSON
// as string or float64 and must match the field's declared type.
type Rule struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// RuleGroup is a recursively composable AND/OR combination of rules and
// nested groups. Children evaluate rules first, then nested groups; within
// each list the authored order is preserved, so compiled and debug output
// are deterministic. A group is a tree by construction; it is never mutated
// after creation.
type RuleGroup struct {
	Operator LogicOperator `json:"operator"`
	Rules    []Rule        `json:"rules,omitempty"`
	Groups   []RuleGroup   `json:"groups,omitempty"`
}

// ChildCount returns the number of direct children (rules plus groups).
func (g RuleGroup) ChildCount() int {
	return len(g.Rules) + len(g.Groups)
}
