// Package segment turns operator-authored rule trees into safe, parameterized
// filters over customer records.
package segment

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/brightsend/campaign-engine/internal/errors"
	"github.com/brightsend/campaign-engine/internal/model"
)

// MaxDepth caps rule-tree nesting to bound compiled-filter size.
const MaxDepth = 10

// CompiledFilter is the safely-evaluable form of a RuleGroup: a WHERE
// fragment with $n placeholders plus the bound values, in left-to-right rule
// order. Values are never spliced into the fragment itself. Immutable once
// built.
type CompiledFilter struct {
	where string
	args  []any
	debug string
}

// Where returns the parameterized WHERE fragment (placeholders start at $1).
func (f *CompiledFilter) Where() string { return f.where }

// Args returns the bound parameter values in placeholder order.
func (f *CompiledFilter) Args() []any { return f.args }

// Debug returns a human-readable rendering with values inlined. For logs and
// tests only, never for execution.
func (f *CompiledFilter) Debug() string { return f.debug }

// Compiler builds CompiledFilters. Zero value is not usable; call NewCompiler.
type Compiler struct {
	args       []any
	argCounter int
}

func NewCompiler() *Compiler {
	return &Compiler{args: make([]any, 0), argCounter: 1}
}

// nextArg binds a value and returns its placeholder.
func (c *Compiler) nextArg(value any) string {
	c.args = append(c.args, value)
	placeholder := fmt.Sprintf("$%d", c.argCounter)
	c.argCounter++
	return placeholder
}

// Compile validates the rule group and produces its parameterized filter.
// It fails with a ValidationError on an unknown field, an operator that is
// incompatible with the field type, a group with zero children, or nesting
// deeper than MaxDepth. Compiling an empty tree is an error, never a
// match-all shortcut.
func (c *Compiler) Compile(group model.RuleGroup) (*CompiledFilter, error) {
	c.args = make([]any, 0)
	c.argCounter = 1

	where, debug, err := c.compileGroup(group, 1)
	if err != nil {
		return nil, err
	}

	return &CompiledFilter{where: where, args: c.args, debug: debug}, nil
}

func (c *Compiler) compileGroup(group model.RuleGroup, depth int) (string, string, error) {
	if depth > MaxDepth {
		return "", "", appErrors.NewValidation("tree deeper than %d levels", MaxDepth)
	}
	if group.Operator != model.LogicAnd && group.Operator != model.LogicOr {
		return "", "", appErrors.NewValidation("unknown logic operator %q", group.Operator)
	}
	if group.ChildCount() == 0 {
		return "", "", appErrors.NewValidation("group has no children")
	}

	parts := make([]string, 0, group.ChildCount())
	debugParts := make([]string, 0, group.ChildCount())

	for _, rule := range group.Rules {
		sql, dbg, err := c.compileRule(rule)
		if err != nil {
			return "", "", err
		}
		parts = append(parts, sql)
		debugParts = append(debugParts, dbg)
	}

	for _, sub := range group.Groups {
		sql, dbg, err := c.compileGroup(sub, depth+1)
		if err != nil {
			return "", "", err
		}
		parts = append(parts, "("+sql+")")
		debugParts = append(debugParts, "("+dbg+")")
	}

	joiner := " AND "
	if group.Operator == model.LogicOr {
		joiner = " OR "
	}
	return strings.Join(parts, joiner), strings.Join(debugParts, joiner), nil
}

func (c *Compiler) compileRule(rule model.Rule) (string, string, error) {
	fieldType, ok := model.FieldCatalog[rule.Field]
	if !ok {
		return "", "", appErrors.NewValidation("unknown field %q", rule.Field)
	}

	value, err := coerceValue(rule, fieldType)
	if err != nil {
		return "", "", err
	}

	switch rule.Operator {
	case model.OpEquals:
		return fmt.Sprintf("%s = %s", rule.Field, c.nextArg(value)),
			fmt.Sprintf("%s = %v", rule.Field, value), nil
	case model.OpNotEquals:
		return fmt.Sprintf("%s != %s", rule.Field, c.nextArg(value)),
			fmt.Sprintf("%s != %v", rule.Field, value), nil
	case model.OpGt, model.OpLt, model.OpGte, model.OpLte:
		if fieldType == model.FieldString {
			return "", "", appErrors.NewValidation("operator %s not defined for string field %q", rule.Operator, rule.Field)
		}
		return fmt.Sprintf("%s %s %s", rule.Field, rule.Operator, c.nextArg(value)),
			fmt.Sprintf("%s %s %v", rule.Field, rule.Operator, value), nil
	case model.OpContains:
		if fieldType != model.FieldString {
			return "", "", appErrors.NewValidation("operator contains requires a string field, got %q (%s)", rule.Field, fieldType)
		}
		// LIKE, not ILIKE: substring match is case-sensitive. Metacharacters
		// in the value are escaped so they match literally, keeping the SQL
		// semantics identical to the in-memory evaluator's strings.Contains.
		pattern := "%" + escapeLike(value.(string)) + "%"
		return fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, rule.Field, c.nextArg(pattern)),
			fmt.Sprintf("%s contains %q", rule.Field, value), nil
	default:
		return "", "", appErrors.NewValidation("unknown operator %q", rule.Operator)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE treat %, _ and \ in a contains value literally.
func escapeLike(s string) string { return likeEscaper.Replace(s) }

// coerceValue checks that the rule value matches the field's declared type
// and converts it to the value actually bound into the query.
func coerceValue(rule model.Rule, fieldType model.FieldType) (any, error) {
	switch fieldType {
	case model.FieldString:
		s, ok := rule.Value.(string)
		if !ok {
			return nil, appErrors.NewValidation("field %q expects a string value, got %T", rule.Field, rule.Value)
		}
		return s, nil
	case model.FieldNumber:
		switch v := rule.Value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		default:
			return nil, appErrors.NewValidation("field %q expects a numeric value, got %T", rule.Field, rule.Value)
		}
	case model.FieldDate:
		s, ok := rule.Value.(string)
		if !ok {
			if t, isTime := rule.Value.(time.Time); isTime {
				return t, nil
			}
			return nil, appErrors.NewValidation("field %q expects a timestamp value, got %T", rule.Field, rule.Value)
		}
		t, err := parseTimestamp(s)
		if err != nil {
			return nil, appErrors.NewValidation("field %q: %v", rule.Field, err)
		}
		return t, nil
	default:
		return nil, appErrors.NewValidation("field %q has unsupported type %s", rule.Field, fieldType)
	}
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse %q as RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}
