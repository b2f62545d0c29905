package filter

import (
	"fmt"

	"github.com/vimo-cloud/ragstore/internal/domain"
)

// Parse builds a typed Expression from the wire form:
//
//	{"$and": [expr, ...]}
//	{"$or":  [expr, ...]}
//	{"field": {"$eq": "value"}}
//
// The tree is parsed once up front so malformed filters fail before any
// query work starts.
func Parse(raw map[string]any) (Expression, error) {
	if len(raw) != 1 {
		return nil, fmt.Errorf("%w: filter object must have exactly one key, got %d", domain.ErrInvalidFilter, len(raw))
	}

	for key, value := range raw {
		switch key {
		case "$and":
			children, err := parseChildren(key, value)
			if err != nil {
				return nil, err
			}
			return And(children), nil
		case "$or":
			children, err := parseChildren(key, value)
			if err != nil {
				return nil, err
			}
			return Or(children), nil
		default:
			return parseCompare(key, value)
		}
	}

	return nil, fmt.Errorf("%w: empty filter", domain.ErrInvalidFilter)
}

func parseChildren(key string, value any) ([]Expression, error) {
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects a list of expressions", domain.ErrInvalidFilter, key)
	}

	children := make([]Expression, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is not a filter object", domain.ErrInvalidFilter, key, i)
		}
		child, err := Parse(m)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func parseCompare(field string, value any) (Expression, error) {
	cond, ok := value.(map[string]any)
	if !ok || len(cond) != 1 {
		return nil, fmt.Errorf("%w: field %q expects a single {op: value} object", domain.ErrInvalidFilter, field)
	}

	for op, operand := range cond {
		if op != string(Eq) && op != string(Ne) {
			return nil, fmt.Errorf("%w: unsupported operator %q", domain.ErrInvalidFilter, op)
		}
		s, ok := operand.(string)
		if !ok {
			return nil, fmt.Errorf("%w: filter value for %q must be a string", domain.ErrInvalidFilter, field)
		}
		return Compare{Field: field, Op: Op(op), Value: s}, nil
	}

	return nil, fmt.Errorf("%w: empty condition for field %q", domain.ErrInvalidFilter, field)
}
