// Package filter implements the boolean filter DSL evaluated against point
// payloads. Expressions compose with And/Or and compare top-level payload
// keys with Eq/Ne only; payload fields are opaque tags, not typed columns,
// which keeps the evaluator small and fully enumerable for testing.
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vimo-cloud/ragstore/internal/domain"
)

// Op is a comparison operator.
type Op string

const (
	// Eq matches payload values structurally equal to the filter value.
	Eq Op = "$eq"
	// Ne matches payload values structurally different from the filter value.
	Ne Op = "$ne"
)

// Expression is a node of the filter tree.
type Expression interface {
	// Matches evaluates the expression against a point payload.
	Matches(payload map[string]any) (bool, error)
	// Validate checks the expression is structurally sound without evaluating it.
	Validate() error
}

// And is true when every child matches. An empty And is vacuously true.
type And []Expression

// Matches implements Expression.
func (a And) Matches(payload map[string]any) (bool, error) {
	for _, e := range a {
		ok, err := e.Matches(payload)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Validate implements Expression.
func (a And) Validate() error {
	for _, e := range a {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Or is true when at least one child matches. An empty Or is vacuously false.
type Or []Expression

// Matches implements Expression.
func (o Or) Matches(payload map[string]any) (bool, error) {
	for _, e := range o {
		ok, err := e.Matches(payload)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Validate implements Expression.
func (o Or) Validate() error {
	for _, e := range o {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Compare tests the payload value at a top-level key against a string value.
// A missing key matches neither Eq nor Ne (SQL NULL comparison semantics).
type Compare struct {
	Field string
	Op    Op
	Value string
}

// Matches implements Expression.
func (c Compare) Matches(payload map[string]any) (bool, error) {
	if err := c.Validate(); err != nil {
		return false, err
	}

	v, ok := payload[c.Field]
	if !ok {
		return false, nil
	}

	got, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("marshal payload value %q: %w", c.Field, err)
	}
	want, err := json.Marshal(c.Value)
	if err != nil {
		return false, fmt.Errorf("marshal filter value: %w", err)
	}

	equal := bytes.Equal(got, want)
	if c.Op == Eq {
		return equal, nil
	}
	return !equal, nil
}

// Validate implements Expression.
func (c Compare) Validate() error {
	if c.Field == "" {
		return fmt.Errorf("%w: compare field is required", domain.ErrInvalidFilter)
	}
	if c.Op != Eq && c.Op != Ne {
		return fmt.Errorf("%w: unsupported operator %q", domain.ErrInvalidFilter, c.Op)
	}
	return nil
}
