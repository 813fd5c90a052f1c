package model

import (
	"errors"
	"fmt"
)

// ConditionOp is the operator of one applicability condition node.
type ConditionOp string

// Condition operators. Leaf operators compare a profile field against a
// value; composite operators combine child conditions.
const (
	OpAll ConditionOp = ""    // zero condition matches every profile
	OpEq  ConditionOp = "eq"
	OpNe  ConditionOp = "ne"
	OpIn  ConditionOp = "in"
	OpAnd ConditionOp = "and"
	OpOr  ConditionOp = "or"
	OpNot ConditionOp = "not"
)

// Condition validation/evaluation errors.
var (
	ErrConditionBadOp       = errors.New("condition has an unknown operator")
	ErrConditionNoField     = errors.New("leaf condition is missing a field")
	ErrConditionNoChildren  = errors.New("composite condition has no children")
	ErrConditionBadField    = errors.New("condition references an unknown profile field")
)

// Condition is a serializable predicate over a client profile. Conditions
// are stored alongside rules, so they must stay enumerable data rather than
// code: a small tree of field comparisons joined by and/or/not.
type Condition struct {
	Op       ConditionOp `json:"op,omitempty"`
	Field    string      `json:"field,omitempty"`
	Value    string      `json:"value,omitempty"`
	Values   []string    `json:"values,omitempty"`
	Children []Condition `json:"children,omitempty"`
}

// Validate checks the condition tree for structural errors.
func (c Condition) Validate() error {
	switch c.Op {
	case OpAll:
		return nil
	case OpEq, OpNe, OpIn:
		if c.Field == "" {
			return ErrConditionNoField
		}
		return nil
	case OpAnd, OpOr, OpNot:
		if len(c.Children) == 0 {
			return fmt.Errorf("%w: %s", ErrConditionNoChildren, c.Op)
		}
		for _, child := range c.Children {
			if err := child.Validate(); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrConditionBadOp, c.Op)
	}
}

// Evaluate applies the condition to a client profile.
func (c Condition) Evaluate(profile ClientProfile) (bool, error) {
	switch c.Op {
	case OpAll:
		return true, nil
	case OpEq, OpNe, OpIn:
		value, err := profile.Field(c.Field)
		if err != nil {
			return false, err
		}
		switch c.Op {
		case OpEq:
			return value == c.Value, nil
		case OpNe:
			return value != c.Value, nil
		default:
			for _, candidate := range c.Values {
				if value == candidate {
					return true, nil
				}
			}
			return false, nil
		}
	case OpAnd:
		for _, child := range c.Children {
			ok, err := child.Evaluate(profile)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case OpOr:
		for _, child := range c.Children {
			ok, err := child.Evaluate(profile)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case OpNot:
		ok, err := c.Children[0].Evaluate(profile)
		return !ok, err
	default:
		return false, fmt.Errorf("%w: %q", ErrConditionBadOp, c.Op)
	}
}

// Convenience constructors used by catalog seeds and tests.

// FieldEquals builds an eq leaf condition.
func FieldEquals(field, value string) Condition {
	return Condition{Op: OpEq, Field: field, Value: value}
}

// FieldIn builds an in leaf condition.
func FieldIn(field string, values ...string) Condition {
	return Condition{Op: OpIn, Field: field, Values: values}
}

// And joins conditions so all must hold.
func And(children ...Condition) Condition {
	return Condition{Op: OpAnd, Children: children}
}

// Or joins conditions so any may hold.
func Or(children ...Condition) Condition {
	return Condition{Op: OpOr, Children: children}
}
