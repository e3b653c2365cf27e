package measure

import (
	"errors"
	"fmt"
)

var (
	ErrTypeMismatch      = errors.New("unit type mismatch")
	ErrUnresolvedName    = errors.New("unresolved unit name")
	ErrNoRegistry        = fmt.Errorf("%w: no registry linked to unit", ErrUnresolvedName)
	ErrInvalidOperand    = errors.New("invalid operand")
	ErrInvalidDefinition = errors.New("invalid unit definition")
)

// TypeMismatchError reports two units whose dimensional signatures differ.
type TypeMismatchError struct {
	From string
	To   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s: unit types differ", e.From, e.To)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}

func newTypeMismatch(from, to Unit) error {
	return &TypeMismatchError{
		From: fmt.Sprintf("%s (%s)", from.Name(), from.UnitType()),
		To:   fmt.Sprintf("%s (%s)", to.Name(), to.UnitType()),
	}
}

type UnresolvedNameError struct {
	Name string
}

func (e *UnresolvedNameError) Error() string {
	return fmt.Sprintf("unknown unit %q", e.Name)
}

func (e *UnresolvedNameError) Unwrap() error {
	return ErrUnresolvedName
}
