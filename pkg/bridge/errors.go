package bridge

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every LookupError.
var ErrNotFound = errors.New("member not found")

// LookupError reports a method or field missing from the host object.
type LookupError struct {
	Type   string
	Member string // "method" or "field"
	Name   string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("bridge: %s %q not found on %s", e.Member, e.Name, e.Type)
}

func (e *LookupError) Unwrap() error { return ErrNotFound }

// ArgumentError reports arguments that do not fit the method signature.
// Index is -1 for arity mismatches.
type ArgumentError struct {
	Type   string
	Method string
	Index  int
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("bridge: %s.%s: %s", e.Type, e.Method, e.Reason)
	}
	return fmt.Sprintf("bridge: %s.%s argument %d: %s", e.Type, e.Method, e.Index, e.Reason)
}

// ConversionError reports a result or field that cannot be typed as requested.
type ConversionError struct {
	Type string
	Name string
	From string
	To   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("bridge: %s.%s is %s, not %s", e.Type, e.Name, e.From, e.To)
}
