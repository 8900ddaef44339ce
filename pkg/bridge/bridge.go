// Package bridge calls operations and reads fields on host objects by name.
//
// The host exposes behavior objects whose operations are not part of any
// interface this module compiles against. The bridge resolves them on the
// object's concrete runtime type at call time. A missing member is a
// LookupError and callers treat it as fatal: the host's layout is trusted.
package bridge

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"
)

var errorType = reflect.TypeFor[error]()

// Call invokes the named method on obj and returns its result as T.
//
// Methods returning nothing yield the zero T. A trailing error result is
// returned as the call's error when non-nil.
func Call[T any](obj any, method string, args ...any) (T, error) {
	var zero T

	out, err := call(obj, method, args)
	if err != nil {
		return zero, err
	}

	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if !out[n-1].IsNil() {
			return zero, out[n-1].Interface().(error)
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return zero, nil
	}

	return convert[T](out[0], typeName(obj), method)
}

// Invoke calls the named method on obj for its effect.
func Invoke(obj any, method string, args ...any) error {
	_, err := Call[any](obj, method, args...)
	return err
}

// Field reads the named struct field of obj, unexported fields included.
func Field[T any](obj any, name string) (T, error) {
	var zero T

	v := reflect.ValueOf(obj)
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return zero, &LookupError{Type: typeName(obj), Member: "field", Name: name}
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Kind() != reflect.Struct {
		return zero, &LookupError{Type: typeName(obj), Member: "field", Name: name}
	}

	if !v.CanAddr() {
		c := reflect.New(v.Type()).Elem()
		c.Set(v)
		v = c
	}

	f := v.FieldByName(name)
	if !f.IsValid() {
		return zero, &LookupError{Type: typeName(obj), Member: "field", Name: name}
	}
	if !f.CanInterface() {
		f = reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
	}

	return convert[T](f, typeName(obj), name)
}

// MustCall is like Call but panics on error.
func MustCall[T any](obj any, method string, args ...any) T {
	v, err := Call[T](obj, method, args...)
	if err != nil {
		panic(err)
	}
	return v
}

// MustInvoke is like Invoke but panics on error.
func MustInvoke(obj any, method string, args ...any) {
	if err := Invoke(obj, method, args...); err != nil {
		panic(err)
	}
}

// MustField is like Field but panics on error.
func MustField[T any](obj any, name string) T {
	v, err := Field[T](obj, name)
	if err != nil {
		panic(err)
	}
	return v
}

func call(obj any, name string, args []any) ([]reflect.Value, error) {
	if obj == nil {
		return nil, &LookupError{Type: "<nil>", Member: "method", Name: name}
	}

	v := reflect.ValueOf(obj)
	m := v.MethodByName(name)
	if !m.IsValid() && v.Kind() != reflect.Pointer {
		// pointer receivers are outside a plain value's method set
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		m = p.MethodByName(name)
	}
	if !m.IsValid() {
		return nil, &LookupError{Type: typeName(obj), Member: "method", Name: name}
	}

	in, err := arguments(m.Type(), args)
	if err != nil {
		var argErr *ArgumentError
		if errors.As(err, &argErr) {
			argErr.Type = typeName(obj)
			argErr.Method = name
		}
		return nil, err
	}

	return m.Call(in), nil
}

func arguments(t reflect.Type, args []any) ([]reflect.Value, error) {
	n := t.NumIn()
	if t.IsVariadic() {
		if len(args) < n-1 {
			return nil, &ArgumentError{Index: -1, Reason: fmt.Sprintf("want at least %d arguments, got %d", n-1, len(args))}
		}
	} else if len(args) != n {
		return nil, &ArgumentError{Index: -1, Reason: fmt.Sprintf("want %d arguments, got %d", n, len(args))}
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := paramType(t, i)

		if a == nil {
			if !nillable(pt.Kind()) {
				return nil, &ArgumentError{Index: i, Reason: "nil for " + pt.String()}
			}
			in[i] = reflect.Zero(pt)
			continue
		}

		av := reflect.ValueOf(a)
		switch {
		case av.Type().AssignableTo(pt):
			in[i] = av
		case av.Kind() == pt.Kind() && av.Type().ConvertibleTo(pt):
			in[i] = av.Convert(pt)
		default:
			return nil, &ArgumentError{Index: i, Reason: fmt.Sprintf("%s is not assignable to %s", av.Type(), pt)}
		}
	}
	return in, nil
}

func paramType(t reflect.Type, i int) reflect.Type {
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	return t.In(i)
}

func nillable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func convert[T any](v reflect.Value, owner, name string) (T, error) {
	var zero T
	target := reflect.TypeFor[T]()

	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return zero, nil
		}
		v = v.Elem()
	}

	switch {
	case v.Type().AssignableTo(target):
		out := reflect.New(target).Elem()
		out.Set(v)
		t, _ := out.Interface().(T)
		return t, nil

	case v.Kind() == reflect.Slice && target.Kind() == reflect.Slice &&
		v.Type().Elem().AssignableTo(target.Elem()):
		if v.IsNil() {
			return zero, nil
		}
		out := reflect.MakeSlice(target, v.Len(), v.Len())
		for i := range v.Len() {
			out.Index(i).Set(v.Index(i))
		}
		t, _ := out.Interface().(T)
		return t, nil

	case v.Kind() == target.Kind() && v.Type().ConvertibleTo(target):
		t, _ := v.Convert(target).Interface().(T)
		return t, nil
	}

	return zero, &ConversionError{Type: owner, Name: name, From: v.Type().String(), To: target.String()}
}

func typeName(obj any) string {
	if obj == nil {
		return "<nil>"
	}
	return reflect.TypeOf(obj).String()
}
