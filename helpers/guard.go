// Package helpers holds fail-fast guards used by constructors to reject missing dependencies at startup.
package helpers

import "reflect"

// StrPanic panics with panicMessage when s is empty, otherwise returns s.
// Only s == "" is rejected; whitespace is left to the caller.
func StrPanic(s string, panicMessage string) string {
	if s == "" {
		panic(panicMessage)
	}
	return s
}

// NilPanic panics with panicMessage when v is nil, including typed nil pointers, maps,
// slices, channels and funcs stored in an interface; otherwise returns v unchanged.
//
// Called from constructors (service.NewRegistry, service.NewSweeper, store adapters,
// registryclient.New) for their required dependencies.
func NilPanic[T any](v T, panicMessage string) T {
	if isNil(v) {
		panic(panicMessage)
	}
	return v
}

// PositivePanic panics with panicMessage when n is not greater than zero.
func PositivePanic[N ~int | ~int64](n N, panicMessage string) N {
	if n <= 0 {
		panic(panicMessage)
	}
	return n
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
