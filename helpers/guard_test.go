package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStrPanic(t *testing.T) {
	assert.Equal(t, "redis://localhost:6379", StrPanic("redis://localhost:6379", "addr is required"))
	assert.PanicsWithValue(t, "addr is required", func() {
		StrPanic("", "addr is required")
	})
}

func TestNilPanic(t *testing.T) {
	var nilMap map[string]int
	var nilPtr *int
	var nilFunc func()

	tests := []struct {
		name      string
		call      func()
		wantPanic bool
	}{
		{name: "untyped nil", call: func() { NilPanic[any](nil, "boom") }, wantPanic: true},
		{name: "nil map", call: func() { NilPanic(nilMap, "boom") }, wantPanic: true},
		{name: "nil pointer", call: func() { NilPanic(nilPtr, "boom") }, wantPanic: true},
		{name: "nil func", call: func() { NilPanic(nilFunc, "boom") }, wantPanic: true},
		{name: "typed nil in interface", call: func() { NilPanic[any](nilPtr, "boom") }, wantPanic: true},
		{name: "struct value", call: func() { NilPanic(time.Time{}, "boom") }},
		{name: "non-nil map", call: func() { NilPanic(map[string]int{}, "boom") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantPanic {
				assert.PanicsWithValue(t, "boom", tt.call)
				return
			}
			assert.NotPanics(t, tt.call)
		})
	}
}

func TestPositivePanic(t *testing.T) {
	assert.Equal(t, time.Minute, PositivePanic(time.Minute, "interval must be positive"))
	assert.PanicsWithValue(t, "interval must be positive", func() {
		PositivePanic(time.Duration(0), "interval must be positive")
	})
	assert.PanicsWithValue(t, "batch must be positive", func() {
		PositivePanic(-1, "batch must be positive")
	})
}
