package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInRange(t *testing.T) {
	tests := []struct {
		name  string
		value int
		want  bool
	}{
		{name: "below", value: 1959, want: false},
		{name: "lower bound", value: 1960, want: true},
		{name: "inside", value: 2023, want: true},
		{name: "upper bound", value: 2100, want: true},
		{name: "above", value: 2101, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InRange(1960, tt.value, 2100))
		})
	}

	assert.True(t, InRange(0.5, 0.75, 1.0))
}
