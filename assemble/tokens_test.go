package assemble

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicEstimator(t *testing.T) {
	est := HeuristicEstimator{}

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"one char rounds up", "a", 1},
		{"exact multiple", "abcd", 1},
		{"five chars", "abcde", 2},
		{"eight chars", "abcdefgh", 2},
		{"longer text", strings.Repeat("x", 400), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, est.EstimateTokens(tt.text))
		})
	}
}

func TestHeuristicEstimator_Monotonic(t *testing.T) {
	est := HeuristicEstimator{}
	prev := 0
	for i := 0; i < 100; i++ {
		n := est.EstimateTokens(strings.Repeat("a", i))
		assert.GreaterOrEqual(t, n, prev)
		prev = n
	}
}
