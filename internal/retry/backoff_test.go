package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		base    time.Duration
		want    time.Duration
	}{
		{"negative attempt counts as first", -3, 200 * time.Millisecond, 200 * time.Millisecond},
		{"first attempt is base", 0, 200 * time.Millisecond, 200 * time.Millisecond},
		{"doubles per attempt", 3, 200 * time.Millisecond, 1600 * time.Millisecond},
		{"second-scale base", 2, time.Second, 4 * time.Second},
		{"caps at max", 8, 200 * time.Millisecond, MaxBackoff},
		{"huge attempt does not overflow", 100, time.Second, MaxBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExponentialBackoff(tt.attempt, tt.base))
		})
	}
}
