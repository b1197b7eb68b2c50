package proxy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffGrowsExponentially(t *testing.T) {
	p := BackoffPolicy{Initial: 100 * time.Millisecond, Max: 10 * time.Second, Factor: 2.0}

	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2))
	assert.Equal(t, 400*time.Millisecond, p.Delay(3))
}

func TestBackoffCapsAtMax(t *testing.T) {
	p := BackoffPolicy{Initial: time.Second, Max: 3 * time.Second, Factor: 2.0}

	assert.Equal(t, 3*time.Second, p.Delay(5))
	assert.Equal(t, 3*time.Second, p.Delay(50))
}

func TestBackoffJitterStaysInBand(t *testing.T) {
	p := BackoffPolicy{Initial: time.Second, Max: 10 * time.Second, Factor: 2.0, Jitter: 0.1}

	for i := 0; i < 100; i++ {
		d := p.Delay(1)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}
}

func TestBackoffClampsAttempt(t *testing.T) {
	p := BackoffPolicy{Initial: 250 * time.Millisecond, Max: time.Second, Factor: 2.0}
	assert.Equal(t, p.Delay(1), p.Delay(0))
}
