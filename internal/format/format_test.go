package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLP(t *testing.T) {
	assert.Equal(t, "$14.900", CLP(14900))
	assert.Equal(t, "$1.250.000", CLP(1250000))
	assert.Equal(t, "$0", CLP(0))
	assert.Equal(t, "-$25.000", CLP(-25000))
}

func TestKm(t *testing.T) {
	assert.Equal(t, "1.2 km", Km(1234))
	assert.Equal(t, "0.0 km", Km(0))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "25 min", Duration(25*60))
	assert.Equal(t, "1 h 5 min", Duration(65*60))
	assert.Equal(t, "2 h", Duration(120*60))
	assert.Equal(t, "0 min", Duration(20))
}

func TestCountdown(t *testing.T) {
	assert.Equal(t, "01:30", Countdown(90))
	assert.Equal(t, "00:05", Countdown(5))
	assert.Equal(t, "00:00", Countdown(-3))
}
