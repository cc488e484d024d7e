package envutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpersFallBackOnMissingOrInvalid(t *testing.T) {
	t.Setenv("ENVUTIL_INT", "nope")
	t.Setenv("ENVUTIL_BOOL", "maybe")
	t.Setenv("ENVUTIL_SECS", "-3")

	assert.Equal(t, "def", String("ENVUTIL_MISSING", "def"))
	assert.Equal(t, 7, Int("ENVUTIL_INT", 7))
	assert.True(t, Bool("ENVUTIL_BOOL", true))
	assert.Equal(t, 5*time.Second, Seconds("ENVUTIL_SECS", 5*time.Second))
}

func TestEnvHelpersParse(t *testing.T) {
	t.Setenv("ENVUTIL_STR", "  value ")
	t.Setenv("ENVUTIL_INT", "12")
	t.Setenv("ENVUTIL_FLOAT", "2.5")
	t.Setenv("ENVUTIL_BOOL", "off")
	t.Setenv("ENVUTIL_SECS", "30")

	assert.Equal(t, "value", String("ENVUTIL_STR", ""))
	assert.Equal(t, 12, Int("ENVUTIL_INT", 0))
	assert.Equal(t, 2.5, Float("ENVUTIL_FLOAT", 0))
	assert.False(t, Bool("ENVUTIL_BOOL", true))
	assert.Equal(t, 30*time.Second, Seconds("ENVUTIL_SECS", 0))
}
