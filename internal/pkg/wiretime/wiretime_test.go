package wiretime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalAcceptsZonelessTimestamps(t *testing.T) {
	var v struct {
		A Time `json:"a"`
		B Time `json:"b"`
		C Time `json:"c"`
	}
	raw := `{"a":"2024-03-01T10:20:30.123000","b":"2024-03-01T10:20:30+02:00","c":null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &v))

	assert.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 123000000, time.UTC), v.A.Time)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 20, 30, 0, time.UTC), v.B.Time)
	assert.True(t, v.C.IsZero())
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	var v Time
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &v))
}

func TestMarshalZeroIsNull(t *testing.T) {
	b, err := json.Marshal(Time{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}
