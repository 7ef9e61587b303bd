package counter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_NextSpec(t *testing.T) {
	s := &State{SpecNumber: 54}

	// Returns the current cursor, then advances. Not idempotent.
	assert.Equal(t, 54, s.NextSpec())
	assert.Equal(t, 55, s.SpecNumber)
	assert.Equal(t, 55, s.NextSpec())
	assert.False(t, s.UpdatedAt.IsZero())
}

func TestState_NextStandalone(t *testing.T) {
	s := &State{StandaloneTaskNumber: 7}

	assert.Equal(t, 7, s.NextStandalone())
	assert.Equal(t, 8, s.StandaloneTaskNumber)

	// The two counters are independent.
	assert.Equal(t, 0, s.SpecNumber)
}

func TestState_NextByName(t *testing.T) {
	s := &State{}

	n, err := s.Next(Spec)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.Next(Standalone)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = s.Next("bogus")
	assert.Error(t, err)

	_, err = s.Get("bogus")
	assert.Error(t, err)
}

func TestState_MarshalFieldNames(t *testing.T) {
	s := &State{SpecNumber: 54, StandaloneTaskNumber: 7}
	data, err := s.Marshal()
	require.NoError(t, err)

	// On-branch format: camelCase field names, trailing newline.
	assert.Contains(t, string(data), `"specNumber": 54`)
	assert.Contains(t, string(data), `"standaloneTaskNumber": 7`)
	assert.Equal(t, byte('\n'), data[len(data)-1])

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "updatedAt")
}

func TestState_UnmarshalRoundTrip(t *testing.T) {
	s := &State{SpecNumber: 54, StandaloneTaskNumber: 7}
	data, err := s.Marshal()
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 54, got.SpecNumber)
	assert.Equal(t, 7, got.StandaloneTaskNumber)
}

func TestUnmarshal_Rejects(t *testing.T) {
	_, err := Unmarshal([]byte("not json"))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"specNumber": -1}`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"standaloneTaskNumber": -5}`))
	assert.Error(t, err)
}
