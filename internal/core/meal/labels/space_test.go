package labels

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trainingLabels = []string{
	"Grilled Chicken Bowl",
	"Tuna Salad",
	"Rfisa",
	"Rfisa",
	"Hot Kwari",
	"hot kwari",
	"Rfisa",
}

func TestFit_RoundTrip(t *testing.T) {
	s := Fit(trainingLabels)

	require.Equal(t, 5, s.Size())
	for _, l := range trainingLabels {
		i, ok := s.Index(l)
		require.True(t, ok, l)
		got, ok := s.Label(i)
		require.True(t, ok)
		assert.Equal(t, l, got)
	}
}

func TestFit_IndicesAreDenseAndUnique(t *testing.T) {
	s := Fit(trainingLabels)

	seen := make(map[int]string)
	for _, l := range s.Labels() {
		i, ok := s.Index(l)
		require.True(t, ok)
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, s.Size())
		_, dup := seen[i]
		assert.False(t, dup, "index %d reused", i)
		seen[i] = l
	}
}

func TestFit_IsDeterministic(t *testing.T) {
	a := Fit(trainingLabels)
	b := Fit([]string{"Rfisa", "hot kwari", "Tuna Salad", "Hot Kwari", "Grilled Chicken Bowl"})
	assert.Equal(t, a.Labels(), b.Labels())
}

func TestLabel_OutOfRange(t *testing.T) {
	s := Fit(trainingLabels)

	_, ok := s.Label(-1)
	assert.False(t, ok)
	_, ok = s.Label(s.Size())
	assert.False(t, ok)
}

func TestEncode(t *testing.T) {
	s := Fit(trainingLabels)

	idx, err := s.Encode([]string{"Rfisa", "Tuna Salad"})
	require.NoError(t, err)
	require.Len(t, idx, 2)
	l0, _ := s.Label(idx[0])
	assert.Equal(t, "Rfisa", l0)

	_, err = s.Encode([]string{"Pizza"})
	assert.Error(t, err)
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New([]string{"a", "b", "a"})
	assert.Error(t, err)
}

func TestJSON_PreservesIndices(t *testing.T) {
	s := Fit(trainingLabels)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var restored Space
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, s.Labels(), restored.Labels())
}
