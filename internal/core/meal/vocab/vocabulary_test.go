package vocab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCorpus() [][]string {
	return [][]string{
		{"chicken", "rice", "broccoli"},
		{"tuna", "lettuce", "tomato"},
		{"Eggs", " spinach ", "avocado"},
		{"chicken", "rice"},
	}
}

func TestFit_SortedAndDeduplicated(t *testing.T) {
	v := Fit(sampleCorpus())

	assert.Equal(t, []string{
		"avocado", "broccoli", "chicken", "eggs", "lettuce",
		"rice", "spinach", "tomato", "tuna",
	}, v.Tokens())
	assert.Equal(t, 9, v.Size())
}

func TestFit_IsDeterministic(t *testing.T) {
	a := Fit(sampleCorpus())
	b := Fit(sampleCorpus())
	assert.Equal(t, a.Tokens(), b.Tokens())
}

func TestEncode_OrderAndDuplicateInvariant(t *testing.T) {
	v := Fit(sampleCorpus())

	inputs := [][]string{
		{"chicken", "rice", "broccoli"},
		{"broccoli", "chicken", "rice"},
		{"rice", "rice", "broccoli", "chicken", "chicken"},
		{" Chicken", "RICE ", "broccoli", "Broccoli"},
	}

	want := v.Encode(inputs[0])
	for _, in := range inputs[1:] {
		assert.Equal(t, want, v.Encode(in), "input %v", in)
	}

	ones := 0
	for _, x := range want {
		if x == 1 {
			ones++
		} else {
			assert.Equal(t, 0.0, x)
		}
	}
	assert.Equal(t, 3, ones)
}

func TestEncode_OutOfVocabularyIsDropped(t *testing.T) {
	v := Fit(sampleCorpus())

	withUnknown := v.Encode([]string{"chicken", "dragonfruit", "saffron"})
	onlyKnown := v.Encode([]string{"chicken"})

	assert.Equal(t, onlyKnown, withUnknown)
	assert.Len(t, withUnknown, v.Size())
}

func TestEncode_EmptyInputIsZeroVector(t *testing.T) {
	v := Fit(sampleCorpus())

	vec := v.Encode(nil)
	require.Len(t, vec, v.Size())
	for _, x := range vec {
		assert.Equal(t, 0.0, x)
	}
}

func TestKnown_SplitsDrift(t *testing.T) {
	v := Fit(sampleCorpus())

	known, unknown := v.Known([]string{"Rice", "saffron", "rice", "", "tuna"})
	assert.Equal(t, []string{"rice", "tuna"}, known)
	assert.Equal(t, []string{"saffron"}, unknown)
}

func TestNew_RejectsInvalidTokens(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
	}{
		{name: "empty token", tokens: []string{"rice", ""}},
		{name: "duplicate token", tokens: []string{"rice", "rice"}},
		{name: "not normalized", tokens: []string{"Rice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.tokens)
			assert.Error(t, err)
		})
	}
}

func TestNew_KeepsPersistedOrder(t *testing.T) {
	v, err := New([]string{"tuna", "chicken", "rice"})
	require.NoError(t, err)

	i, ok := v.Index("chicken")
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Equal(t, []float64{1, 0, 1}, v.Encode([]string{"rice", "tuna"}))
}

func TestJSON_PreservesEncoding(t *testing.T) {
	v := Fit(sampleCorpus())

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var restored Vocabulary
	require.NoError(t, json.Unmarshal(data, &restored))

	in := []string{"tomato", "eggs", "unknown"}
	assert.Equal(t, v.Encode(in), restored.Encode(in))
}

func TestTokens_ReturnsCopy(t *testing.T) {
	v := Fit(sampleCorpus())

	tokens := v.Tokens()
	tokens[0] = "mutated"
	assert.Equal(t, "avocado", v.Tokens()[0])
}
