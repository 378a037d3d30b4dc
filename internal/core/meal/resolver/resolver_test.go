package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-recommender/internal/pkg/common"
)

func corpus() []common.RecipeRecord {
	return []common.RecipeRecord{
		{Name: "Grilled Chicken Bowl", Ingredients: []string{"chicken", "rice", "broccoli"}, Steps: []string{"grill", "serve"}},
		{Name: "Rfisa", Ingredients: []string{"msemen", "djaj"}, Steps: []string{"cook"}},
		{Name: "rfisa", Ingredients: []string{"trid", "djaj"}, Steps: []string{"other"}},
		{Name: "Tuna Salad", Ingredients: []string{"tuna", "lettuce"}, Steps: []string{"mix"}},
		{Name: "RFISA", Ingredients: []string{"x"}, Steps: []string{"y"}},
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	r := New(corpus())

	for _, label := range []string{"Grilled Chicken Bowl", "grilled chicken bowl", "GRILLED CHICKEN BOWL"} {
		rec, ok := r.Resolve(label)
		require.True(t, ok, label)
		assert.Equal(t, "Grilled Chicken Bowl", rec.Name)
	}
}

func TestResolve_FirstMatchInCorpusOrder(t *testing.T) {
	r := New(corpus())

	rec, ok := r.Resolve("rfisa")
	require.True(t, ok)
	assert.Equal(t, "Rfisa", rec.Name)
	assert.Equal(t, []string{"msemen", "djaj"}, rec.Ingredients)
}

func TestResolve_NotFound(t *testing.T) {
	r := New(corpus())

	_, ok := r.Resolve("Pizza")
	assert.False(t, ok)

	_, ok = New(nil).Resolve("anything")
	assert.False(t, ok)
}

func TestResolve_ReturnsCopy(t *testing.T) {
	r := New(corpus())

	rec, _ := r.Resolve("Tuna Salad")
	rec.Ingredients[0] = "mutated"
	rec.Steps = append(rec.Steps, "extra")

	again, _ := r.Resolve("Tuna Salad")
	assert.Equal(t, []string{"tuna", "lettuce"}, again.Ingredients)
	assert.Equal(t, []string{"mix"}, again.Steps)
}

func TestNew_CopiesCorpus(t *testing.T) {
	recipes := corpus()
	r := New(recipes)

	recipes[0].Name = "Changed"
	recipes[0].Steps[0] = "changed"

	rec, ok := r.Resolve("Grilled Chicken Bowl")
	require.True(t, ok)
	assert.Equal(t, "grill", rec.Steps[0])
}

func TestDuplicates(t *testing.T) {
	r := New(corpus())

	assert.Equal(t, []Duplicate{{Name: "Rfisa", Positions: []int{1, 2, 4}}}, r.Duplicates())
	assert.Empty(t, New(corpus()[:2]).Duplicates())
	assert.Equal(t, 5, r.Size())
}
