package recipestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"meal-recommender/internal/infrastructure/config"
	"meal-recommender/internal/pkg/common"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// :memory: 每條連線都是獨立資料庫
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store, err := New(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRecipes() []common.RecipeRecord {
	return []common.RecipeRecord{
		{Name: "Tuna Salad", Ingredients: []string{"tuna", "lettuce"}, Steps: []string{"mix"}},
		{Name: "Rfisa", Ingredients: []string{"msemen", "djaj"}, Steps: []string{"cook", "serve"}},
		{Name: "Grilled Chicken Bowl", Ingredients: []string{"chicken", "rice"}, Steps: []string{"grill"}},
	}
}

func TestReplaceAll_PreservesCorpusOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceAll(ctx, sampleRecipes()))

	got, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecipes(), got)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestReplaceAll_ReplacesPreviousCorpus(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceAll(ctx, sampleRecipes()))
	require.NoError(t, store.ReplaceAll(ctx, sampleRecipes()[:1]))

	got, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecipes()[:1], got)

	require.NoError(t, store.ReplaceAll(ctx, nil))
	got, err = store.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPing(t *testing.T) {
	assert.NoError(t, setupTestStore(t).Ping(context.Background()))
}

func TestOpen_SQLiteFile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "recipes.db")

	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	store, err := New(db)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.ReplaceAll(context.Background(), sampleRecipes()))
	_, err = os.Stat(dsn)
	assert.NoError(t, err)

	_, err = Open(config.DatabaseConfig{Driver: "mysql", DSN: "x"})
	assert.Error(t, err)
}

func TestStringArray_Scan(t *testing.T) {
	var a StringArray
	require.NoError(t, a.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringArray{"a", "b"}, a)

	require.NoError(t, a.Scan(nil))
	assert.Equal(t, StringArray{}, a)

	assert.Error(t, a.Scan(42))

	v, err := StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestFilterRecords(t *testing.T) {
	in := []common.RecipeRecord{
		{Name: " Rfisa ", Ingredients: []string{" Msemen", "DJAJ ", ""}, Steps: []string{" cook ", "  "}},
		{Name: "One Ingredient", Ingredients: []string{"egg"}, Steps: []string{"boil"}},
		{Name: "No Steps", Ingredients: []string{"egg", "salt"}, Steps: []string{" "}},
		{Name: "  ", Ingredients: []string{"egg", "salt"}, Steps: []string{"boil"}},
	}

	got := FilterRecords(in)
	assert.Equal(t, []common.RecipeRecord{
		{Name: "Rfisa", Ingredients: []string{"msemen", "djaj"}, Steps: []string{"cook"}},
	}, got)
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"name": "Rfisa", "ingredients": ["msemen", "djaj"], "steps": ["cook"]}
]`), 0o644))

	got, err := LoadJSONFile(path)
	require.NoError(t, err)
	assert.Equal(t, []common.RecipeRecord{{Name: "Rfisa", Ingredients: []string{"msemen", "djaj"}, Steps: []string{"cook"}}}, got)

	_, err = LoadJSONFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestList_PagesInCorpusOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.ReplaceAll(ctx, sampleRecipes()))

	page, total, err := store.List(ctx, "", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, "Rfisa", page[0].Name)
	assert.NotZero(t, page[0].ID)

	page, total, err = store.List(ctx, "", 3, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, page)
}

func TestList_SearchByName(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.ReplaceAll(ctx, sampleRecipes()))

	page, total, err := store.List(ctx, "  CHICKEN ", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, page, 1)
	assert.Equal(t, "Grilled Chicken Bowl", page[0].Name)

	page, total, err = store.List(ctx, "pizza", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, page)
}

func TestGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.ReplaceAll(ctx, sampleRecipes()))

	page, _, err := store.List(ctx, "tuna", 0, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)

	got, err := store.Get(ctx, page[0].ID)
	require.NoError(t, err)
	assert.Equal(t, sampleRecipes()[0], got.RecipeRecord)

	_, err = store.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
