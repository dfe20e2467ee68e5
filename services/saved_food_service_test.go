package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pabloERSH/nutrition-service/models"
)

func TestSavedFoodCreate(t *testing.T) {
	db := newTestDB(t)
	svc := NewSavedFoodService(db)
	user := createUser(t, db, "alice")
	ctx := context.Background()

	got, err := svc.Create(ctx, user.ID, savedFoodInput("  Oats ", "10", "20", "30"))
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, "Oats", got.FoodName)
	assert.Equal(t, user.ID, got.UserID)
	assertDecimal(t, "340", got.Kcal)

	t.Run("duplicate tuple is rejected for any owner", func(t *testing.T) {
		other := createUser(t, db, "bob")
		_, err := svc.Create(ctx, other.ID, savedFoodInput("Oats", "10", "20", "30"))
		assert.ErrorIs(t, err, ErrDuplicateFood)
	})

	t.Run("same name with other nutrients is fine", func(t *testing.T) {
		_, err := svc.Create(ctx, user.ID, savedFoodInput("Oats", "10", "20", "31"))
		assert.NoError(t, err)
	})
}

func TestSavedFoodCreateSumOfExactlyHundred(t *testing.T) {
	db := newTestDB(t)
	svc := NewSavedFoodService(db)
	user := createUser(t, db, "alice")

	got, err := svc.Create(context.Background(), user.ID, savedFoodInput("Mix", "0.37", "68.37", "31.26"))
	require.NoError(t, err)
	assertDecimal(t, "68.37", got.Fats)

	_, err = svc.Update(context.Background(), user.ID, got.ID, SavedFoodInput{Proteins: dec("0.38")})
	requireValidation(t, err, msgNutrientSum)
}

func TestSavedFoodCreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewSavedFoodService(db)
	user := createUser(t, db, "alice")
	ctx := context.Background()

	cases := []struct {
		name string
		in   SavedFoodInput
		msgs []string
	}{
		{"sum over 100", savedFoodInput("Too much", "50", "30", "30"), []string{msgNutrientSum}},
		{"missing fields", SavedFoodInput{}, []string{msgNameRequired, "Proteins are required.", "Fats are required.", "Carbohydrates are required."}},
		{"negative", savedFoodInput("Neg", "-1", "0", "0"), []string{"Proteins cannot be negative."}},
		{"over range", savedFoodInput("Big", "0", "100", "0"), []string{"Fats cannot exceed 99.99."}},
		{"blank name", savedFoodInput("   ", "1", "1", "1"), []string{msgNameRequired}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, user.ID, tc.in)
			requireValidation(t, err, tc.msgs...)
		})
	}

	var n int64
	require.NoError(t, db.Model(&models.SavedFood{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSavedFoodListAndSearch(t *testing.T) {
	db := newTestDB(t)
	svc := NewSavedFoodService(db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	ctx := context.Background()

	for _, name := range []string{"Banana", "Apple pie", "Green apple"} {
		_, err := svc.Create(ctx, alice.ID, savedFoodInput(name, "1", "1", "1"))
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, bob.ID, savedFoodInput("APPLE juice", "1", "1", "1"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob.ID, savedFoodInput("100% juice", "1", "1", "2"))
	require.NoError(t, err)

	list, err := svc.List(ctx, alice.ID, PageRequest{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, list.Data, 2)
	assert.Equal(t, PageMeta{CurrentPage: 1, PerPage: 2, Total: 3, LastPage: 2}, list.Meta)
	for _, f := range list.Data {
		assert.Equal(t, alice.ID, f.UserID)
	}

	found, err := svc.Search(ctx, "apple", PageRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), found.Meta.Total)
	names := []string{}
	for _, f := range found.Data {
		names = append(names, f.FoodName)
		assertDecimal(t, "17", f.Kcal)
	}
	assert.ElementsMatch(t, []string{"Apple pie", "Green apple", "APPLE juice"}, names)

	t.Run("blank term is rejected", func(t *testing.T) {
		_, err := svc.Search(ctx, "   ", PageRequest{Page: 1, PerPage: 10})
		requireValidation(t, err, msgSearchRequired)
	})

	t.Run("like metacharacters are literal", func(t *testing.T) {
		found, err := svc.Search(ctx, "%", PageRequest{Page: 1, PerPage: 10})
		require.NoError(t, err)
		require.Len(t, found.Data, 1)
		assert.Equal(t, "100% juice", found.Data[0].FoodName)
	})
}

func TestSavedFoodUpdate(t *testing.T) {
	db := newTestDB(t)
	svc := NewSavedFoodService(db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	ctx := context.Background()

	food, err := svc.Create(ctx, alice.ID, savedFoodInput("Rice", "7", "1", "77"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice.ID, savedFoodInput("Rice", "8", "1", "77"))
	require.NoError(t, err)

	t.Run("partial update merges values", func(t *testing.T) {
		got, err := svc.Update(ctx, alice.ID, food.ID, SavedFoodInput{Fats: dec("2")})
		require.NoError(t, err)
		assert.Equal(t, "Rice", got.FoodName)
		assertDecimal(t, "2", got.Fats)
		assertDecimal(t, "354", got.Kcal)
	})

	t.Run("merged sum is checked", func(t *testing.T) {
		_, err := svc.Update(ctx, alice.ID, food.ID, SavedFoodInput{Proteins: dec("30")})
		requireValidation(t, err, msgNutrientSum)
	})

	t.Run("collision with another food", func(t *testing.T) {
		_, err := svc.Update(ctx, alice.ID, food.ID, SavedFoodInput{Proteins: dec("8"), Fats: dec("1")})
		assert.ErrorIs(t, err, ErrDuplicateFood)
	})

	t.Run("same values as itself is not a duplicate", func(t *testing.T) {
		_, err := svc.Update(ctx, alice.ID, food.ID, SavedFoodInput{FoodName: str("Rice")})
		assert.NoError(t, err)
	})

	t.Run("non owner is forbidden before validation", func(t *testing.T) {
		_, err := svc.Update(ctx, bob.ID, food.ID, SavedFoodInput{Proteins: dec("-5")})
		assert.ErrorIs(t, err, ErrForbidden)

		var stored models.SavedFood
		require.NoError(t, db.First(&stored, food.ID).Error)
		assertDecimal(t, "7", stored.Proteins)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := svc.Update(ctx, alice.ID, 9999, SavedFoodInput{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSavedFoodDeleteConvertsLinkedEntries(t *testing.T) {
	db := newTestDB(t)
	foods := NewSavedFoodService(db)
	diary := newEatenFoodService(db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	ctx := context.Background()

	food, err := foods.Create(ctx, alice.ID, savedFoodInput("Chicken", "31", "3.6", "0"))
	require.NoError(t, err)

	var entryIDs []uint
	for _, owner := range []uint{alice.ID, alice.ID, bob.ID} {
		e, err := diary.Create(ctx, owner, EatenFoodInput{FoodID: foodRef(food.ID), Weight: dec("150"), EatenAt: daysAgo(1)})
		require.NoError(t, err)
		entryIDs = append(entryIDs, e.ID)
	}
	before, err := diary.Get(ctx, alice.ID, entryIDs[0])
	require.NoError(t, err)

	t.Run("non owner cannot delete", func(t *testing.T) {
		_, err := foods.Delete(ctx, bob.ID, food.ID)
		assert.ErrorIs(t, err, ErrForbidden)
		var n int64
		require.NoError(t, db.Model(&models.EatenFood{}).Where("food_id = ?", food.ID).Count(&n).Error)
		assert.Equal(t, int64(3), n)
	})

	converted, err := foods.Delete(ctx, alice.ID, food.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), converted)

	var gone int64
	require.NoError(t, db.Model(&models.SavedFood{}).Where("id = ?", food.ID).Count(&gone).Error)
	assert.Zero(t, gone)

	var rows []models.EatenFood
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Nil(t, r.FoodID)
		require.NotNil(t, r.FoodName)
		assert.Equal(t, "Chicken", *r.FoodName)
		assertDecimal(t, "31", *r.Proteins)
		assertDecimal(t, "3.6", *r.Fats)
		assertDecimal(t, "0", *r.Carbs)
	}

	after, err := diary.Get(ctx, alice.ID, entryIDs[0])
	require.NoError(t, err)
	assert.Nil(t, after.FoodID)
	assert.Equal(t, before.FoodName, after.FoodName)
	assert.True(t, before.Kcal.Equal(after.Kcal))

	_, err = foods.Delete(ctx, alice.ID, food.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSavedFoodUpdateDoesNotTouchEntries(t *testing.T) {
	db := newTestDB(t)
	foods := NewSavedFoodService(db)
	diary := newEatenFoodService(db)
	alice := createUser(t, db, "alice")
	ctx := context.Background()

	food, err := foods.Create(ctx, alice.ID, savedFoodInput("Bread", "8", "1", "50"))
	require.NoError(t, err)
	entry, err := diary.Create(ctx, alice.ID, EatenFoodInput{FoodID: foodRef(food.ID), Weight: dec("100"), EatenAt: daysAgo(0)})
	require.NoError(t, err)

	_, err = foods.Update(ctx, alice.ID, food.ID, SavedFoodInput{Carbs: dec("40")})
	require.NoError(t, err)

	var stored models.EatenFood
	require.NoError(t, db.First(&stored, entry.ID).Error)
	assert.NotNil(t, stored.FoodID)
	assert.Nil(t, stored.Carbs)

	resolved, err := diary.Get(ctx, alice.ID, entry.ID)
	require.NoError(t, err)
	assertDecimal(t, "40", resolved.Carbs)
}
