package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/goldsight-backend/internal/models"
)

func sampleModel(id string, created time.Time) *models.SavedModel {
	return &models.SavedModel{
		ID:        id,
		Name:      "Gold-2026-Project-1",
		Horizon:   2026,
		CreatedAt: created,
		Forecast: models.Forecast{
			Horizon: 2026,
			Points:  []models.PricePoint{{Date: "2026-11-01", Price: 5001.5}, {Date: "2026-12-01", Price: 5080}},
			Summary: "grind higher",
		},
	}
}

func TestMemoryModelStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryModelStore()

	m := sampleModel("a", time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC))
	require.NoError(t, s.Save(ctx, m))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, *m, *got)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "a"), ErrNotFound)
}

func TestMemoryModelStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryModelStore()
	base := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Save(ctx, sampleModel(fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"m3", "m2", "m1", "m0"}, []string{all[0].ID, all[1].ID, all[2].ID, all[3].ID})

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, "m3", two[0].ID)
}

func TestMemoryModelStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryModelStore()

	m := sampleModel("a", time.Now())
	require.NoError(t, s.Save(ctx, m))
	m.Forecast.Points[0].Price = 1

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 5001.5, got.Forecast.Points[0].Price)

	got.Forecast.Points[0].Price = 2
	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 5001.5, again.Forecast.Points[0].Price)
}

func TestMemoryModelStore_StampsCreatedAt(t *testing.T) {
	s := NewMemoryModelStore()
	m := sampleModel("a", time.Time{})
	require.NoError(t, s.Save(context.Background(), m))
	assert.False(t, m.CreatedAt.IsZero())
}
