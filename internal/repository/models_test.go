package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kjannette/goldsight-backend/internal/db"
	"github.com/kjannette/goldsight-backend/internal/models"
	"github.com/kjannette/goldsight-backend/internal/repository"
	"github.com/kjannette/goldsight-backend/internal/testutil"
)

func TestModelRepo(t *testing.T) {
	pool := testutil.SetupPool(t)
	ctx := context.Background()
	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	repo := repository.NewModelRepo(pool)

	before, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}

	m := &models.SavedModel{
		ID:        uuid.NewString(),
		Name:      "Gold-2026-Project-test",
		Horizon:   2026,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		Forecast: models.Forecast{
			Horizon: 2026,
			Points:  []models.PricePoint{{Date: "2026-12-01", Price: 5120.4}},
			Summary: "integration",
		},
	}
	if err := repo.Save(ctx, m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), m.ID) })

	after, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if after != before+1 {
		t.Fatalf("count: got %d, want %d", after, before+1)
	}

	got, err := repo.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != m.Name || len(got.Forecast.Points) != 1 || got.Forecast.Points[0].Price != 5120.4 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	list, err := repo.List(ctx, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List(1): got %d rows", len(list))
	}
	t.Logf("newest saved model: %s (%s)", list[0].Name, list[0].ID)

	if err := repo.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, m.ID); err != repository.ErrNotFound {
		t.Fatalf("Get after delete: got %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, m.ID); err != repository.ErrNotFound {
		t.Fatalf("second Delete: got %v, want ErrNotFound", err)
	}
}
