package migrations_test

import (
	"context"
	"testing"

	"showtime-reservation/internal/testutil"
	"showtime-reservation/migrations"
)

func TestApplyIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	var n int
	if err := db.QueryRow(ctx, `SELECT count(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 applied migration, got %d", n)
	}

	var idx string
	err := db.QueryRow(ctx, `SELECT indexname FROM pg_indexes WHERE indexname = 'bookings_active_user_slot'`).Scan(&idx)
	if err != nil {
		t.Fatalf("expected partial unique index: %v", err)
	}
}
