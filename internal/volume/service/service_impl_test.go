package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/procura/internal/clock"
	volumedomain "github.com/smallbiznis/procura/internal/volume/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupVolumeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, table := range []string{"forecasts", "actuals"} {
		if err := db.Exec(
			`CREATE TABLE IF NOT EXISTS ` + table + ` (
				id INTEGER PRIMARY KEY,
				product_id INTEGER NOT NULL,
				year INTEGER NOT NULL,
				month INTEGER NOT NULL,
				units INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL,
				UNIQUE (product_id, year, month)
			)`,
		).Error; err != nil {
			t.Fatalf("create %s: %v", table, err)
		}
	}
	return db
}

func newVolumeTestService(t *testing.T) volumedomain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return NewService(ServiceParam{
		DB:    setupVolumeTestDB(t),
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.SystemClock{},
	})
}

func TestUpsertForecastReplacesExistingRow(t *testing.T) {
	svc := newVolumeTestService(t)
	ctx := context.Background()

	first, err := svc.UpsertForecast(ctx, volumedomain.UpsertVolumeRequest{
		ProductID: 100, Year: 2026, Month: 3, Units: 1000,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := svc.UpsertForecast(ctx, volumedomain.UpsertVolumeRequest{
		ProductID: 100, Year: 2026, Month: 3, Units: 2500,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected row to be replaced in place, got new id %d", second.ID)
	}
	if second.Units != 2500 {
		t.Fatalf("expected units 2500, got %d", second.Units)
	}

	rows, err := svc.ListForecasts(ctx, 100)
	if err != nil {
		t.Fatalf("list forecasts: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single row per (product, year, month), got %d", len(rows))
	}
}

func TestUpsertForecastRejectsInvalidInput(t *testing.T) {
	svc := newVolumeTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  volumedomain.UpsertVolumeRequest
		want error
	}{
		{"year below range", volumedomain.UpsertVolumeRequest{ProductID: 100, Year: 1999, Month: 1, Units: 10}, volumedomain.ErrInvalidPeriod},
		{"month too large", volumedomain.UpsertVolumeRequest{ProductID: 100, Year: 2026, Month: 13, Units: 10}, volumedomain.ErrInvalidPeriod},
		{"negative units", volumedomain.UpsertVolumeRequest{ProductID: 100, Year: 2026, Month: 1, Units: -1}, volumedomain.ErrInvalidUnits},
	}
	for _, tc := range cases {
		if _, err := svc.UpsertForecast(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestListForecastsOrderedByPeriod(t *testing.T) {
	svc := newVolumeTestService(t)
	ctx := context.Background()

	periods := []struct{ year, month int }{{2026, 5}, {2025, 12}, {2026, 1}}
	for _, p := range periods {
		if _, err := svc.UpsertForecast(ctx, volumedomain.UpsertVolumeRequest{
			ProductID: 100, Year: p.year, Month: p.month, Units: 10,
		}); err != nil {
			t.Fatalf("upsert %d-%d: %v", p.year, p.month, err)
		}
	}

	rows, err := svc.ListForecasts(ctx, 100)
	if err != nil {
		t.Fatalf("list forecasts: %v", err)
	}
	got := make([][2]int, 0, len(rows))
	for _, row := range rows {
		got = append(got, [2]int{row.Year, row.Month})
	}
	want := [][2]int{{2025, 12}, {2026, 1}, {2026, 5}}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestDeleteForecastMissingRow(t *testing.T) {
	svc := newVolumeTestService(t)

	err := svc.DeleteForecast(context.Background(), 100, 2026, 4)
	if !errors.Is(err, volumedomain.ErrVolumeNotFound) {
		t.Fatalf("expected volume_not_found, got %v", err)
	}
}

func TestActualsIndependentOfForecasts(t *testing.T) {
	svc := newVolumeTestService(t)
	ctx := context.Background()

	if _, err := svc.UpsertForecast(ctx, volumedomain.UpsertVolumeRequest{
		ProductID: 100, Year: 2026, Month: 3, Units: 1000,
	}); err != nil {
		t.Fatalf("upsert forecast: %v", err)
	}
	if _, err := svc.UpsertActual(ctx, volumedomain.UpsertVolumeRequest{
		ProductID: 100, Year: 2026, Month: 3, Units: 870,
	}); err != nil {
		t.Fatalf("upsert actual: %v", err)
	}

	forecast, err := svc.QuantitiesForMonth(ctx, volumedomain.BasisForecast, 2026, 3)
	if err != nil {
		t.Fatalf("forecast quantities: %v", err)
	}
	actual, err := svc.QuantitiesForMonth(ctx, volumedomain.BasisActual, 2026, 3)
	if err != nil {
		t.Fatalf("actual quantities: %v", err)
	}
	if forecast[100] != 1000 {
		t.Fatalf("expected forecast 1000, got %d", forecast[100])
	}
	if actual[100] != 870 {
		t.Fatalf("expected actual 870, got %d", actual[100])
	}

	if err := svc.DeleteActual(ctx, 100, 2026, 3); err != nil {
		t.Fatalf("delete actual: %v", err)
	}
	if rows, err := svc.ListForecasts(ctx, 100); err != nil || len(rows) != 1 {
		t.Fatalf("forecast should survive actual delete: rows=%d err=%v", len(rows), err)
	}
}

func TestQuantitiesForMonthRejectsUnknownBasis(t *testing.T) {
	svc := newVolumeTestService(t)

	_, err := svc.QuantitiesForMonth(context.Background(), volumedomain.Basis("projected"), 2026, 3)
	if !errors.Is(err, volumedomain.ErrInvalidBasis) {
		t.Fatalf("expected invalid_basis, got %v", err)
	}
}
