package fixtures

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/config"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/store"
)

// Today is the fixed "now" used by engine tests so 2025 scenario dates stay in the future.
var Today = time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)

// Clock returns a function reporting Today
func Clock() func() time.Time {
	return func() time.Time { return Today }
}

// StoreConfig points at a fresh database file under t.TempDir()
func StoreConfig(t testing.TB) *config.StoreConfig {
	t.Helper()
	return &config.StoreConfig{
		SQLiteFile:   filepath.Join(t.TempDir(), "venuereserve.db"),
		BusyTimeout:  10 * time.Second,
		MaxOpenConns: 8,
	}
}

// OpenStore opens a migrated store that is closed with the test
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), StoreConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// SeedNamedUnit adds one available named unit
func SeedNamedUnit(t testing.TB, s *store.Store, id, group string) *domain.NamedUnit {
	t.Helper()
	unit, err := domain.NewNamedUnit(id, group, "Unit "+id, "CODE-"+id, 2, domain.UnitAvailable)
	require.NoError(t, err)
	require.NoError(t, s.Queries().InsertNamedUnit(context.Background(), unit))
	return unit
}

// SeedFungibleUnits adds n available units of productID with codes PRODUCT-01..n
func SeedFungibleUnits(t testing.TB, s *store.Store, productID string, n int) []domain.FungibleUnit {
	t.Helper()
	units := make([]domain.FungibleUnit, 0, n)
	for i := 1; i <= n; i++ {
		code := fmt.Sprintf("%s-%02d", productID, i)
		unit, err := domain.NewFungibleUnit(productID+"-unit-"+fmt.Sprint(i), productID, code, domain.UnitAvailable)
		require.NoError(t, err)
		require.NoError(t, s.Queries().InsertFungibleUnit(context.Background(), unit))
		units = append(units, *unit)
	}
	return units
}

// Customer is a valid walk-in customer
func Customer() domain.Customer {
	return domain.Customer{ID: "CUST-001", Name: "Ayu Lestari", Phone: "+62-812-0000", Email: "ayu@example.com"}
}

// Money parses a decimal literal
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
