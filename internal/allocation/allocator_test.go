package allocation

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// fakeInventory applies the status filter the way the store does and leaves dates to the allocator
type fakeInventory struct {
	named    map[string]domain.NamedUnit
	fungible []domain.FungibleUnit
	bookings []domain.UnitBooking
}

func (f *fakeInventory) NamedUnit(_ context.Context, id string) (*domain.NamedUnit, error) {
	u, ok := f.named[id]
	if !ok {
		return nil, errors.NotFound("named unit", id)
	}
	return &u, nil
}

func (f *fakeInventory) FungibleUnitsByProduct(_ context.Context, productID string) ([]domain.FungibleUnit, error) {
	var out []domain.FungibleUnit
	for _, u := range f.fungible {
		if u.ProductID == productID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakeInventory) NamedUnitBookings(_ context.Context, unitID string, exclude []domain.ReservationStatus) ([]domain.UnitBooking, error) {
	return f.filter(func(b domain.UnitBooking) bool { return b.UnitID == unitID }, exclude), nil
}

func (f *fakeInventory) ProductBookings(_ context.Context, productID string, exclude []domain.ReservationStatus) ([]domain.UnitBooking, error) {
	units := make(map[string]bool)
	for _, u := range f.fungible {
		if u.ProductID == productID {
			units[u.ID] = true
		}
	}
	return f.filter(func(b domain.UnitBooking) bool { return units[b.UnitID] }, exclude), nil
}

func (f *fakeInventory) filter(match func(domain.UnitBooking) bool, exclude []domain.ReservationStatus) []domain.UnitBooking {
	var out []domain.UnitBooking
next:
	for _, b := range f.bookings {
		if !match(b) {
			continue
		}
		for _, s := range exclude {
			if b.Status == s {
				continue next
			}
		}
		out = append(out, b)
	}
	return out
}

func (f *fakeInventory) book(unitID, checkIn, checkOut string, status domain.ReservationStatus) {
	f.bookings = append(f.bookings, domain.UnitBooking{
		ReservationID: "res-" + unitID + checkIn,
		UnitID:        unitID,
		Range:         domain.MustDateRange(checkIn, checkOut),
		Status:        status,
	})
}

func atvInventory() *fakeInventory {
	return &fakeInventory{
		named: map[string]domain.NamedUnit{
			"villa-1": {ID: "villa-1", Code: "V-01", Capacity: 2, Status: domain.UnitAvailable},
			"villa-2": {ID: "villa-2", Code: "V-02", Capacity: 2, Status: domain.UnitMaintenance},
		},
		fungible: []domain.FungibleUnit{
			{ID: "atv-c", ProductID: "atv", Code: "ATV-03", Status: domain.UnitAvailable},
			{ID: "atv-a", ProductID: "atv", Code: "ATV-01", Status: domain.UnitAvailable},
			{ID: "atv-b", ProductID: "atv", Code: "ATV-02", Status: domain.UnitAvailable},
		},
	}
}

func TestCheckNamedUnit(t *testing.T) {
	inv := atvInventory()
	inv.book("villa-1", "2025-12-10", "2025-12-12", domain.ReservationConfirmed)
	inv.book("villa-1", "2025-12-20", "2025-12-22", domain.ReservationCancelled)
	ctx := context.Background()

	tests := []struct {
		name   string
		unit   string
		in     string
		out    string
		expect bool
	}{
		{"overlapping confirmed booking", "villa-1", "2025-12-11", "2025-12-13", false},
		{"checkin on previous checkout", "villa-1", "2025-12-12", "2025-12-14", true},
		{"checkout on next checkin", "villa-1", "2025-12-08", "2025-12-10", true},
		{"cancelled booking releases the unit", "villa-1", "2025-12-20", "2025-12-22", true},
		{"maintenance is never allocatable", "villa-2", "2026-01-01", "2026-01-02", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := New(inv).CheckNamedUnit(ctx, tt.unit, domain.MustDateRange(tt.in, tt.out))
			require.NoError(t, err)
			assert.Equal(t, tt.expect, ok)
		})
	}

	_, err := New(inv).CheckNamedUnit(ctx, "villa-9", domain.MustDateRange("2025-12-01", "2025-12-02"))
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	_, err = New(inv).CheckNamedUnit(ctx, "villa-1", domain.DateRange{})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
}

func TestClaimNamedUnit_SameRequestCannotClaimTwice(t *testing.T) {
	a := New(atvInventory())
	r := domain.MustDateRange("2025-12-10", "2025-12-12")
	ctx := context.Background()

	require.NoError(t, a.ClaimNamedUnit(ctx, "villa-1", r))

	err := a.ClaimNamedUnit(ctx, "villa-1", r)
	shortage, ok := errors.ShortageOf(err)
	require.True(t, ok)
	assert.Equal(t, errors.Shortage{Resource: "named:villa-1", Available: 0, Requested: 1}, shortage)
}

func TestATVScenario(t *testing.T) {
	inv := atvInventory()
	r := domain.MustDateRange("2025-12-10", "2025-12-12")
	ctx := context.Background()

	// request A
	ids, err := New(inv).ReserveFungible(ctx, "atv", r, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"atv-a", "atv-b"}, ids, "ascending code order")
	for _, id := range ids {
		inv.book(id, "2025-12-10", "2025-12-12", domain.ReservationPending)
	}

	count, err := New(inv).CountAvailableFungible(ctx, "atv", r, domain.ReleasedStatuses)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// request B
	_, err = New(inv).ReserveFungible(ctx, "atv", r, 2)
	require.True(t, errors.HasCode(err, errors.CodeInsufficientInventory))
	shortage, _ := errors.ShortageOf(err)
	assert.Equal(t, 1, shortage.Available)
	assert.Equal(t, 2, shortage.Requested)

	avail, err := New(inv).Check(ctx, domain.ResourceRef{Kind: domain.ResourceFungible, ID: "atv"}, r, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.Availability{Feasible: false, AvailableCount: 1}, avail)
}

func TestCountAvailableFungible_CountsDistinctUnits(t *testing.T) {
	inv := atvInventory()
	// two reservations on the same unit in the window count once
	inv.book("atv-a", "2025-12-10", "2025-12-11", domain.ReservationConfirmed)
	inv.book("atv-a", "2025-12-11", "2025-12-12", domain.ReservationPending)
	ctx := context.Background()
	r := domain.MustDateRange("2025-12-10", "2025-12-12")

	count, err := New(inv).CountAvailableFungible(ctx, "atv", r, domain.ReleasedStatuses)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// count conservation: free + allocated distinct = active units
	allocated := map[string]bool{}
	for _, b := range inv.bookings {
		if b.Range.Overlaps(r) {
			allocated[b.UnitID] = true
		}
	}
	assert.Equal(t, 3, count+len(allocated))
}

func TestReserveFungible_SkipsUnavailableAndClaimed(t *testing.T) {
	inv := atvInventory()
	inv.fungible[1].Status = domain.UnitMaintenance // ATV-01
	ctx := context.Background()
	r := domain.MustDateRange("2025-12-10", "2025-12-12")
	a := New(inv)

	first, err := a.ReserveFungible(ctx, "atv", r, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"atv-b"}, first)

	second, err := a.ReserveFungible(ctx, "atv", r, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"atv-c"}, second, "same allocator never hands out a unit twice")

	_, err = a.ReserveFungible(ctx, "atv", r, 1)
	assert.True(t, errors.HasCode(err, errors.CodeInsufficientInventory))
}

func TestReserveFungible_InvalidRequests(t *testing.T) {
	ctx := context.Background()
	r := domain.MustDateRange("2025-12-10", "2025-12-12")

	_, err := New(atvInventory()).ReserveFungible(ctx, "atv", r, 0)
	assert.True(t, errors.HasCode(err, errors.CodeValidation), "zero quantity is an error")

	_, err = New(atvInventory()).ReserveFungible(ctx, "kayak", r, 1)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	_, err = New(atvInventory()).Check(ctx, domain.ResourceRef{Kind: "boat", ID: "x"}, r, 1)
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	_, err = New(atvInventory()).Check(ctx, domain.ResourceRef{Kind: domain.ResourceNamed, ID: "villa-1"}, r, -1)
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
}

func TestCheck_NamedUnit(t *testing.T) {
	ctx := context.Background()
	r := domain.MustDateRange("2025-12-10", "2025-12-12")
	ref := domain.ResourceRef{Kind: domain.ResourceNamed, ID: "villa-1"}

	avail, err := New(atvInventory()).Check(ctx, ref, r, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Availability{Feasible: true, AvailableCount: 1}, avail)

	avail, err = New(atvInventory()).Check(ctx, ref, r, 2)
	require.NoError(t, err)
	assert.False(t, avail.Feasible, "a named unit is a single unit")
}

func TestCheck_TruncatesTimeOfDay(t *testing.T) {
	ctx := context.Background()
	at := func(day, hour int) time.Time { return time.Date(2025, 12, day, hour, 0, 0, 0, time.UTC) }
	ref := domain.ResourceRef{Kind: domain.ResourceNamed, ID: "villa-1"}

	inv := atvInventory()
	inv.book("villa-1", "2025-12-11", "2025-12-12", domain.ReservationConfirmed)

	avail, err := New(inv).Check(ctx, ref, domain.DateRange{CheckIn: at(10, 14), CheckOut: at(11, 11)}, 1)
	require.NoError(t, err)
	assert.True(t, avail.Feasible, "checkout morning does not overlap the next stay")

	_, err = New(inv).Check(ctx, ref, domain.DateRange{CheckIn: at(10, 9), CheckOut: at(10, 18)}, 1)
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
}
