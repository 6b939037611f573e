package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Youmanvi/venuereserve/internal/allocation"
	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/store"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
	"github.com/Youmanvi/venuereserve/test/fixtures"
)

var december = domain.MustDateRange("2025-12-10", "2025-12-12")

func newManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	s := fixtures.OpenStore(t)
	fixtures.SeedNamedUnit(t, s, "villa-1", "villa")
	fixtures.SeedFungibleUnits(t, s, "atv", 3)
	return NewManager(s, Options{Now: fixtures.Clock()}), s
}

func named(unitID string, qty int, price string) LineRequest {
	return LineRequest{
		Resource:  domain.ResourceRef{Kind: domain.ResourceNamed, ID: unitID},
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
	}
}

func fungible(productID string, qty int, price string) LineRequest {
	return LineRequest{
		Resource:  domain.ResourceRef{Kind: domain.ResourceFungible, ID: productID},
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
	}
}

func request(lines ...LineRequest) CreateRequest {
	return CreateRequest{Customer: fixtures.Customer(), Range: december, Lines: lines}
}

func countATV(t *testing.T, s *store.Store, r domain.DateRange) int {
	t.Helper()
	n, err := allocation.New(s.Queries()).CountAvailableFungible(context.Background(), "atv", r, domain.ReleasedStatuses)
	require.NoError(t, err)
	return n
}

func TestCreate_PersistsHeaderLinesAndCode(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	villa := named("villa-1", 2, "750000")
	villa.DiscountPercent = decimal.NewFromInt(10)
	req := request(villa, fungible("atv", 2, "250000"))
	req.DownPayment = domain.DownPaymentPolicy{Required: true, Percentage: decimal.NewFromInt(30)}

	res, err := m.Create(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "RSV-20251101-0001", res.Code)
	assert.Equal(t, domain.ReservationPending, res.Status)
	assert.Equal(t, domain.PaymentUnpaid, res.PaymentStatus)
	require.Len(t, res.Lines, 3, "two ATVs become two lines")
	assert.True(t, res.Totals.Gross.Equal(fixtures.Money("2000000")), "gross %s", res.Totals.Gross)
	assert.True(t, res.Totals.Discount.Equal(fixtures.Money("150000")), "discount %s", res.Totals.Discount)
	assert.True(t, res.Totals.Net.Equal(fixtures.Money("1850000")), "net %s", res.Totals.Net)
	assert.True(t, res.MinimumDownPayment().Equal(fixtures.Money("555000")))
	assert.NotEqual(t, res.Lines[1].FungibleUnitID, res.Lines[2].FungibleUnitID)

	got, err := m.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.NoError(t, got.Reconcile())
	assert.True(t, got.Totals.Net.Equal(res.Totals.Net))

	byCode, err := m.GetByCode(ctx, res.Code)
	require.NoError(t, err)
	assert.Equal(t, res.ID, byCode.ID)

	second, err := m.Create(ctx, CreateRequest{
		Customer: fixtures.Customer(),
		Range:    domain.MustDateRange("2025-12-20", "2025-12-21"),
		Lines:    []LineRequest{fungible("atv", 1, "250000")},
		Draft:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "RSV-20251101-0002", second.Code)
	assert.Equal(t, domain.ReservationDraft, second.Status)
}

func TestCreate_ATVScenario(t *testing.T) {
	m, s := newManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, request(fungible("atv", 2, "250000")))
	require.NoError(t, err)
	assert.Equal(t, 1, countATV(t, s, december))

	_, err = m.Create(ctx, request(fungible("atv", 2, "250000")))
	require.True(t, errors.HasCode(err, errors.CodeInsufficientInventory))
	shortage, ok := errors.ShortageOf(err)
	require.True(t, ok)
	assert.Equal(t, 1, shortage.Available)
	assert.Equal(t, 2, shortage.Requested)

	assert.Equal(t, 1, countATV(t, s, december), "failed request allocated nothing")
}

func TestCreate_AllOrNothing(t *testing.T) {
	m, s := newManager(t)
	ctx := context.Background()

	// the villa line succeeds, the ATV line fails
	_, err := m.Create(ctx, request(named("villa-1", 1, "100"), fungible("atv", 4, "10")))
	require.True(t, errors.HasCode(err, errors.CodeInsufficientInventory))

	ok, err := allocation.New(s.Queries()).CheckNamedUnit(ctx, "villa-1", december)
	require.NoError(t, err)
	assert.True(t, ok, "villa line rolled back")

	res, err := m.Create(ctx, request(named("villa-1", 1, "100")))
	require.NoError(t, err)
	assert.Equal(t, "RSV-20251101-0001", res.Code, "sequence rolled back with the failed request")
}

func TestCreate_SameRequestNamedUnitTwice(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.Create(context.Background(), request(named("villa-1", 1, "100"), named("villa-1", 1, "100")))
	assert.True(t, errors.HasCode(err, errors.CodeInsufficientInventory))
}

func TestCreate_Validation(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"no lines", func(r *CreateRequest) { r.Lines = nil }},
		{"checkin in the past", func(r *CreateRequest) { r.Range = domain.MustDateRange("2025-10-30", "2025-11-02") }},
		{"empty range", func(r *CreateRequest) { r.Range = domain.DateRange{} }},
		{"zero quantity", func(r *CreateRequest) { r.Lines[0].Quantity = 0 }},
		{"unknown resource kind", func(r *CreateRequest) { r.Lines[0].Resource.Kind = "boat" }},
		{"missing customer", func(r *CreateRequest) { r.Customer = domain.Customer{} }},
		{"discount over 100", func(r *CreateRequest) { r.Lines[0].DiscountPercent = decimal.NewFromInt(101) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(fungible("atv", 1, "10"))
			tt.mutate(&req)
			_, err := m.Create(ctx, req)
			assert.True(t, errors.HasCode(err, errors.CodeValidation), "got %v", err)
		})
	}

	_, err := m.Create(ctx, request(named("villa-404", 1, "10")))
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestCreate_TimeOfDayRangesUseWholeDays(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	at := func(day, hour int) time.Time { return time.Date(2025, 12, day, hour, 0, 0, 0, time.UTC) }

	sameDay := request(named("villa-1", 1, "100"))
	sameDay.Range = domain.DateRange{CheckIn: at(10, 9), CheckOut: at(10, 18)}
	_, err := m.Create(ctx, sameDay)
	assert.True(t, errors.HasCode(err, errors.CodeValidation), "got %v", err)

	_, err = m.Create(ctx, CreateRequest{
		Customer: fixtures.Customer(),
		Range:    domain.MustDateRange("2025-12-11", "2025-12-12"),
		Lines:    []LineRequest{named("villa-1", 1, "100")},
	})
	require.NoError(t, err)

	before := request(named("villa-1", 1, "100"))
	before.Range = domain.DateRange{CheckIn: at(10, 14), CheckOut: at(11, 11)}
	res, err := m.Create(ctx, before)
	require.NoError(t, err, "checks out the morning the next stay begins")
	assert.Equal(t, domain.MustDateRange("2025-12-10", "2025-12-11"), res.Range)

	got, err := m.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, got.Range.CheckIn.Equal(at(10, 0)))
	assert.True(t, got.Range.CheckOut.Equal(at(11, 0)))
}

func TestCreate_TodayIsAllowed(t *testing.T) {
	m, _ := newManager(t)

	req := request(named("villa-1", 1, "100"))
	req.Range = domain.MustDateRange("2025-11-01", "2025-11-02")
	_, err := m.Create(context.Background(), req)
	assert.NoError(t, err)
}

func TestCreate_AllowPastCheckin(t *testing.T) {
	s := fixtures.OpenStore(t)
	fixtures.SeedNamedUnit(t, s, "villa-1", "villa")
	m := NewManager(s, Options{Now: fixtures.Clock(), AllowPastCheckin: true})

	req := request(named("villa-1", 1, "100"))
	req.Range = domain.MustDateRange("2025-01-01", "2025-01-03")
	_, err := m.Create(context.Background(), req)
	assert.NoError(t, err)
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	res, err := m.Create(ctx, request(named("villa-1", 1, "100")))
	require.NoError(t, err)

	for _, next := range []domain.ReservationStatus{domain.ReservationConfirmed, domain.ReservationCheckedIn, domain.ReservationCheckedOut} {
		res, err = m.UpdateStatus(ctx, res.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, res.Status)
	}

	_, err = m.Cancel(ctx, res.ID)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidTransition), "checked_out is terminal")

	stored, err := m.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCheckedOut, stored.Status)

	_, err = m.UpdateStatus(ctx, res.ID, "archived")
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	_, err = m.UpdateStatus(ctx, "missing", domain.ReservationConfirmed)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestCancel_ReleasesUnits(t *testing.T) {
	m, s := newManager(t)
	ctx := context.Background()

	res, err := m.Create(ctx, request(fungible("atv", 3, "10"), named("villa-1", 1, "100")))
	require.NoError(t, err)
	assert.Equal(t, 0, countATV(t, s, december))

	cancelled, err := m.Cancel(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCancelled, cancelled.Status)

	_, err = m.Create(ctx, request(fungible("atv", 3, "10"), named("villa-1", 1, "100")))
	assert.NoError(t, err, "released units are bookable again")
}

func TestCreate_ConcurrentLastNamedUnit(t *testing.T) {
	m, s := newManager(t)
	ctx := context.Background()

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := m.Create(ctx, request(named("villa-1", 1, "100")))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, err := range failures {
		code := errors.CodeOf(err)
		assert.Contains(t, []string{errors.CodeInsufficientInventory, errors.CodeConflict, errors.CodeBusy}, code)
	}

	bookings, err := s.Queries().NamedUnitBookings(ctx, "villa-1", domain.ReleasedStatuses)
	require.NoError(t, err)
	assert.Len(t, bookings, 1, "never both committed")
}

func TestCreate_ConcurrentFungibleConservation(t *testing.T) {
	s := fixtures.OpenStore(t)
	fixtures.SeedFungibleUnits(t, s, "atv", 5)
	m := NewManager(s, Options{Now: fixtures.Clock()})
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allocated := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := m.Create(ctx, request(fungible("atv", 1, "10")))
			if err != nil {
				return
			}
			mu.Lock()
			allocated += len(res.Lines)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, allocated)
	assert.Equal(t, 5, countATV(t, s, december)+allocated)

	codes := map[string]bool{}
	rows, err := s.Queries().ProductBookings(ctx, "atv", domain.ReleasedStatuses)
	require.NoError(t, err)
	units := map[string]bool{}
	for _, b := range rows {
		assert.False(t, units[b.UnitID], "unit %s double booked", b.UnitID)
		units[b.UnitID] = true
		res, err := m.Get(ctx, b.ReservationID)
		require.NoError(t, err)
		assert.False(t, codes[res.Code], "duplicate code %s", res.Code)
		codes[res.Code] = true
	}
}

func TestOptions_Defaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, time.UTC, opts.Location)
	assert.NotEmpty(t, opts.NewID())
	assert.WithinDuration(t, time.Now(), opts.Now(), time.Second)
}
