package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/event-ticket-reservation/internal/clock"
	"github.com/iliyamo/event-ticket-reservation/internal/model"
	"github.com/iliyamo/event-ticket-reservation/internal/repository"
)

var testEventDate = time.Date(2026, 9, 20, 19, 0, 0, 0, time.UTC)

func testTicketInfo(left, total uint32) *repository.TicketInfoRecord {
	return &repository.TicketInfoRecord{
		ID:         1,
		EventID:    10,
		Available:  true,
		LeftSeats:  left,
		TotalSeats: total,
		EventTitle: "Autumn Concert",
		EventPlace: "Main Hall",
		EventDate:  testEventDate,
	}
}

func TestInventory_Reserve_StorePath(t *testing.T) {
	t.Parallel()

	t.Run("decrements store and records reservation", func(t *testing.T) {
		store := newFakeSeatStore(testTicketInfo(10, 10))
		svc := NewInventory(store, nil, clock.NewSystem())

		id, err := svc.Reserve(context.Background(), 1, 42, 3)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if id == 0 {
			t.Fatalf("expected reservation id to be set")
		}
		if got := store.leftSeats(1); got != 7 {
			t.Fatalf("expected 7 seats left, got %d", got)
		}
		res, err := store.GetReservation(context.Background(), id)
		if err != nil {
			t.Fatalf("expected reservation in ledger, got %v", err)
		}
		if res.UserID != 42 || res.Count != 3 {
			t.Fatalf("unexpected reservation %+v", res)
		}
	})

	t.Run("zero count is rejected", func(t *testing.T) {
		store := newFakeSeatStore(testTicketInfo(10, 10))
		svc := NewInventory(store, nil, clock.NewSystem())

		if _, err := svc.Reserve(context.Background(), 1, 42, 0); err != ErrInvalidCount {
			t.Fatalf("expected ErrInvalidCount, got %v", err)
		}
	})

	t.Run("unknown offering", func(t *testing.T) {
		store := newFakeSeatStore()
		svc := NewInventory(store, nil, clock.NewSystem())

		if _, err := svc.Reserve(context.Background(), 99, 42, 1); !errors.Is(err, repository.ErrTicketInfoNotFound) {
			t.Fatalf("expected ErrTicketInfoNotFound, got %v", err)
		}
	})

	t.Run("closed offering", func(t *testing.T) {
		info := testTicketInfo(10, 10)
		info.Available = false
		store := newFakeSeatStore(info)
		svc := NewInventory(store, nil, clock.NewSystem())

		if _, err := svc.Reserve(context.Background(), 1, 42, 1); err != ErrReservationUnavailable {
			t.Fatalf("expected ErrReservationUnavailable, got %v", err)
		}
	})

	t.Run("insufficient seats leave the store untouched", func(t *testing.T) {
		store := newFakeSeatStore(testTicketInfo(2, 10))
		svc := NewInventory(store, nil, clock.NewSystem())

		_, err := svc.Reserve(context.Background(), 1, 42, 3)
		if !errors.Is(err, repository.ErrInsufficientSeats) {
			t.Fatalf("expected ErrInsufficientSeats, got %v", err)
		}
		var insufficient *InsufficientSeatsError
		if !errors.As(err, &insufficient) || insufficient.Available != 2 {
			t.Fatalf("expected available count 2 in error, got %v", err)
		}
		if got := store.leftSeats(1); got != 2 {
			t.Fatalf("expected 2 seats left, got %d", got)
		}
		if n := store.reservationCount(); n != 0 {
			t.Fatalf("expected empty ledger, got %d rows", n)
		}
	})
}

func TestInventory_Reserve_CachePath(t *testing.T) {
	t.Parallel()

	t.Run("cached offering decrements the cache only", func(t *testing.T) {
		store := newFakeSeatStore(testTicketInfo(10, 10))
		cache := newFakeSeatCache(map[uint64]uint32{1: 8})
		svc := NewInventory(store, cache, clock.NewSystem())

		id, err := svc.Reserve(context.Background(), 1, 42, 3)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got, _ := cache.value(1); got != 5 {
			t.Fatalf("expected 5 seats in cache, got %d", got)
		}
		if got := store.leftSeats(1); got != 10 {
			t.Fatalf("store must not change on the cache path, got %d", got)
		}
		if _, err := store.GetReservation(context.Background(), id); err != nil {
			t.Fatalf("expected ledger row, got %v", err)
		}
	})

	t.Run("insufficient cached seats", func(t *testing.T) {
		store := newFakeSeatStore(testTicketInfo(10, 10))
		cache := newFakeSeatCache(map[uint64]uint32{1: 2})
		svc := NewInventory(store, cache, clock.NewSystem())

		_, err := svc.Reserve(context.Background(), 1, 42, 3)
		if !errors.Is(err, repository.ErrInsufficientSeats) {
			t.Fatalf("expected ErrInsufficientSeats, got %v", err)
		}
		var insufficient *InsufficientSeatsError
		if !errors.As(err, &insufficient) || insufficient.Available != 2 {
			t.Fatalf("expected available count 2 in error, got %v", err)
		}
		if got, _ := cache.value(1); got != 2 {
			t.Fatalf("expected cache unchanged at 2, got %d", got)
		}
	})

	t.Run("failed ledger insert returns seats to the cache", func(t *testing.T) {
		store := newFakeSeatStore(testTicketInfo(10, 10))
		store.failCreate = errors.New("connection lost")
		cache := newFakeSeatCache(map[uint64]uint32{1: 8})
		svc := NewInventory(store, cache, clock.NewSystem())

		if _, err := svc.Reserve(context.Background(), 1, 42, 3); err == nil {
			t.Fatalf("expected insert failure to surface")
		}
		if got, _ := cache.value(1); got != 8 {
			t.Fatalf("expected compensated cache value 8, got %d", got)
		}
		if n := store.reservationCount(); n != 0 {
			t.Fatalf("expected empty ledger, got %d rows", n)
		}
	})

	t.Run("uncached offering falls through to the store", func(t *testing.T) {
		store := newFakeSeatStore(testTicketInfo(10, 10))
		cache := newFakeSeatCache(nil)
		svc := NewInventory(store, cache, clock.NewSystem())

		if _, err := svc.Reserve(context.Background(), 1, 42, 4); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := store.leftSeats(1); got != 6 {
			t.Fatalf("expected store decrement to 6, got %d", got)
		}
		if _, ok := cache.value(1); ok {
			t.Fatalf("cache must stay empty on the store path")
		}
	})
}

// Concurrent reservations must never take more seats than exist, and
// the ledger must account for every seat that left the counter.
func TestInventory_Reserve_NoOverselling(t *testing.T) {
	t.Parallel()

	const (
		total   = 50
		workers = 120
	)

	t.Run("store path", func(t *testing.T) {
		store := newFakeSeatStore(testTicketInfo(total, total))
		svc := NewInventory(store, nil, clock.NewSystem())

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(user uint64) {
				defer wg.Done()
				_, _ = svc.Reserve(context.Background(), 1, user, 1)
			}(uint64(i + 1))
		}
		wg.Wait()

		left := store.leftSeats(1)
		reserved := store.reservedTotal(1)
		if reserved > total {
			t.Fatalf("oversold: %d seats reserved of %d", reserved, total)
		}
		if left+reserved != total {
			t.Fatalf("conservation violated: left=%d reserved=%d total=%d", left, reserved, total)
		}
		if left != 0 {
			t.Fatalf("expected demand to drain the offering, left=%d", left)
		}
	})

	t.Run("cache path", func(t *testing.T) {
		store := newFakeSeatStore(testTicketInfo(total, total))
		cache := newFakeSeatCache(map[uint64]uint32{1: total})
		svc := NewInventory(store, cache, clock.NewSystem())

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(user uint64) {
				defer wg.Done()
				_, _ = svc.Reserve(context.Background(), 1, user, 1)
			}(uint64(i + 1))
		}
		wg.Wait()

		left, _ := cache.value(1)
		reserved := store.reservedTotal(1)
		if reserved > total {
			t.Fatalf("oversold: %d seats reserved of %d", reserved, total)
		}
		if left+reserved != total {
			t.Fatalf("conservation violated: left=%d reserved=%d total=%d", left, reserved, total)
		}
		if got := store.leftSeats(1); got != total {
			t.Fatalf("store must not change while cached, got %d", got)
		}
	})
}

func TestInventory_Cancel(t *testing.T) {
	t.Parallel()

	dayBefore := clock.NewFixed(testEventDate.AddDate(0, 0, -1))

	seed := func(left uint32) (*fakeSeatStore, uint64) {
		store := newFakeSeatStore(testTicketInfo(left, 10))
		res := &model.Reservation{UserID: 42, TicketInfoID: 1, Count: 3}
		if err := store.CreateReservation(context.Background(), res); err != nil {
			panic(err)
		}
		return store, res.ID
	}

	t.Run("store path restores seats", func(t *testing.T) {
		store, resID := seed(7)
		svc := NewInventory(store, nil, dayBefore)

		if err := svc.Cancel(context.Background(), resID, 42); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := store.leftSeats(1); got != 10 {
			t.Fatalf("expected 10 seats left after cancel, got %d", got)
		}
		if n := store.reservationCount(); n != 0 {
			t.Fatalf("expected ledger row removed, got %d rows", n)
		}
	})

	t.Run("cache path restores the cache only", func(t *testing.T) {
		store, resID := seed(7)
		cache := newFakeSeatCache(map[uint64]uint32{1: 4})
		svc := NewInventory(store, cache, dayBefore)

		if err := svc.Cancel(context.Background(), resID, 42); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got, _ := cache.value(1); got != 7 {
			t.Fatalf("expected 7 seats in cache, got %d", got)
		}
		if got := store.leftSeats(1); got != 7 {
			t.Fatalf("store must not change on the cache path, got %d", got)
		}
	})

	t.Run("failed cache restock surfaces after the ledger delete", func(t *testing.T) {
		store, resID := seed(7)
		cache := newFakeSeatCache(map[uint64]uint32{1: 4})
		cache.failIncr = errors.New("connection lost")
		svc := NewInventory(store, cache, dayBefore)

		if err := svc.Cancel(context.Background(), resID, 42); err == nil {
			t.Fatalf("expected restock failure to surface")
		}
		if n := store.reservationCount(); n != 0 {
			t.Fatalf("expected ledger row removed, got %d rows", n)
		}
		if got, _ := cache.value(1); got != 4 {
			t.Fatalf("expected cache untouched at 4, got %d", got)
		}
	})

	t.Run("second cancel reports not found and restores nothing", func(t *testing.T) {
		store, resID := seed(7)
		svc := NewInventory(store, nil, dayBefore)

		if err := svc.Cancel(context.Background(), resID, 42); err != nil {
			t.Fatalf("first cancel: %v", err)
		}
		if err := svc.Cancel(context.Background(), resID, 42); !errors.Is(err, repository.ErrReservationNotFound) {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
		if got := store.leftSeats(1); got != 10 {
			t.Fatalf("expected seats restored exactly once, got %d", got)
		}
	})

	t.Run("only the owner may cancel", func(t *testing.T) {
		store, resID := seed(7)
		svc := NewInventory(store, nil, dayBefore)

		if err := svc.Cancel(context.Background(), resID, 7); err != ErrOwnershipMismatch {
			t.Fatalf("expected ErrOwnershipMismatch, got %v", err)
		}
		if n := store.reservationCount(); n != 1 {
			t.Fatalf("expected reservation kept, got %d rows", n)
		}
	})

	t.Run("blocked on the event day", func(t *testing.T) {
		store, resID := seed(7)
		eventMorning := clock.NewFixed(time.Date(2026, 9, 20, 0, 0, 1, 0, time.UTC))
		svc := NewInventory(store, nil, eventMorning)

		if err := svc.Cancel(context.Background(), resID, 42); err != ErrCancelDeadlinePassed {
			t.Fatalf("expected ErrCancelDeadlinePassed, got %v", err)
		}
	})

	t.Run("allowed until the end of the day before", func(t *testing.T) {
		store, resID := seed(7)
		lastMinute := clock.NewFixed(time.Date(2026, 9, 19, 23, 59, 59, 0, time.UTC))
		svc := NewInventory(store, nil, lastMinute)

		if err := svc.Cancel(context.Background(), resID, 42); err != nil {
			t.Fatalf("expected cancel to pass, got %v", err)
		}
	})
}

func TestInventory_Detail(t *testing.T) {
	t.Parallel()

	store := newFakeSeatStore(testTicketInfo(7, 10))
	res := &model.Reservation{UserID: 42, TicketInfoID: 1, Count: 3}
	if err := store.CreateReservation(context.Background(), res); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewInventory(store, nil, clock.NewSystem())

	t.Run("owner reads the detail", func(t *testing.T) {
		det, err := svc.Detail(context.Background(), res.ID, 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if det.EventTitle != "Autumn Concert" || det.Count != 3 {
			t.Fatalf("unexpected detail %+v", det)
		}
	})

	t.Run("other users are rejected", func(t *testing.T) {
		if _, err := svc.Detail(context.Background(), res.ID, 7); err != ErrOwnershipMismatch {
			t.Fatalf("expected ErrOwnershipMismatch, got %v", err)
		}
	})

	t.Run("unknown reservation", func(t *testing.T) {
		if _, err := svc.Detail(context.Background(), 999, 42); !errors.Is(err, repository.ErrReservationNotFound) {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
	})
}

// ---- fakes ----

type fakeSeatStore struct {
	mu           sync.Mutex
	infos        map[uint64]repository.TicketInfoRecord
	reservations map[uint64]model.Reservation
	nextID       uint64
	failCreate   error
}

func newFakeSeatStore(infos ...*repository.TicketInfoRecord) *fakeSeatStore {
	m := make(map[uint64]repository.TicketInfoRecord, len(infos))
	for _, info := range infos {
		m[info.ID] = *info
	}
	return &fakeSeatStore{
		infos:        m,
		reservations: make(map[uint64]model.Reservation),
	}
}

func (f *fakeSeatStore) GetTicketInfo(_ context.Context, id uint64) (*repository.TicketInfoRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.infos[id]
	if !ok {
		return nil, repository.ErrTicketInfoNotFound
	}
	return &info, nil
}

func (f *fakeSeatStore) SetLeftSeats(_ context.Context, id uint64, leftSeats uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.infos[id]
	if !ok {
		return repository.ErrTicketInfoNotFound
	}
	info.LeftSeats = leftSeats
	f.infos[id] = info
	return nil
}

func (f *fakeSeatStore) GetReservation(_ context.Context, id uint64) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return &res, nil
}

func (f *fakeSeatStore) CreateReservation(_ context.Context, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	f.nextID++
	res.ID = f.nextID
	res.CreatedAt = time.Now().UTC()
	f.reservations[res.ID] = *res
	return nil
}

func (f *fakeSeatStore) ListReservationsByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Reservation
	for _, res := range f.reservations {
		if res.UserID == userID {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeSeatStore) ReserveSeats(_ context.Context, ticketInfoID, userID uint64, count uint32) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.infos[ticketInfoID]
	if !ok {
		return nil, repository.ErrTicketInfoNotFound
	}
	if info.LeftSeats < count {
		return nil, repository.ErrInsufficientSeats
	}
	info.LeftSeats -= count
	f.infos[ticketInfoID] = info
	f.nextID++
	res := model.Reservation{
		ID:           f.nextID,
		UserID:       userID,
		TicketInfoID: ticketInfoID,
		Count:        count,
		CreatedAt:    time.Now().UTC(),
	}
	f.reservations[res.ID] = res
	return &res, nil
}

func (f *fakeSeatStore) CancelReservation(_ context.Context, res *model.Reservation, restoreSeats bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reservations[res.ID]; !ok {
		return false, nil
	}
	delete(f.reservations, res.ID)
	if restoreSeats {
		info, ok := f.infos[res.TicketInfoID]
		if ok {
			info.LeftSeats += res.Count
			if info.LeftSeats > info.TotalSeats {
				info.LeftSeats = info.TotalSeats
			}
			f.infos[res.TicketInfoID] = info
		}
	}
	return true, nil
}

func (f *fakeSeatStore) leftSeats(id uint64) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.infos[id].LeftSeats
}

func (f *fakeSeatStore) reservationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reservations)
}

func (f *fakeSeatStore) reservedTotal(ticketInfoID uint64) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total uint32
	for _, res := range f.reservations {
		if res.TicketInfoID == ticketInfoID {
			total += res.Count
		}
	}
	return total
}

type fakeSeatCache struct {
	mu       sync.Mutex
	entries  map[uint64]uint32
	failIncr error
}

func newFakeSeatCache(entries map[uint64]uint32) *fakeSeatCache {
	m := make(map[uint64]uint32, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return &fakeSeatCache{entries: m}
}

func (f *fakeSeatCache) GetLeftSeats(_ context.Context, ticketInfoID uint64) (uint32, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[ticketInfoID]
	return v, ok, nil
}

func (f *fakeSeatCache) SetLeftSeats(_ context.Context, ticketInfoID uint64, leftSeats uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[ticketInfoID] = leftSeats
	return nil
}

func (f *fakeSeatCache) DecrLeftSeats(_ context.Context, ticketInfoID uint64, count uint32) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[ticketInfoID]
	if !ok || v < count {
		return 0, repository.ErrInsufficientSeats
	}
	v -= count
	f.entries[ticketInfoID] = v
	return v, nil
}

func (f *fakeSeatCache) IncrLeftSeats(_ context.Context, ticketInfoID uint64, count uint32) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIncr != nil {
		return 0, f.failIncr
	}
	v := f.entries[ticketInfoID] + count
	f.entries[ticketInfoID] = v
	return v, nil
}

func (f *fakeSeatCache) DeleteLeftSeats(_ context.Context, ticketInfoID uint64) (uint32, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[ticketInfoID]
	if ok {
		delete(f.entries, ticketInfoID)
	}
	return v, ok, nil
}

func (f *fakeSeatCache) ListLeftSeatIDs(_ context.Context) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]uint64, 0, len(f.entries))
	for id := range f.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeSeatCache) value(ticketInfoID uint64) (uint32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[ticketInfoID]
	return v, ok
}
