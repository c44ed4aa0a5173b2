package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-reservation/internal/clock"
	"github.com/iliyamo/event-ticket-reservation/internal/model"
	"github.com/iliyamo/event-ticket-reservation/internal/repository"
	"github.com/iliyamo/event-ticket-reservation/internal/service"
)

// newReserveContext builds an echo context carrying an authenticated
// user, the way JWTAuth stores claims.
func newReserveContext(e *echo.Echo, method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(userID))
	c.Set("role", model.RoleCustomer)
	return c, rec
}

func TestReservationHandler_Reserve_ErrorMapping(t *testing.T) {
	t.Parallel()

	e := echo.New()

	t.Run("unknown offering maps to 404", func(t *testing.T) {
		inv := service.NewInventory(newHandlerFakeStore(nil), nil, clock.NewSystem())
		h := NewReservationHandler(inv)

		c, rec := newReserveContext(e, http.MethodPost, "/v1/reservations", `{"ticket_info_id":99,"count":1}`, 42)
		if err := h.Reserve(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("insufficient seats map to 409", func(t *testing.T) {
		store := newHandlerFakeStore(&repository.TicketInfoRecord{
			ID: 1, EventID: 10, Available: true, LeftSeats: 1, TotalSeats: 10,
			EventTitle: "Autumn Concert", EventPlace: "Main Hall",
			EventDate: time.Date(2026, 9, 20, 19, 0, 0, 0, time.UTC),
		})
		inv := service.NewInventory(store, nil, clock.NewSystem())
		h := NewReservationHandler(inv)

		c, rec := newReserveContext(e, http.MethodPost, "/v1/reservations", `{"ticket_info_id":1,"count":5}`, 42)
		if err := h.Reserve(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"available":1`) {
			t.Fatalf("expected available count in body, got %s", rec.Body.String())
		}
	})

	t.Run("zero count maps to 400", func(t *testing.T) {
		inv := service.NewInventory(newHandlerFakeStore(nil), nil, clock.NewSystem())
		h := NewReservationHandler(inv)

		c, rec := newReserveContext(e, http.MethodPost, "/v1/reservations", `{"ticket_info_id":1,"count":0}`, 42)
		if err := h.Reserve(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing user maps to 401", func(t *testing.T) {
		inv := service.NewInventory(newHandlerFakeStore(nil), nil, clock.NewSystem())
		h := NewReservationHandler(inv)

		req := httptest.NewRequest(http.MethodPost, "/v1/reservations", strings.NewReader(`{"ticket_info_id":1,"count":1}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		if err := h.Reserve(e.NewContext(req, rec)); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestReservationHandler_Cancel_ErrorMapping(t *testing.T) {
	t.Parallel()

	e := echo.New()
	eventDate := time.Date(2026, 9, 20, 19, 0, 0, 0, time.UTC)
	dayBefore := clock.NewFixed(eventDate.AddDate(0, 0, -1))

	seed := func() (*handlerFakeStore, uint64) {
		store := newHandlerFakeStore(&repository.TicketInfoRecord{
			ID: 1, EventID: 10, Available: true, LeftSeats: 7, TotalSeats: 10,
			EventTitle: "Autumn Concert", EventPlace: "Main Hall", EventDate: eventDate,
		})
		res := &model.Reservation{UserID: 42, TicketInfoID: 1, Count: 3}
		if err := store.CreateReservation(context.Background(), res); err != nil {
			panic(err)
		}
		return store, res.ID
	}

	t.Run("owner cancel succeeds with 204", func(t *testing.T) {
		store, _ := seed()
		h := NewReservationHandler(service.NewInventory(store, nil, dayBefore))

		c, rec := newReserveContext(e, http.MethodDelete, "/v1/reservations/1", "", 42)
		c.SetPath("/v1/reservations/:id")
		c.SetParamNames("id")
		c.SetParamValues("1")
		if err := h.CancelReservation(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("foreign reservation maps to 403", func(t *testing.T) {
		store, _ := seed()
		h := NewReservationHandler(service.NewInventory(store, nil, dayBefore))

		c, rec := newReserveContext(e, http.MethodDelete, "/v1/reservations/1", "", 7)
		c.SetPath("/v1/reservations/:id")
		c.SetParamNames("id")
		c.SetParamValues("1")
		if err := h.CancelReservation(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("deadline passed maps to 409", func(t *testing.T) {
		store, _ := seed()
		eventDay := clock.NewFixed(eventDate)
		h := NewReservationHandler(service.NewInventory(store, nil, eventDay))

		c, rec := newReserveContext(e, http.MethodDelete, "/v1/reservations/1", "", 42)
		c.SetPath("/v1/reservations/:id")
		c.SetParamNames("id")
		c.SetParamValues("1")
		if err := h.CancelReservation(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown reservation maps to 404", func(t *testing.T) {
		store, _ := seed()
		h := NewReservationHandler(service.NewInventory(store, nil, dayBefore))

		c, rec := newReserveContext(e, http.MethodDelete, "/v1/reservations/99", "", 42)
		c.SetPath("/v1/reservations/:id")
		c.SetParamNames("id")
		c.SetParamValues("99")
		if err := h.CancelReservation(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

// handlerFakeStore is a minimal in-memory service.SeatStore for
// exercising status-code mapping.
type handlerFakeStore struct {
	mu           sync.Mutex
	infos        map[uint64]repository.TicketInfoRecord
	reservations map[uint64]model.Reservation
	nextID       uint64
}

func newHandlerFakeStore(info *repository.TicketInfoRecord) *handlerFakeStore {
	m := make(map[uint64]repository.TicketInfoRecord)
	if info != nil {
		m[info.ID] = *info
	}
	return &handlerFakeStore{infos: m, reservations: make(map[uint64]model.Reservation)}
}

func (f *handlerFakeStore) GetTicketInfo(_ context.Context, id uint64) (*repository.TicketInfoRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.infos[id]
	if !ok {
		return nil, repository.ErrTicketInfoNotFound
	}
	return &info, nil
}

func (f *handlerFakeStore) SetLeftSeats(_ context.Context, id uint64, leftSeats uint32) error {
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

func (f *handlerFakeStore) GetReservation(_ context.Context, id uint64) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return &res, nil
}

func (f *handlerFakeStore) CreateReservation(_ context.Context, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	res.ID = f.nextID
	res.CreatedAt = time.Now().UTC()
	f.reservations[res.ID] = *res
	return nil
}

func (f *handlerFakeStore) ListReservationsByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Reservation
	for _, res := range f.reservations {
		if res.UserID == userID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (f *handlerFakeStore) ReserveSeats(_ context.Context, ticketInfoID, userID uint64, count uint32) (*model.Reservation, error) {
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
	res := model.Reservation{ID: f.nextID, UserID: userID, TicketInfoID: ticketInfoID, Count: count, CreatedAt: time.Now().UTC()}
	f.reservations[res.ID] = res
	return &res, nil
}

func (f *handlerFakeStore) CancelReservation(_ context.Context, res *model.Reservation, restoreSeats bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reservations[res.ID]; !ok {
		return false, nil
	}
	delete(f.reservations, res.ID)
	if restoreSeats {
		if info, ok := f.infos[res.TicketInfoID]; ok {
			info.LeftSeats += res.Count
			if info.LeftSeats > info.TotalSeats {
				info.LeftSeats = info.TotalSeats
			}
			f.infos[res.TicketInfoID] = info
		}
	}
	return true, nil
}
