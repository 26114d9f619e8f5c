package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-realtime-reservations/internal/realtime"
	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
	"github.com/ariefcatur/go-realtime-reservations/internal/slots"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Lifecycle is the reservation controller as the HTTP layer uses it.
type Lifecycle interface {
	Get(ctx context.Context, p reservations.Principal, id string) (reservations.Reservation, error)
	AvailableSlots(ctx context.Context, venueID string, date time.Time) ([]slots.TimeOfDay, error)
	Create(ctx context.Context, p reservations.Principal, d reservations.Draft) (reservations.Reservation, error)
	Transition(ctx context.Context, p reservations.Principal, id string, to reservations.Status) (reservations.Reservation, error)
	UpdateArrival(ctx context.Context, p reservations.Principal, id string, a reservations.ArrivalStatus) (reservations.Reservation, error)
	MoveToRequests(ctx context.Context, p reservations.Principal, id string) (reservations.Reservation, bool, error)
	Edit(ctx context.Context, p reservations.Principal, id string, e reservations.Edit) (reservations.Reservation, error)
	Cancel(ctx context.Context, p reservations.Principal, id string) (reservations.Reservation, error)
	AssignTable(ctx context.Context, p reservations.Principal, id, tableID string) (reservations.Reservation, error)
}

type ReservationsHandler struct {
	Lifecycle Lifecycle
	Log       *zap.Logger
}

type CreateReservationReq struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Guests         int    `json:"guests"`
	Comments       string `json:"comments"`
	Allergies      string `json:"allergies"`
	SpecialRequest string `json:"special_request"`
}

type EditReservationReq struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	Date           *string `json:"date"`
	Time           *string `json:"time"`
	Guests         *int    `json:"guests"`
	Comments       *string `json:"comments"`
	Allergies      *string `json:"allergies"`
	SpecialRequest *string `json:"special_request"`
}

type AssignTableReq struct {
	TableID string `json:"table_id"`
}

type ReservationResp struct {
	Reservation realtime.View `json:"reservation"`
	Moved       *bool         `json:"moved,omitempty"`
}

type SlotsResp struct {
	VenueID string   `json:"venue_id"`
	Date    string   `json:"date"`
	Slots   []string `json:"slots"`
}

func (h *ReservationsHandler) Register(r chi.Router) {
	r.Get("/venues/{venueID}/slots", h.availableSlots)
	r.Post("/venues/{venueID}/reservations", h.create)
	r.Get("/reservations/{id}", h.get)
	r.Patch("/reservations/{id}", h.edit)
	r.Post("/reservations/{id}/status/{status}", h.transition)
	r.Post("/reservations/{id}/arrival/{arrival}", h.updateArrival)
	r.Post("/reservations/{id}/move-to-requests", h.moveToRequests)
	r.Post("/reservations/{id}/cancel", h.cancel)
	r.Post("/reservations/{id}/table", h.assignTable)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *ReservationsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, reservations.ErrDuplicate):
		code = http.StatusConflict
	case reservations.IsValidation(err):
		code = http.StatusBadRequest
	case reservations.IsPermission(err):
		code, msg = http.StatusForbidden, "forbidden"
	case reservations.IsIllegalTransition(err), errors.Is(err, reservations.ErrVersionConflict):
		code = http.StatusConflict
	case errors.Is(err, reservations.ErrNotFound), errors.Is(err, reservations.ErrVenueNotFound):
		code = http.StatusNotFound
	default:
		msg = "internal error"
		if h.Log != nil {
			h.Log.Error("request failed",
				zap.String("path", r.URL.Path),
				zap.String("request_id", r.Header.Get("X-Request-Id")),
				zap.Error(err))
		}
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h *ReservationsHandler) reply(w http.ResponseWriter, code int, res reservations.Reservation) {
	writeJSON(w, code, ReservationResp{Reservation: realtime.ViewOf(res)})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (h *ReservationsHandler) availableSlots(w http.ResponseWriter, r *http.Request) {
	venueID := chi.URLParam(r, "venueID")
	date, err := slots.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		badRequest(w, "date must be YYYY-MM-DD")
		return
	}
	ts, err := h.Lifecycle.AvailableSlots(r.Context(), venueID, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := SlotsResp{VenueID: venueID, Date: date.Format(slots.DateLayout), Slots: make([]string, 0, len(ts))}
	for _, t := range ts {
		out.Slots = append(out.Slots, t.String())
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReservationsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	date, err := slots.ParseDate(req.Date)
	if err != nil {
		badRequest(w, "date must be YYYY-MM-DD")
		return
	}
	at, err := slots.ParseTimeOfDay(req.Time)
	if err != nil {
		badRequest(w, "time must be HH:MM")
		return
	}

	res, err := h.Lifecycle.Create(r.Context(), PrincipalFrom(r.Context()), reservations.Draft{
		VenueID:        chi.URLParam(r, "venueID"),
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Date:           date,
		Time:           at,
		Guests:         req.Guests,
		Comments:       req.Comments,
		Allergies:      req.Allergies,
		SpecialRequest: req.SpecialRequest,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reply(w, http.StatusCreated, res)
}

func (h *ReservationsHandler) get(w http.ResponseWriter, r *http.Request) {
	res, err := h.Lifecycle.Get(r.Context(), PrincipalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reply(w, http.StatusOK, res)
}

func (h *ReservationsHandler) transition(w http.ResponseWriter, r *http.Request) {
	to := reservations.Status(chi.URLParam(r, "status"))
	res, err := h.Lifecycle.Transition(r.Context(), PrincipalFrom(r.Context()), chi.URLParam(r, "id"), to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reply(w, http.StatusOK, res)
}

func (h *ReservationsHandler) updateArrival(w http.ResponseWriter, r *http.Request) {
	a := reservations.ArrivalStatus(chi.URLParam(r, "arrival"))
	res, err := h.Lifecycle.UpdateArrival(r.Context(), PrincipalFrom(r.Context()), chi.URLParam(r, "id"), a)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reply(w, http.StatusOK, res)
}

func (h *ReservationsHandler) moveToRequests(w http.ResponseWriter, r *http.Request) {
	res, moved, err := h.Lifecycle.MoveToRequests(r.Context(), PrincipalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReservationResp{Reservation: realtime.ViewOf(res), Moved: &moved})
}

func (h *ReservationsHandler) edit(w http.ResponseWriter, r *http.Request) {
	var req EditReservationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	e := reservations.Edit{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Guests:         req.Guests,
		Comments:       req.Comments,
		Allergies:      req.Allergies,
		SpecialRequest: req.SpecialRequest,
	}
	if req.Date != nil {
		d, err := slots.ParseDate(*req.Date)
		if err != nil {
			badRequest(w, "date must be YYYY-MM-DD")
			return
		}
		e.Date = &d
	}
	if req.Time != nil {
		t, err := slots.ParseTimeOfDay(*req.Time)
		if err != nil {
			badRequest(w, "time must be HH:MM")
			return
		}
		e.Time = &t
	}

	res, err := h.Lifecycle.Edit(r.Context(), PrincipalFrom(r.Context()), chi.URLParam(r, "id"), e)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reply(w, http.StatusOK, res)
}

func (h *ReservationsHandler) cancel(w http.ResponseWriter, r *http.Request) {
	res, err := h.Lifecycle.Cancel(r.Context(), PrincipalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reply(w, http.StatusOK, res)
}

func (h *ReservationsHandler) assignTable(w http.ResponseWriter, r *http.Request) {
	var req AssignTableReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	res, err := h.Lifecycle.AssignTable(r.Context(), PrincipalFrom(r.Context()), chi.URLParam(r, "id"), req.TableID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reply(w, http.StatusOK, res)
}
