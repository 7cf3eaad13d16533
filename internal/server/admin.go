package server

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/prastut/wedding-jarvis-sub000/internal/apperrors"
	"github.com/prastut/wedding-jarvis-sub000/internal/broadcast"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
	"github.com/prastut/wedding-jarvis-sub000/internal/storage"
	"github.com/prastut/wedding-jarvis-sub000/internal/whatsapp"
)

// requireAdmin checks the bearer token. An empty ADMIN_TOKEN disables the admin API.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || s.opts.AdminToken == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.AdminToken)) != 1 {
			s.writeError(w, fmt.Errorf("%w: admin token required", apperrors.ErrUnauthenticated))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid body: %v", apperrors.ErrInvalidInput, err)
	}
	return nil
}

func (s *Server) phoneParam(r *http.Request) string {
	return whatsapp.NormalizePhoneNumber(chi.URLParam(r, "phone"), s.opts.DefaultCountryCode)
}

func parseGuestFilter(r *http.Request) (storage.GuestFilter, error) {
	var f storage.GuestFilter
	q := r.URL.Query()

	if v := q.Get("opted_in"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("%w: opted_in must be a boolean", apperrors.ErrInvalidInput)
		}
		f.OptedIn = &b
	}
	if v := q.Get("language"); v != "" {
		lang := models.Language(v)
		if !lang.Valid() {
			return f, fmt.Errorf("%w: unknown language %q", apperrors.ErrInvalidInput, v)
		}
		f.Language = &lang
	}
	if v := q.Get("side"); v != "" {
		side := models.Side(v)
		if !side.Valid() {
			return f, fmt.Errorf("%w: unknown side %q", apperrors.ErrInvalidInput, v)
		}
		f.Side = &side
	}
	if v, ok := q["rsvp"]; ok {
		status := models.RSVPStatus(v[0])
		if status == "unanswered" {
			status = models.RSVPUnset
		}
		if !status.Valid() {
			return f, fmt.Errorf("%w: unknown rsvp status %q", apperrors.ErrInvalidInput, v[0])
		}
		f.RSVP = &status
	}
	return f, nil
}

func (s *Server) listGuests(w http.ResponseWriter, r *http.Request) {
	filter, err := parseGuestFilter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	guests, err := s.store.ListGuests(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": guests, "count": len(guests)})
}

func (s *Server) setOptIn(optedIn bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone := s.phoneParam(r)
		if err := s.store.SetOptIn(r.Context(), phone, optedIn); err != nil {
			s.writeError(w, err)
			return
		}
		s.log.Info().Str("phone", phone).Bool("opted_in", optedIn).Msg("Operator changed opt-in")
		writeJSON(w, http.StatusOK, map[string]any{"phone_number": phone, "opted_in": optedIn})
	}
}

func (s *Server) guestMessages(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.store.History(r.Context(), s.phoneParam(r), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.GuestStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) listBroadcasts(w http.ResponseWriter, r *http.Request) {
	list, err := s.broadcasts.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": list})
}

func (s *Server) createBroadcast(w http.ResponseWriter, r *http.Request) {
	var d broadcast.Draft
	if err := decode(r, &d); err != nil {
		s.writeError(w, err)
		return
	}
	b, err := s.broadcasts.Create(r.Context(), d)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) getBroadcast(w http.ResponseWriter, r *http.Request) {
	b, err := s.broadcasts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) updateBroadcast(w http.ResponseWriter, r *http.Request) {
	var d broadcast.Draft
	if err := decode(r, &d); err != nil {
		s.writeError(w, err)
		return
	}
	b, err := s.broadcasts.Update(r.Context(), chi.URLParam(r, "id"), d)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) deleteBroadcast(w http.ResponseWriter, r *http.Request) {
	if err := s.broadcasts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sendBroadcast(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var filter broadcast.RecipientFilter
	if r.ContentLength != 0 {
		if err := decode(r, &filter); err != nil {
			s.writeError(w, err)
			return
		}
	}
	for i, p := range filter.Include {
		filter.Include[i] = whatsapp.NormalizePhoneNumber(p, s.opts.DefaultCountryCode)
	}
	for i, p := range filter.Exclude {
		filter.Exclude[i] = whatsapp.NormalizePhoneNumber(p, s.opts.DefaultCountryCode)
	}

	if err := s.broadcasts.Send(r.Context(), id, &filter); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"broadcast_id": id, "status": string(models.BroadcastPending)})
}

func (s *Server) cancelBroadcast(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.broadcasts.Cancel(id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"broadcast_id": id})
}

func (s *Server) broadcastProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if p, ok := s.broadcasts.Progress(id); ok {
		writeJSON(w, http.StatusOK, p)
		return
	}
	// not dispatched by this process: report the stored counts
	b, err := s.broadcasts.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, broadcast.Progress{
		BroadcastID: b.ID,
		Status:      b.Status,
		Total:       b.SentCount + b.FailedCount,
		Sent:        b.SentCount,
		Failed:      b.FailedCount,
	})
}

func (s *Server) broadcastLog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.broadcasts.Get(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	entries, err := s.store.BroadcastLog(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}
