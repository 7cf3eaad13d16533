package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/prastut/wedding-jarvis-sub000/internal/apperrors"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

const guestColumns = `phone, name, opted_in, language, side, rsvp_status, rsvp_count, first_seen_at, last_inbound_at`

// GuestFilter narrows ListGuests. Nil fields do not filter.
type GuestFilter struct {
	OptedIn  *bool
	Language *models.Language
	Side     *models.Side
	RSVP     *models.RSVPStatus
}

// GuestStats summarises RSVP answers
type GuestStats struct {
	Total        int `json:"total"`
	OptedIn      int `json:"opted_in"`
	Attending    int `json:"attending"`
	HeadCount    int `json:"head_count"`
	NotAttending int `json:"not_attending"`
	Unanswered   int `json:"unanswered"`
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGuest(row rowScanner) (*models.Guest, error) {
	var (
		g                    models.Guest
		optedIn              int
		language, side       sql.NullString
		rsvpStatus           string
		rsvpCount            sql.NullInt64
		firstSeen, lastInbnd int64
	)
	if err := row.Scan(&g.PhoneNumber, &g.Name, &optedIn, &language, &side, &rsvpStatus, &rsvpCount, &firstSeen, &lastInbnd); err != nil {
		return nil, err
	}
	g.OptedIn = optedIn != 0
	if language.Valid {
		l := models.Language(language.String)
		g.Language = &l
	}
	if side.Valid {
		sd := models.Side(side.String)
		g.Side = &sd
	}
	g.RSVPStatus = models.RSVPStatus(rsvpStatus)
	if rsvpCount.Valid {
		c := int(rsvpCount.Int64)
		g.RSVPCount = &c
	}
	g.FirstSeenAt = fromMillis(firstSeen)
	g.LastInboundAt = fromMillis(lastInbnd)
	return &g, nil
}

// GetGuest retrieves a guest by phone number
func (s *Storage) GetGuest(ctx context.Context, phoneNumber string) (*models.Guest, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+guestColumns+` FROM guests WHERE phone = ?`, phoneNumber)
	g, err := scanGuest(row)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("guest %s: %w", phoneNumber, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}
	return g, nil
}

// GetOrCreateGuest records an inbound contact. New guests start opted in;
// existing guests get their last-inbound time and (non-empty) display name refreshed.
func (s *Storage) GetOrCreateGuest(ctx context.Context, phoneNumber, name string, now time.Time) (*models.Guest, error) {
	ts := toMillis(now)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guests (phone, name, opted_in, first_seen_at, last_inbound_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(phone) DO UPDATE SET
			last_inbound_at = excluded.last_inbound_at,
			name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE guests.name END`,
		phoneNumber, name, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert guest: %w", err)
	}
	return s.GetGuest(ctx, phoneNumber)
}

// SaveGuest writes every mutable field of an existing guest
func (s *Storage) SaveGuest(ctx context.Context, g models.Guest) error {
	language, side, count, err := profileColumns(g)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE guests SET name = ?, opted_in = ?, language = ?, side = ?, rsvp_status = ?, rsvp_count = ?, last_inbound_at = ?
		WHERE phone = ?`,
		g.Name, boolToInt(g.OptedIn), language, side, string(g.RSVPStatus), count, toMillis(g.LastInboundAt), g.PhoneNumber)
	if err != nil {
		return fmt.Errorf("failed to save guest: %w", err)
	}
	return guestAffected(res, g.PhoneNumber)
}

// SaveProfile writes the language, side and RSVP of an existing guest.
// Opt-in is left alone; it only changes through SetOptIn so a concurrent
// operator opt-out is never overwritten by a stale copy.
func (s *Storage) SaveProfile(ctx context.Context, g models.Guest) error {
	language, side, count, err := profileColumns(g)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE guests SET language = ?, side = ?, rsvp_status = ?, rsvp_count = ?
		WHERE phone = ?`,
		language, side, string(g.RSVPStatus), count, g.PhoneNumber)
	if err != nil {
		return fmt.Errorf("failed to save guest profile: %w", err)
	}
	return guestAffected(res, g.PhoneNumber)
}

func profileColumns(g models.Guest) (language, side sql.NullString, count sql.NullInt64, err error) {
	if (g.RSVPCount != nil) != (g.RSVPStatus == models.RSVPAttending) {
		return language, side, count, fmt.Errorf("%w: head-count must be set exactly when attending", apperrors.ErrInvalidInput)
	}
	if g.Language != nil {
		language = nullString(string(*g.Language))
	}
	if g.Side != nil {
		side = nullString(string(*g.Side))
	}
	if g.RSVPCount != nil {
		count = sql.NullInt64{Int64: int64(*g.RSVPCount), Valid: true}
	}
	return language, side, count, nil
}

func guestAffected(res sql.Result, phoneNumber string) error {
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("guest %s: %w", phoneNumber, apperrors.ErrNotFound)
	}
	return nil
}

// SetOptIn toggles broadcast opt-in for a guest
func (s *Storage) SetOptIn(ctx context.Context, phoneNumber string, optedIn bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE guests SET opted_in = ? WHERE phone = ?`, boolToInt(optedIn), phoneNumber)
	if err != nil {
		return fmt.Errorf("failed to update opt-in: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("guest %s: %w", phoneNumber, apperrors.ErrNotFound)
	}
	return nil
}

// ListGuests returns guests matching filter, oldest contact first
func (s *Storage) ListGuests(ctx context.Context, filter GuestFilter) ([]models.Guest, error) {
	var (
		where []string
		args  []any
	)
	if filter.OptedIn != nil {
		where = append(where, "opted_in = ?")
		args = append(args, boolToInt(*filter.OptedIn))
	}
	if filter.Language != nil {
		where = append(where, "language = ?")
		args = append(args, string(*filter.Language))
	}
	if filter.Side != nil {
		where = append(where, "side = ?")
		args = append(args, string(*filter.Side))
	}
	if filter.RSVP != nil {
		where = append(where, "rsvp_status = ?")
		args = append(args, string(*filter.RSVP))
	}

	query := `SELECT ` + guestColumns + ` FROM guests`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY first_seen_at, phone"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	defer rows.Close()

	guests := []models.Guest{}
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guest: %w", err)
		}
		guests = append(guests, *g)
	}
	return guests, rows.Err()
}

// GuestStats counts guests by RSVP answer
func (s *Storage) GuestStats(ctx context.Context) (GuestStats, error) {
	var st GuestStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(opted_in), 0),
			COALESCE(SUM(CASE WHEN rsvp_status = 'attending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN rsvp_status = 'attending' THEN rsvp_count ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN rsvp_status = 'not_attending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN rsvp_status = '' THEN 1 ELSE 0 END), 0)
		FROM guests`).Scan(&st.Total, &st.OptedIn, &st.Attending, &st.HeadCount, &st.NotAttending, &st.Unanswered)
	if err != nil {
		return st, fmt.Errorf("failed to count guests: %w", err)
	}
	return st, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
