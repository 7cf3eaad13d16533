package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/prastut/wedding-jarvis-sub000/internal/apperrors"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

const messageColumns = `id, phone, direction, body, provider_message_id, status, broadcast_id, error, created_at, updated_at`

var statusRank = map[models.DeliveryStatus]int{
	models.DeliverySent:      1,
	models.DeliveryDelivered: 2,
	models.DeliveryRead:      3,
}

func scanMessage(row rowScanner) (*models.MessageLog, error) {
	var (
		m                                    models.MessageLog
		direction                            string
		providerID, status, broadcast, errTx sql.NullString
		created, updated                     int64
	)
	if err := row.Scan(&m.ID, &m.PhoneNumber, &direction, &m.Body, &providerID, &status, &broadcast, &errTx, &created, &updated); err != nil {
		return nil, err
	}
	m.Direction = models.Direction(direction)
	m.ProviderMessageID = providerID.String
	m.Status = models.DeliveryStatus(status.String)
	m.BroadcastID = broadcast.String
	m.Error = errTx.String
	m.CreatedAt = fromMillis(created)
	m.UpdatedAt = fromMillis(updated)
	return &m, nil
}

// AppendMessage adds an entry to the delivery log, assigning an id and timestamps when missing
func (s *Storage) AppendMessage(ctx context.Context, m *models.MessageLog) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now().UTC()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO message_logs (`+messageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.PhoneNumber, string(m.Direction), m.Body,
		nullString(m.ProviderMessageID), nullString(string(m.Status)), nullString(m.BroadcastID), nullString(m.Error),
		toMillis(m.CreatedAt), toMillis(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// UpdateDeliveryStatus applies a delivery receipt to the outbound entry with
// the given provider id. Receipts never move a message backwards
// (a late "delivered" does not overwrite "read"). "failed" is terminal and
// overrides any earlier status.
func (s *Storage) UpdateDeliveryStatus(ctx context.Context, providerMessageID string, status models.DeliveryStatus) error {
	var current sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT status FROM message_logs
		WHERE provider_message_id = ? AND direction = 'outbound'
		ORDER BY seq DESC LIMIT 1`, providerMessageID).Scan(&current)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("message %s: %w", providerMessageID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("failed to look up message: %w", err)
	}

	cur := models.DeliveryStatus(current.String)
	if cur == models.DeliveryFailed {
		return nil
	}
	if status != models.DeliveryFailed && statusRank[status] <= statusRank[cur] {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE message_logs SET status = ?, updated_at = ?
		WHERE provider_message_id = ? AND direction = 'outbound'`,
		string(status), toMillis(s.now()), providerMessageID)
	if err != nil {
		return fmt.Errorf("failed to update delivery status: %w", err)
	}
	return nil
}

// HasInbound reports whether an inbound message with this provider id was already logged
func (s *Storage) HasInbound(ctx context.Context, providerMessageID string) (bool, error) {
	if providerMessageID == "" {
		return false, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM message_logs
		WHERE provider_message_id = ? AND direction = 'inbound'`, providerMessageID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check inbound message: %w", err)
	}
	return n > 0, nil
}

// History returns the last limit messages exchanged with phoneNumber, oldest first
func (s *Storage) History(ctx context.Context, phoneNumber string, limit int) ([]models.MessageLog, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.queryMessages(ctx, `
		SELECT `+messageColumns+` FROM (
			SELECT seq, `+messageColumns+` FROM message_logs
			WHERE phone = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq`, phoneNumber, limit)
}

// BroadcastLog returns every outbound entry recorded for a broadcast, in send order
func (s *Storage) BroadcastLog(ctx context.Context, broadcastID string) ([]models.MessageLog, error) {
	return s.queryMessages(ctx, `
		SELECT `+messageColumns+` FROM message_logs
		WHERE broadcast_id = ? ORDER BY seq`, broadcastID)
}

func (s *Storage) queryMessages(ctx context.Context, query string, args ...any) ([]models.MessageLog, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	out := []models.MessageLog{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
