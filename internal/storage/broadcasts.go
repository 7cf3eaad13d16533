package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/prastut/wedding-jarvis-sub000/internal/apperrors"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

const broadcastColumns = `id, topic, message, translations, status, sent_count, failed_count, created_at, updated_at`

func scanBroadcast(row rowScanner) (*models.Broadcast, error) {
	var (
		b                models.Broadcast
		translations     string
		status           string
		created, updated int64
	)
	if err := row.Scan(&b.ID, &b.Topic, &b.Message, &translations, &status, &b.SentCount, &b.FailedCount, &created, &updated); err != nil {
		return nil, err
	}
	b.Status = models.BroadcastStatus(status)
	b.CreatedAt = fromMillis(created)
	b.UpdatedAt = fromMillis(updated)
	if translations != "" {
		if err := json.Unmarshal([]byte(translations), &b.Translations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal translations: %w", err)
		}
	}
	return &b, nil
}

func marshalTranslations(t map[models.Language]string) (string, error) {
	if t == nil {
		return "{}", nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("failed to marshal translations: %w", err)
	}
	return string(data), nil
}

// CreateBroadcast inserts a new draft and fills in its id and timestamps
func (s *Storage) CreateBroadcast(ctx context.Context, b *models.Broadcast) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := s.now()
	b.CreatedAt, b.UpdatedAt = now.UTC(), now.UTC()
	if b.Status == "" {
		b.Status = models.BroadcastDraft
	}

	translations, err := marshalTranslations(b.Translations)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO broadcasts (`+broadcastColumns+`)
		VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		b.ID, b.Topic, b.Message, translations, string(b.Status), toMillis(now), toMillis(now))
	if err != nil {
		return fmt.Errorf("failed to create broadcast: %w", err)
	}
	return nil
}

// GetBroadcast retrieves a broadcast by id
func (s *Storage) GetBroadcast(ctx context.Context, id string) (*models.Broadcast, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+broadcastColumns+` FROM broadcasts WHERE id = ?`, id)
	b, err := scanBroadcast(row)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("broadcast %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get broadcast: %w", err)
	}
	return b, nil
}

// ListBroadcasts returns all broadcasts, newest first
func (s *Storage) ListBroadcasts(ctx context.Context) ([]models.Broadcast, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+broadcastColumns+` FROM broadcasts ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcasts: %w", err)
	}
	defer rows.Close()

	out := []models.Broadcast{}
	for rows.Next() {
		b, err := scanBroadcast(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan broadcast: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// UpdateBroadcastContent replaces topic, message and translations of a draft
func (s *Storage) UpdateBroadcastContent(ctx context.Context, b models.Broadcast) error {
	translations, err := marshalTranslations(b.Translations)
	if err != nil {
		return err
	}
	return s.conditional(ctx, "edit", b.ID, `
		UPDATE broadcasts SET topic = ?, message = ?, translations = ?, updated_at = ?
		WHERE id = ? AND status = 'draft'`,
		b.Topic, b.Message, translations, toMillis(s.now()), b.ID)
}

// DeleteBroadcast removes a draft
func (s *Storage) DeleteBroadcast(ctx context.Context, id string) error {
	return s.conditional(ctx, "delete", id, `DELETE FROM broadcasts WHERE id = ? AND status = 'draft'`, id)
}

// MarkBroadcastPending moves a draft (or an already pending broadcast) to pending
func (s *Storage) MarkBroadcastPending(ctx context.Context, id string) error {
	return s.conditional(ctx, "send", id, `
		UPDATE broadcasts SET status = 'pending', updated_at = ?
		WHERE id = ? AND status IN ('draft', 'pending')`,
		toMillis(s.now()), id)
}

// ClaimBroadcast atomically moves a draft or pending broadcast to sending.
// Only one caller can win the claim for a given id.
func (s *Storage) ClaimBroadcast(ctx context.Context, id string) (*models.Broadcast, error) {
	err := s.conditional(ctx, "dispatch", id, `
		UPDATE broadcasts SET status = 'sending', sent_count = 0, failed_count = 0, updated_at = ?
		WHERE id = ? AND status IN ('draft', 'pending')`,
		toMillis(s.now()), id)
	if err != nil {
		return nil, err
	}
	return s.GetBroadcast(ctx, id)
}

// UpdateBroadcastCounts records progress of a sending broadcast
func (s *Storage) UpdateBroadcastCounts(ctx context.Context, id string, sent, failed int) error {
	return s.conditional(ctx, "update counts of", id, `
		UPDATE broadcasts SET sent_count = ?, failed_count = ?, updated_at = ?
		WHERE id = ? AND status = 'sending'`,
		sent, failed, toMillis(s.now()), id)
}

// FinishBroadcast stores the final status and counts of a sending broadcast
func (s *Storage) FinishBroadcast(ctx context.Context, id string, status models.BroadcastStatus, sent, failed int) error {
	if status != models.BroadcastCompleted && status != models.BroadcastFailed {
		return fmt.Errorf("%w: %s is not a final status", apperrors.ErrInvalidInput, status)
	}
	return s.conditional(ctx, "finish", id, `
		UPDATE broadcasts SET status = ?, sent_count = ?, failed_count = ?, updated_at = ?
		WHERE id = ? AND status = 'sending'`,
		string(status), sent, failed, toMillis(s.now()), id)
}

// conditional runs a status-guarded statement and explains a miss as
// ErrNotFound or a StatusError carrying the current status.
func (s *Storage) conditional(ctx context.Context, op, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s broadcast: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	current, err := s.GetBroadcast(ctx, id)
	if err != nil {
		return err
	}
	return apperrors.NewStatusError(op, id, string(current.Status))
}
