package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
)

// SaveNotification stores a notification in the customer's inbox
func (s *Store) SaveNotification(ctx context.Context, n models.Notification) (*models.NotificationRecord, error) {
	var data []byte
	if n.Data != nil {
		var err error
		if data, err = json.Marshal(n.Data); err != nil {
			return nil, fmt.Errorf("failed to encode notification data: %w", err)
		}
	}

	record := &models.NotificationRecord{
		ID:           uuid.New(),
		Notification: n,
		CreatedAt:    s.timestamp(),
	}

	query := `
		INSERT INTO notifications (id, customer_id, type, priority, title, message, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID, n.CustomerID, n.Type, n.Priority, n.Title, n.Message, nullBytes(data), false, record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}
	return record, nil
}

// ListNotifications returns a customer's notifications newest first
func (s *Store) ListNotifications(ctx context.Context, customerID uuid.UUID, limit int) ([]models.NotificationRecord, error) {
	var a args
	query := `
		SELECT id, customer_id, type, priority, title, message, data, is_read, created_at
		FROM notifications
		WHERE customer_id = ` + a.add(customerID) + `
		ORDER BY created_at DESC, id`
	if limit > 0 {
		query += " LIMIT " + a.add(limit)
	}

	rows, err := s.db.QueryContext(ctx, query, a.values...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var records []models.NotificationRecord
	for rows.Next() {
		var (
			r    models.NotificationRecord
			data []byte
		)
		err := rows.Scan(&r.ID, &r.CustomerID, &r.Type, &r.Priority, &r.Title, &r.Message, &data, &r.IsRead, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &r.Data); err != nil {
				return nil, fmt.Errorf("failed to decode notification data: %w", err)
			}
		}
		r.CreatedAt = r.CreatedAt.UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

// MarkNotificationRead flags one notification as read
func (s *Store) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = $1 WHERE id = $2`, true, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return models.ErrRecordNotFound
	}
	return nil
}

func nullBytes(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return string(b)
}
