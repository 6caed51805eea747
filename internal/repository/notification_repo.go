package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nihongo/internal/database"
	"nihongo/internal/models"
)

// NotificationRepository handles broadcasts and per-user read receipts
type NotificationRepository struct {
	db database.DBTX
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db database.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `n.id, n.title, n.message, n.type, n.priority, n.target_users, n.is_active, n.created_at, n.expires_at`

// activeClause selects notifications shown to users at a point in time
const activeClause = `n.is_active = ? AND (n.expires_at IS NULL OR n.expires_at > ?)`

// CreateNotification inserts a broadcast
func (r *NotificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	var expiresAt interface{}
	if n.ExpiresAt != nil {
		expiresAt = n.ExpiresAt.UTC()
	}

	query := `
		INSERT INTO notifications (id, title, message, type, priority, target_users, is_active, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.Title, n.Message, n.Type, n.Priority, n.TargetUsers, n.IsActive, n.CreatedAt.UTC(), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetNotification retrieves a notification by id. Returns nil when it does not exist.
func (r *NotificationRepository) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications n WHERE n.id = ?`
	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id), false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// ListForUser returns active notifications newest first, with the user's read state
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, now time.Time, limit int) ([]models.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `, COALESCE(un.is_read, ?)
		FROM notifications n
		LEFT JOIN user_notifications un ON un.notification_id = n.id AND un.user_id = ?
		WHERE ` + activeClause + `
		ORDER BY n.created_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, false, userID, true, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

// ListAll returns every notification, oldest first
func (r *NotificationRepository) ListAll(ctx context.Context) ([]models.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+notificationColumns+` FROM notifications n ORDER BY n.created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

// CountUnread counts active notifications the user has no read receipt for
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string, now time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications n
		LEFT JOIN user_notifications un ON un.notification_id = n.id AND un.user_id = ?
		WHERE ` + activeClause + ` AND (un.is_read IS NULL OR un.is_read = ?)
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, true, now.UTC(), false).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead records (or refreshes) the user's read receipt
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID string, at time.Time) error {
	return r.SaveReceipt(ctx, Receipt{UserID: userID, NotificationID: notificationID, IsRead: true, ReadAt: &at})
}

// Receipt is a per-user read marker
type Receipt struct {
	UserID         string     `json:"userId"`
	NotificationID string     `json:"notificationId"`
	IsRead         bool       `json:"isRead"`
	ReadAt         *time.Time `json:"readAt"`
}

// SaveReceipt upserts a read receipt
func (r *NotificationRepository) SaveReceipt(ctx context.Context, rc Receipt) error {
	var readAt interface{}
	if rc.ReadAt != nil {
		readAt = rc.ReadAt.UTC()
	}

	query := `
		INSERT INTO user_notifications (user_id, notification_id, is_read, read_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, notification_id) DO UPDATE SET is_read = excluded.is_read, read_at = excluded.read_at
	`
	if r.db.GetDialect().MigrationsSubdir() == "mysql" {
		query = `
			INSERT INTO user_notifications (user_id, notification_id, is_read, read_at)
			VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE is_read = VALUES(is_read), read_at = VALUES(read_at)
		`
	}

	if _, err := r.db.ExecContext(ctx, query, rc.UserID, rc.NotificationID, rc.IsRead, readAt); err != nil {
		return fmt.Errorf("failed to save read receipt: %w", err)
	}
	return nil
}

// ListReceipts returns every read receipt
func (r *NotificationRepository) ListReceipts(ctx context.Context) ([]Receipt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, notification_id, is_read, read_at FROM user_notifications`)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []Receipt
	for rows.Next() {
		var (
			rc     Receipt
			readAt sql.NullTime
		)
		if err := rows.Scan(&rc.UserID, &rc.NotificationID, &rc.IsRead, &readAt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		if readAt.Valid {
			t := readAt.Time
			rc.ReadAt = &t
		}
		receipts = append(receipts, rc)
	}
	return receipts, rows.Err()
}

// DeactivateExpired switches off notifications whose expiry has passed
func (r *NotificationRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE notifications SET is_active = ? WHERE is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?`
	result, err := r.db.ExecContext(ctx, query, false, true, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired notifications: %w", err)
	}
	return result.RowsAffected()
}

func scanNotification(row rowScanner, withRead bool) (*models.Notification, error) {
	var (
		n         models.Notification
		expiresAt sql.NullTime
	)
	dest := []interface{}{
		&n.ID, &n.Title, &n.Message, &n.Type, &n.Priority, &n.TargetUsers, &n.IsActive, &n.CreatedAt, &expiresAt,
	}
	if withRead {
		dest = append(dest, &n.IsRead)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		n.ExpiresAt = &t
	}
	return &n, nil
}
