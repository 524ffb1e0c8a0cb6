package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/notification-center/internal/model"
)

// ErrNotFound is returned when a notification id does not exist.
var ErrNotFound = errors.New("notification not found")

// Store persists notifications and preferences in SQLite.
type Store struct {
	db *sqlx.DB
}

// notificationRow is the database shape of a notification.
type notificationRow struct {
	ID         string `db:"id"`
	Category   string `db:"category"`
	Priority   string `db:"priority"`
	Title      string `db:"title"`
	Message    string `db:"message"`
	CreatedAt  int64  `db:"created_at"`
	IsRead     bool   `db:"is_read"`
	IsArchived bool   `db:"is_archived"`
	Metadata   string `db:"metadata"`
}

// NewStore opens (or creates) a SQLite database at dbPath and runs any
// pending schema migrations. Use ":memory:" for an ephemeral database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every pooled connection to ":memory:" would see its own empty database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Insert stores a notification, assigning an id and timestamp when missing.
func (s *Store) Insert(ctx context.Context, n model.Notification) (model.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Priority == "" {
		n.Priority = model.PriorityMedium
	}

	meta, err := json.Marshal(n.Metadata)
	if err != nil {
		return n, fmt.Errorf("marshaling metadata for %s: %w", n.ID, err)
	}
	if n.Metadata == nil {
		meta = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO notifications (
			id, category, priority, title, message,
			created_at, is_read, is_archived, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.Category), string(n.Priority), n.Title, n.Message,
		n.CreatedAt.UTC().UnixNano(), boolToInt(n.IsRead), boolToInt(n.IsArchived),
		string(meta),
	)
	if err != nil {
		return n, fmt.Errorf("inserting notification %s: %w", n.ID, err)
	}
	return n, nil
}

// List returns notifications matching the filter, newest first. Category
// matching is case-insensitive so legacy upper-case rows are found.
func (s *Store) List(ctx context.Context, f model.Filter) ([]model.Notification, error) {
	var conditions []string
	var args []interface{}

	if f.Category != nil {
		conditions = append(conditions, "LOWER(category) = LOWER(?)")
		args = append(args, string(*f.Category))
	}
	if f.Priority != nil {
		conditions = append(conditions, "LOWER(priority) = LOWER(?)")
		args = append(args, string(*f.Priority))
	}
	if f.IsRead != nil {
		conditions = append(conditions, "is_read = ?")
		args = append(args, boolToInt(*f.IsRead))
	}
	if f.IsArchived != nil {
		conditions = append(conditions, "is_archived = ?")
		args = append(args, boolToInt(*f.IsArchived))
	}

	query := "SELECT * FROM notifications"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}

	out := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		n, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// SetRead updates the read flag of one notification.
func (s *Store) SetRead(ctx context.Context, id string, read bool) error {
	return s.exec1(ctx, "UPDATE notifications SET is_read = ? WHERE id = ?", boolToInt(read), id)
}

// Archive flags one notification as archived.
func (s *Store) Archive(ctx context.Context, id string) error {
	return s.exec1(ctx, "UPDATE notifications SET is_archived = 1 WHERE id = ?", id)
}

// MarkAllRead marks every non-archived notification as read.
func (s *Store) MarkAllRead(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "UPDATE notifications SET is_read = 1 WHERE is_archived = 0")
	if err != nil {
		return fmt.Errorf("marking all read: %w", err)
	}
	return nil
}

// Delete removes one notification.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.exec1(ctx, "DELETE FROM notifications WHERE id = ?", id)
}

// UnreadCount returns the number of unread, non-archived notifications.
func (s *Store) UnreadCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM notifications WHERE is_read = 0 AND is_archived = 0")
	if err != nil {
		return 0, fmt.Errorf("counting unread: %w", err)
	}
	return n, nil
}

// Preferences returns the stored preferences.
func (s *Store) Preferences(ctx context.Context) (model.Preferences, error) {
	var row struct {
		ID           int    `db:"id"`
		EmailEnabled bool   `db:"email_enabled"`
		PushEnabled  bool   `db:"push_enabled"`
		Categories   string `db:"categories"`
	}
	if err := s.db.GetContext(ctx, &row, "SELECT * FROM preferences WHERE id = 1"); err != nil {
		return model.Preferences{}, fmt.Errorf("reading preferences: %w", err)
	}

	prefs := model.Preferences{
		EmailEnabled: row.EmailEnabled,
		PushEnabled:  row.PushEnabled,
		Categories:   map[string]bool{},
	}
	if err := json.Unmarshal([]byte(row.Categories), &prefs.Categories); err != nil {
		return model.Preferences{}, fmt.Errorf("unmarshaling preference categories: %w", err)
	}
	return prefs, nil
}

// SavePreferences replaces the stored preferences.
func (s *Store) SavePreferences(ctx context.Context, p model.Preferences) error {
	cats, err := json.Marshal(p.Categories)
	if err != nil {
		return fmt.Errorf("marshaling preference categories: %w", err)
	}
	if p.Categories == nil {
		cats = []byte("{}")
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE preferences SET email_enabled = ?, push_enabled = ?, categories = ? WHERE id = 1",
		boolToInt(p.EmailEnabled), boolToInt(p.PushEnabled), string(cats),
	)
	if err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}

// exec1 runs a statement expected to touch exactly one row.
func (s *Store) exec1(ctx context.Context, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("executing %q: %w", query, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r notificationRow) toModel() (model.Notification, error) {
	n := model.Notification{
		ID:         r.ID,
		Category:   model.Category(r.Category),
		Priority:   model.Priority(r.Priority),
		Title:      r.Title,
		Message:    r.Message,
		CreatedAt:  time.Unix(0, r.CreatedAt).UTC(),
		IsRead:     r.IsRead,
		IsArchived: r.IsArchived,
	}
	if r.Metadata != "" && r.Metadata != "{}" {
		if err := json.Unmarshal([]byte(r.Metadata), &n.Metadata); err != nil {
			return model.Notification{}, fmt.Errorf("unmarshaling metadata for %s: %w", r.ID, err)
		}
	}
	return n, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
