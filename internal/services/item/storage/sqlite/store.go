// Package sqlite provides a SQLite-backed item and chat storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/featurebook/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/featurebook/internal/services/item/storage"
	"github.com/louisbranch/featurebook/internal/services/item/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

const systemPrefix = "system."

var systemPathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Store persists items and chat messages in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite item store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// PutItem inserts an item or replaces every column of an existing one.
// CreatedAt of an existing row is kept.
func (s *Store) PutItem(ctx context.Context, item storage.Item) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id := strings.TrimSpace(item.ID)
	if id == "" {
		return fmt.Errorf("item id is required")
	}
	if strings.TrimSpace(item.Type) == "" {
		return fmt.Errorf("item type is required")
	}
	system := item.System
	if len(system) == 0 {
		system = []byte("{}")
	}
	if !json.Valid(system) {
		return fmt.Errorf("item %s system state is not valid JSON", id)
	}
	createdAt := item.CreatedAt.UTC()
	updatedAt := item.UpdatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO items (id, type, name, owner_id, owner_name, system, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   type = excluded.type,
		   name = excluded.name,
		   owner_id = excluded.owner_id,
		   owner_name = excluded.owner_name,
		   system = excluded.system,
		   updated_at = excluded.updated_at`,
		id,
		item.Type,
		item.Name,
		item.OwnerID,
		item.OwnerName,
		string(system),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (storage.Item, error) {
	var item storage.Item
	var system string
	var createdAt, updatedAt int64
	if err := row.Scan(
		&item.ID,
		&item.Type,
		&item.Name,
		&item.OwnerID,
		&item.OwnerName,
		&system,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.Item{}, err
	}
	item.System = []byte(system)
	item.CreatedAt = fromMillis(createdAt)
	item.UpdatedAt = fromMillis(updatedAt)
	return item, nil
}

// GetItem returns one item by id.
func (s *Store) GetItem(ctx context.Context, id string) (storage.Item, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Item{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Item{}, fmt.Errorf("item id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, type, name, owner_id, owner_name, system, created_at, updated_at
		   FROM items
		  WHERE id = ?`,
		id,
	)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Item{}, storage.NotFound(id)
		}
		return storage.Item{}, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListItems returns the items of itemType in creation order. A blank
// itemType lists every item.
func (s *Store) ListItems(ctx context.Context, itemType string) ([]storage.Item, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	itemType = strings.TrimSpace(itemType)

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, type, name, owner_id, owner_name, system, created_at, updated_at
		   FROM items
		  WHERE ? = '' OR type = ?
		  ORDER BY created_at ASC, id ASC`,
		itemType,
		itemType,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []storage.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Update applies changes to one item in a single transaction. "name"
// updates the name column; "system.<path>" sets the JSON value at path in
// the system state. Any other key is rejected before anything is written.
func (s *Store) Update(ctx context.Context, id string, changes map[string]any) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("item id is required")
	}

	keys := make([]string, 0, len(changes))
	for key := range changes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	type statement struct {
		query string
		args  []any
	}
	statements := make([]statement, 0, len(keys))
	for _, key := range keys {
		value := changes[key]
		switch {
		case key == "name":
			name, ok := value.(string)
			if !ok {
				return fmt.Errorf("update item %s: name must be a string, got %T", id, value)
			}
			statements = append(statements, statement{
				query: `UPDATE items SET name = ? WHERE id = ?`,
				args:  []any{name, id},
			})
		case strings.HasPrefix(key, systemPrefix) && systemPathPattern.MatchString(strings.TrimPrefix(key, systemPrefix)):
			encoded, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("update item %s: encode %s: %w", id, key, err)
			}
			statements = append(statements, statement{
				query: `UPDATE items SET system = json_set(system, ?, json(?)) WHERE id = ?`,
				args:  []any{"$." + strings.TrimPrefix(key, systemPrefix), string(encoded), id},
			})
		default:
			return fmt.Errorf("update item %s: unsupported field %q", id, key)
		}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `UPDATE items SET updated_at = ? WHERE id = ?`, toMillis(s.now()), id)
	if err != nil {
		return fmt.Errorf("update item %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item %s: %w", id, err)
	}
	if affected == 0 {
		return storage.NotFound(id)
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("update item %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

// PostMessage appends a chat message.
func (s *Store) PostMessage(ctx context.Context, message storage.ChatMessage) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(message.ID) == "" {
		return fmt.Errorf("message id is required")
	}
	createdAt := message.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO chat_messages (id, speaker_id, speaker_name, flavor, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		message.ID,
		message.SpeakerID,
		message.SpeakerName,
		message.Flavor,
		message.Content,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}

// ListMessages returns the most recent messages, oldest first.
func (s *Store) ListMessages(ctx context.Context, limit int) ([]storage.ChatMessage, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, speaker_id, speaker_name, flavor, content, created_at
		   FROM (
		     SELECT rowid AS seq, id, speaker_id, speaker_name, flavor, content, created_at
		       FROM chat_messages
		      ORDER BY created_at DESC, rowid DESC
		      LIMIT ?
		   )
		  ORDER BY created_at ASC, seq ASC`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []storage.ChatMessage
	for rows.Next() {
		var message storage.ChatMessage
		var createdAt int64
		if err := rows.Scan(
			&message.ID,
			&message.SpeakerID,
			&message.SpeakerName,
			&message.Flavor,
			&message.Content,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		message.CreatedAt = fromMillis(createdAt)
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

var (
	_ storage.ItemStore = (*Store)(nil)
	_ storage.ChatStore = (*Store)(nil)
)
