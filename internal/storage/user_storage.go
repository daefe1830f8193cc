package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"LinkHub_Backend/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrLinkNotFound    = errors.New("link not found")
	ErrUsernameExists  = errors.New("username already exists")
	ErrEmailExists     = errors.New("email already exists")
	errUniqueViolation = errors.New("unique constraint violation")
)

const userColumns = `id, username, email, password_hash, password_changed_at, bio, avatar, theme, links, created_at`

// SQLiteUserStore keeps each user as one row; links are an embedded JSON array.
type SQLiteUserStore struct {
	db *sql.DB
}

func NewSQLiteUserStore(db *sql.DB) *SQLiteUserStore {
	return &SQLiteUserStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user                 models.User
		changedAt, createdAt string
		linksJSON            string
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&changedAt,
		&user.Bio,
		&user.Avatar,
		&user.Theme,
		&linksJSON,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var err error
	if user.PasswordChangedAt, err = time.Parse(time.RFC3339Nano, changedAt); err != nil {
		return nil, fmt.Errorf("parse password_changed_at: %w", err)
	}
	if user.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(linksJSON), &user.Links); err != nil {
		return nil, fmt.Errorf("decode links: %w", err)
	}
	if user.Links == nil {
		user.Links = []models.Link{}
	}
	return &user, nil
}

func (s *SQLiteUserStore) findOne(ctx context.Context, column, value string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+column+" = ?", value)
	return scanUser(row)
}

func (s *SQLiteUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, "username", username)
}

func (s *SQLiteUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, "id", id)
}

func (s *SQLiteUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "email", email)
}

// Save upserts the whole document. Username and email are written only on insert.
func (s *SQLiteUserStore) Save(ctx context.Context, user *models.User) error {
	links := user.Links
	if links == nil {
		links = []models.Link{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("encode links: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			password_hash = excluded.password_hash,
			password_changed_at = excluded.password_changed_at,
			bio = excluded.bio,
			avatar = excluded.avatar,
			theme = excluded.theme,
			links = excluded.links`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.PasswordChangedAt.UTC().Format(time.RFC3339Nano),
		user.Bio,
		user.Avatar,
		user.Theme,
		string(linksJSON),
		user.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return classifyWriteError(err)
	}
	return nil
}

func (s *SQLiteUserStore) Delete(ctx context.Context, user *models.User) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", user.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// IncrementLinkClick bumps the counter of the link at index in a single statement,
// so concurrent clicks on the same link are never lost.
func (s *SQLiteUserStore) IncrementLinkClick(ctx context.Context, username string, index int) (int, error) {
	var clicks int
	err := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET links = json_set(
			links,
			'$[' || ?1 || '].clicks',
			COALESCE(json_extract(links, '$[' || ?1 || '].clicks'), 0) + 1
		)
		WHERE username = ?2 AND ?1 >= 0 AND ?1 < json_array_length(links)
		RETURNING json_extract(links, '$[' || ?1 || '].clicks')`,
		index, username,
	).Scan(&clicks)
	if err == nil {
		return clicks, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	// nothing updated: tell a missing user from a missing link
	var exists int
	err = s.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE username = ?", username).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return 0, ErrLinkNotFound
}

func classifyWriteError(err error) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	if sqliteErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE && sqliteErr.Code() != sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
		return err
	}
	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return ErrUsernameExists
	case strings.Contains(msg, "users.email"):
		return ErrEmailExists
	default:
		return fmt.Errorf("%w: %v", errUniqueViolation, err)
	}
}
