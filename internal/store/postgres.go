package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "embed"

	"github.com/lib/pq"

	"github.com/spigell/jobpilot/internal/models"
	"github.com/spigell/jobpilot/internal/secrets"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

//go:embed schema.sql
var schema string

// Config describes the PostgreSQL connection pool.
type Config struct {
	DSN            string `mapstructure:"dsn"`
	PasswordFile   string `mapstructure:"password-file"`
	MaxConnections int    `mapstructure:"max-connections"`
	MaxIdle        int    `mapstructure:"max-idle"`
}

// Store persists users, resumes, jobs, matches and applications in PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open creates the connection pool. It does not check connectivity, use Ping for that.
func Open(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("database dsn is required")
	}

	if cfg.PasswordFile != "" {
		password, err := secrets.Load(secrets.Source{Name: "database password", File: cfg.PasswordFile})
		if err != nil {
			return nil, err
		}
		if dsn, err = withPassword(dsn, password); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return New(db), nil
}

// withPassword sets the password of a URL style DSN.
func withPassword(dsn, password string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "", errors.New("password-file requires a postgres:// dsn")
	}
	user := ""
	if u.User != nil {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, password)
	return u.String(), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ping tests the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate creates the tables and indexes when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// translate maps driver errors onto the model sentinel errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", models.ErrConflict, pqErr.Constraint)
		case foreignKeyViolation:
			return fmt.Errorf("%w: %s", models.ErrNotFound, pqErr.Constraint)
		}
	}
	return err
}

// jsonValue encodes v for a nullable JSONB column. Nil slices and maps become NULL.
func jsonValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(val) == 0 {
			return nil, nil
		}
		return []byte(val), nil
	case []models.Record:
		if val == nil {
			return nil, nil
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func decodeRecords(data []byte) ([]models.Record, error) {
	if data == nil {
		return nil, nil
	}
	records := []models.Record{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func rawJSON(data []byte) json.RawMessage {
	if data == nil {
		return nil
	}
	return json.RawMessage(data)
}
