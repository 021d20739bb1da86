package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// Store handles user and post CRUD against the relational database.
// PostgreSQL (via the pgx stdlib driver) is the production engine; SQLite
// backs tests and local development.
type Store struct {
	db  *sqlx.DB
	sb  sq.StatementBuilderType
	obs *observability
}

func New(db *sqlx.DB, opts ...Option) *Store {
	sb := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if isPostgres(db.DriverName()) {
		sb = sb.PlaceholderFormat(sq.Dollar)
	}
	s := &Store{db: db, sb: sb, obs: defaultObservability()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	return New(db, opts...), nil
}

func (s *Store) Close() error { return s.db.Close() }

func isPostgres(driver string) bool {
	return driver == "pgx" || driver == "postgres"
}

// Migrate creates the users and posts tables if they don't exist. The UNIQUE
// constraints on username/email and the ON DELETE CASCADE on posts.owner_id
// are the authoritative guards for uniqueness and referential integrity.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) schema() []string {
	if isPostgres(s.db.DriverName()) {
		return []string{
			`CREATE TABLE IF NOT EXISTS users (
				id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
				username      VARCHAR(50)  UNIQUE NOT NULL,
				email         VARCHAR(255) UNIQUE NOT NULL,
				password_hash VARCHAR(255) NOT NULL,
				is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
				created_at    TIMESTAMPTZ  NOT NULL,
				updated_at    TIMESTAMPTZ  NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS posts (
				id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
				title      VARCHAR(200) NOT NULL,
				content    TEXT         NOT NULL,
				owner_id   BIGINT       NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at TIMESTAMPTZ  NOT NULL,
				updated_at TIMESTAMPTZ  NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_posts_owner_id ON posts(owner_id)`,
			`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC)`,
		}
	}
	// SQLite. Callers must open the DSN with _foreign_keys=on for the
	// cascade to fire.
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT      UNIQUE NOT NULL,
			email         TEXT      UNIQUE NOT NULL,
			password_hash TEXT      NOT NULL,
			is_active     BOOLEAN   NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMP NOT NULL,
			updated_at    TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT      NOT NULL,
			content    TEXT      NOT NULL,
			owner_id   INTEGER   NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_owner_id ON posts(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC)`,
	}
}
