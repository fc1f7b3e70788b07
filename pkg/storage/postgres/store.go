package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"lcscraper/pkg/config"
	errs "lcscraper/pkg/errors"
	"lcscraper/pkg/logger"
	"lcscraper/pkg/models"
	"lcscraper/pkg/reconcile"
)

// SQLSTATE codes for objects that already exist
const (
	codeDuplicateObject = "42710"
	codeDuplicateTable  = "42P07"
)

var schema = []string{
	`CREATE TYPE problem_difficulty AS ENUM ('Easy', 'Medium', 'Hard')`,
	`CREATE TABLE problems (
		id         INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		slug       TEXT NOT NULL UNIQUE,
		difficulty problem_difficulty NOT NULL,
		is_paid    BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE tags (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE problem_tags (
		problem_id INTEGER NOT NULL REFERENCES problems(id) ON DELETE CASCADE,
		tag_id     INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (problem_id, tag_id)
	)`,
}

// Store is the PostgreSQL implementation of reconcile.Store over a single
// connection
type Store struct {
	conn   *pgx.Conn
	logger logger.Logger
}

var _ reconcile.Store = (*Store)(nil)

// NewStore wraps an open connection
func NewStore(conn *pgx.Conn, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{conn: conn, logger: log}
}

// Connect opens a connection, retrying with exponential backoff for up to
// cfg.ConnectTimeout while the database comes up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if cfg.URL == "" {
		return nil, errs.New(errs.ErrorTypeSetup, "database URL is not configured")
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = time.Second
	expBackoff.MaxElapsedTime = cfg.ConnectTimeout
	if expBackoff.MaxElapsedTime <= 0 {
		expBackoff.MaxElapsedTime = 30 * time.Second
	}

	var conn *pgx.Conn
	operation := func() error {
		var err error
		conn, err = pgx.Connect(ctx, cfg.URL)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to database, will retry")
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeSetup, err, "failed to connect to database after retries")
	}

	log.Info("Connected to database")
	return NewStore(conn, log), nil
}

// Close closes the underlying connection
func (s *Store) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// Schema returns the statements creating the difficulty enum and the three tables
func (s *Store) Schema() []string {
	return schema
}

// ExecSchema runs stmt in autocommit mode. Duplicate object errors come back
// as setup_conflict.
func (s *Store) ExecSchema(ctx context.Context, stmt string) error {
	if _, err := s.conn.Exec(ctx, stmt); err != nil {
		if isDuplicate(err) {
			return errs.Wrap(errs.ErrorTypeSetupConflict, err, "schema object already exists")
		}
		return err
	}
	return nil
}

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeDuplicateObject || pgErr.Code == codeDuplicateTable
}

// Begin starts the sync transaction
func (s *Store) Begin(ctx context.Context) (reconcile.Tx, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// Tx is a reconcile.Tx backed by a pgx transaction
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) ProblemIndex(ctx context.Context) (map[string]int, error) {
	return t.index(ctx, `SELECT slug, id FROM problems`)
}

func (t *Tx) TagIndex(ctx context.Context) (map[string]int, error) {
	return t.index(ctx, `SELECT name, id FROM tags`)
}

func (t *Tx) index(ctx context.Context, query string) (map[string]int, error) {
	rows, err := t.tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var key string
		var id int
		if err := rows.Scan(&key, &id); err != nil {
			return nil, err
		}
		index[key] = id
	}
	return index, rows.Err()
}

func (t *Tx) InsertTags(ctx context.Context, names []string) (map[string]int, error) {
	if len(names) == 0 {
		return map[string]int{}, nil
	}
	rows, err := t.tx.Query(ctx,
		`INSERT INTO tags (name) SELECT unnest($1::text[]) RETURNING name, id`,
		names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inserted := make(map[string]int, len(names))
	for rows.Next() {
		var name string
		var id int
		if err := rows.Scan(&name, &id); err != nil {
			return nil, err
		}
		inserted[name] = id
	}
	return inserted, rows.Err()
}

func (t *Tx) InsertProblems(ctx context.Context, problems []models.Problem) (map[string]int, error) {
	if len(problems) == 0 {
		return map[string]int{}, nil
	}

	ids := make([]int32, len(problems))
	names := make([]string, len(problems))
	slugs := make([]string, len(problems))
	difficulties := make([]string, len(problems))
	paid := make([]bool, len(problems))
	for i, p := range problems {
		ids[i] = int32(p.ID)
		names[i] = p.Name
		slugs[i] = p.Slug
		difficulties[i] = string(p.Difficulty)
		paid[i] = p.IsPaid
	}

	rows, err := t.tx.Query(ctx, `
		INSERT INTO problems (id, name, slug, difficulty, is_paid)
		SELECT u.id, u.name, u.slug, u.difficulty::problem_difficulty, u.is_paid
		FROM unnest($1::int[], $2::text[], $3::text[], $4::text[], $5::bool[])
			AS u(id, name, slug, difficulty, is_paid)
		RETURNING slug, id`,
		ids, names, slugs, difficulties, paid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inserted := make(map[string]int, len(problems))
	for rows.Next() {
		var slug string
		var id int
		if err := rows.Scan(&slug, &id); err != nil {
			return nil, err
		}
		inserted[slug] = id
	}
	return inserted, rows.Err()
}

func (t *Tx) ProblemTags(ctx context.Context) (map[models.ProblemTag]struct{}, error) {
	rows, err := t.tx.Query(ctx, `SELECT problem_id, tag_id FROM problem_tags`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make(map[models.ProblemTag]struct{})
	for rows.Next() {
		var link models.ProblemTag
		if err := rows.Scan(&link.ProblemID, &link.TagID); err != nil {
			return nil, err
		}
		links[link] = struct{}{}
	}
	return links, rows.Err()
}

func (t *Tx) InsertProblemTags(ctx context.Context, links []models.ProblemTag) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, l := range links {
		batch.Queue(`INSERT INTO problem_tags (problem_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			l.ProblemID, l.TagID)
	}

	results := t.tx.SendBatch(ctx, batch)
	inserted := 0
	for range links {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("failed to insert problem tag: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback is a no-op after Commit
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
