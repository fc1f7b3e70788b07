package reconcile

import (
	"context"

	"lcscraper/pkg/models"
)

// Store is the relational store a sync run reconciles into
type Store interface {
	// Schema lists the statements that create the schema, in order
	Schema() []string
	// ExecSchema runs one schema statement outside any transaction. An
	// already existing object is reported as a setup_conflict error.
	ExecSchema(ctx context.Context, stmt string) error
	Begin(ctx context.Context) (Tx, error)
}

// Tx is the single transaction of a sync run
type Tx interface {
	// ProblemIndex returns slug -> id for every stored problem
	ProblemIndex(ctx context.Context) (map[string]int, error)
	// TagIndex returns name -> id for every stored tag
	TagIndex(ctx context.Context) (map[string]int, error)
	// InsertTags inserts names and returns name -> generated id
	InsertTags(ctx context.Context, names []string) (map[string]int, error)
	// InsertProblems inserts problems with their catalog ids and returns slug -> id
	InsertProblems(ctx context.Context, problems []models.Problem) (map[string]int, error)
	// ProblemTags returns every stored link
	ProblemTags(ctx context.Context) (map[models.ProblemTag]struct{}, error)
	// InsertProblemTags inserts links, ignoring pairs that already exist,
	// and returns how many rows were written
	InsertProblemTags(ctx context.Context, links []models.ProblemTag) (int, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Source provides the authoritative remote catalog
type Source interface {
	AllQuestions(ctx context.Context) ([]models.CatalogItem, error)
}
