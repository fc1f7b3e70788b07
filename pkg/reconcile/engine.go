package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	errs "lcscraper/pkg/errors"
	"lcscraper/pkg/logger"
	"lcscraper/pkg/models"
)

// Summary reports what a sync run found and inserted
type Summary struct {
	ExistingProblems int
	ExistingTags     int
	ExistingLinks    int
	RemoteProblems   int
	TagsInserted     int
	ProblemsInserted int
	LinksInserted    int
	Duration         time.Duration
}

// Engine reconciles the remote catalog into a Store with insert-only deltas
type Engine struct {
	store  Store
	source Source
	logger logger.Logger
}

// NewEngine creates an Engine
func NewEngine(store Store, source Source, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Engine{store: store, source: source, logger: log}
}

// Run performs one sync. Schema setup runs first; every data change after it
// happens in a single transaction that is rolled back on any error.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	if err := e.ensureSchema(ctx); err != nil {
		return nil, err
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeSyncTransaction, err, "failed to begin transaction")
	}
	defer func() {
		// no-op once committed
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	summary, err := e.sync(ctx, tx)
	if err != nil {
		e.logger.WithError(err).Error("Sync failed, rolling back")
		return nil, errs.Wrap(errs.ErrorTypeSyncTransaction, err, "sync aborted")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeSyncTransaction, err, "failed to commit")
	}

	summary.Duration = time.Since(start)
	e.logger.InfoWithFields("Sync complete", map[string]interface{}{
		"tags_inserted":     summary.TagsInserted,
		"problems_inserted": summary.ProblemsInserted,
		"links_inserted":    summary.LinksInserted,
		"duration":          summary.Duration,
	})
	return summary, nil
}

func (e *Engine) ensureSchema(ctx context.Context) error {
	for _, stmt := range e.store.Schema() {
		err := e.store.ExecSchema(ctx, stmt)
		switch {
		case err == nil:
		case errs.IsType(err, errs.ErrorTypeSetupConflict):
			e.logger.DebugWithFields("Schema object already exists", map[string]interface{}{
				"error": err.Error(),
			})
		default:
			return errs.Wrap(errs.ErrorTypeSetup, err, "schema setup failed")
		}
	}
	e.logger.Info("Database schema verified")
	return nil
}

func (e *Engine) sync(ctx context.Context, tx Tx) (*Summary, error) {
	problemIndex, err := tx.ProblemIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load problems: %w", err)
	}
	tagIndex, err := tx.TagIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}

	summary := &Summary{
		ExistingProblems: len(problemIndex),
		ExistingTags:     len(tagIndex),
	}
	e.logger.InfoWithFields("Loaded existing rows", map[string]interface{}{
		"problems": summary.ExistingProblems,
		"tags":     summary.ExistingTags,
	})

	catalog, err := e.source.AllQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote catalog: %w", err)
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("remote catalog is empty")
	}
	summary.RemoteProblems = len(catalog)

	if newTags := NewTags(catalog, tagIndex); len(newTags) > 0 {
		inserted, err := tx.InsertTags(ctx, newTags)
		if err != nil {
			return nil, fmt.Errorf("failed to insert tags: %w", err)
		}
		for name, id := range inserted {
			tagIndex[name] = id
		}
		summary.TagsInserted = len(inserted)
		e.logger.InfoWithFields("Inserted new tags", map[string]interface{}{"count": len(inserted)})
	}

	if newProblems := NewProblems(catalog, problemIndex); len(newProblems) > 0 {
		inserted, err := tx.InsertProblems(ctx, newProblems)
		if err != nil {
			return nil, fmt.Errorf("failed to insert problems: %w", err)
		}
		for slug, id := range inserted {
			problemIndex[slug] = id
		}
		summary.ProblemsInserted = len(inserted)
		e.logger.InfoWithFields("Inserted new problems", map[string]interface{}{"count": len(inserted)})
	}

	existing, err := tx.ProblemTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load problem tags: %w", err)
	}
	summary.ExistingLinks = len(existing)

	if links := NewLinks(catalog, problemIndex, tagIndex, existing); len(links) > 0 {
		n, err := tx.InsertProblemTags(ctx, links)
		if err != nil {
			return nil, fmt.Errorf("failed to insert problem tags: %w", err)
		}
		summary.LinksInserted = n
		e.logger.InfoWithFields("Created problem-tag links", map[string]interface{}{"count": n})
	} else {
		e.logger.Info("No new problem-tag links to create")
	}

	return summary, nil
}

// NewTags returns the catalog tag names missing from index, sorted
func NewTags(catalog []models.CatalogItem, index map[string]int) []string {
	seen := make(map[string]bool)
	var names []string
	for _, item := range catalog {
		for _, name := range item.Tags {
			if _, ok := index[name]; ok || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// NewProblems returns the catalog items whose slug is missing from index,
// in catalog order
func NewProblems(catalog []models.CatalogItem, index map[string]int) []models.Problem {
	seen := make(map[string]bool)
	var problems []models.Problem
	for _, item := range catalog {
		if _, ok := index[item.Slug]; ok || seen[item.Slug] {
			continue
		}
		seen[item.Slug] = true
		problems = append(problems, models.ProblemFromItem(item))
	}
	return problems
}

// NewLinks resolves every catalog (slug, tag) pair through the indexes and
// returns the pairs not yet in existing. Unresolvable pairs are skipped.
func NewLinks(catalog []models.CatalogItem, problems, tags map[string]int, existing map[models.ProblemTag]struct{}) []models.ProblemTag {
	seen := make(map[models.ProblemTag]bool)
	var links []models.ProblemTag
	for _, item := range catalog {
		problemID, ok := problems[item.Slug]
		if !ok {
			continue
		}
		for _, name := range item.Tags {
			tagID, ok := tags[name]
			if !ok {
				continue
			}
			link := models.ProblemTag{ProblemID: problemID, TagID: tagID}
			if _, ok := existing[link]; ok || seen[link] {
				continue
			}
			seen[link] = true
			links = append(links, link)
		}
	}
	return links
}
