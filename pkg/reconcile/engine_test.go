package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "lcscraper/pkg/errors"
	"lcscraper/pkg/logger"
	"lcscraper/pkg/models"
)

type memState struct {
	problems map[string]models.Problem
	tags     map[string]int
	links    map[models.ProblemTag]struct{}
	nextTag  int
}

func (s memState) clone() memState {
	c := memState{
		problems: make(map[string]models.Problem, len(s.problems)),
		tags:     make(map[string]int, len(s.tags)),
		links:    make(map[models.ProblemTag]struct{}, len(s.links)),
		nextTag:  s.nextTag,
	}
	for k, v := range s.problems {
		c.problems[k] = v
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	for k := range s.links {
		c.links[k] = struct{}{}
	}
	return c
}

// memStore is an in-memory Store whose transactions work on a copy that
// replaces the committed state only on Commit
type memStore struct {
	state      memState
	schemaErrs map[string]error
	executed   []string
	begun      int
	failLinks  error
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			problems: map[string]models.Problem{},
			tags:     map[string]int{},
			links:    map[models.ProblemTag]struct{}{},
			nextTag:  1,
		},
		schemaErrs: map[string]error{},
	}
}

func (s *memStore) Schema() []string {
	return []string{"type", "problems", "tags", "problem_tags"}
}

func (s *memStore) ExecSchema(ctx context.Context, stmt string) error {
	s.executed = append(s.executed, stmt)
	return s.schemaErrs[stmt]
}

func (s *memStore) Begin(ctx context.Context) (Tx, error) {
	s.begun++
	return &memTx{store: s, work: s.state.clone()}, nil
}

type memTx struct {
	store *memStore
	work  memState
	done  bool
}

func (t *memTx) ProblemIndex(ctx context.Context) (map[string]int, error) {
	index := make(map[string]int, len(t.work.problems))
	for slug, p := range t.work.problems {
		index[slug] = p.ID
	}
	return index, nil
}

func (t *memTx) TagIndex(ctx context.Context) (map[string]int, error) {
	index := make(map[string]int, len(t.work.tags))
	for name, id := range t.work.tags {
		index[name] = id
	}
	return index, nil
}

func (t *memTx) InsertTags(ctx context.Context, names []string) (map[string]int, error) {
	out := make(map[string]int, len(names))
	for _, name := range names {
		if _, ok := t.work.tags[name]; ok {
			return nil, errors.New("duplicate tag " + name)
		}
		t.work.tags[name] = t.work.nextTag
		out[name] = t.work.nextTag
		t.work.nextTag++
	}
	return out, nil
}

func (t *memTx) InsertProblems(ctx context.Context, problems []models.Problem) (map[string]int, error) {
	out := make(map[string]int, len(problems))
	for _, p := range problems {
		if _, ok := t.work.problems[p.Slug]; ok {
			return nil, errors.New("duplicate problem " + p.Slug)
		}
		t.work.problems[p.Slug] = p
		out[p.Slug] = p.ID
	}
	return out, nil
}

func (t *memTx) ProblemTags(ctx context.Context) (map[models.ProblemTag]struct{}, error) {
	out := make(map[models.ProblemTag]struct{}, len(t.work.links))
	for k := range t.work.links {
		out[k] = struct{}{}
	}
	return out, nil
}

func (t *memTx) InsertProblemTags(ctx context.Context, links []models.ProblemTag) (int, error) {
	if t.store.failLinks != nil {
		return 0, t.store.failLinks
	}
	n := 0
	for _, l := range links {
		if _, ok := t.work.links[l]; ok {
			continue
		}
		t.work.links[l] = struct{}{}
		n++
	}
	return n, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("tx closed")
	}
	t.done = true
	t.store.state = t.work
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}

type staticSource struct {
	items []models.CatalogItem
	err   error
	calls int
}

func (s *staticSource) AllQuestions(ctx context.Context) ([]models.CatalogItem, error) {
	s.calls++
	return s.items, s.err
}

func sampleCatalog() []models.CatalogItem {
	return []models.CatalogItem{
		{ID: 1, Title: "Two Sum", Slug: "two-sum", Difficulty: models.Easy, Tags: []string{"Array", "Hash Table"}},
		{ID: 2, Title: "Add Two Numbers", Slug: "add-two-numbers", Difficulty: models.Medium, Tags: []string{"Linked List", "Math"}},
		{ID: 4, Title: "Median of Two Sorted Arrays", Slug: "median-of-two-sorted-arrays", Difficulty: models.Hard, PaidOnly: true, Tags: []string{"Array", "Binary Search"}},
	}
}

func TestRunInsertsEverythingIntoEmptyStore(t *testing.T) {
	store := newMemStore()
	source := &staticSource{items: sampleCatalog()}

	summary, err := NewEngine(store, source, logger.NewNopLogger()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.TagsInserted)
	assert.Equal(t, 3, summary.ProblemsInserted)
	assert.Equal(t, 6, summary.LinksInserted)
	assert.Equal(t, 3, summary.RemoteProblems)

	assert.Equal(t, models.Medium, store.state.problems["add-two-numbers"].Difficulty)
	assert.True(t, store.state.problems["median-of-two-sorted-arrays"].IsPaid)
	assert.Equal(t, 4, store.state.problems["median-of-two-sorted-arrays"].ID)

	// tags are inserted in sorted order
	assert.Equal(t, 1, store.state.tags["Array"])
	assert.Equal(t, 2, store.state.tags["Binary Search"])
	assert.Equal(t, 5, store.state.tags["Math"])
}

func TestRunIsIdempotent(t *testing.T) {
	store := newMemStore()
	source := &staticSource{items: sampleCatalog()}
	engine := NewEngine(store, source, logger.NewNopLogger())

	_, err := engine.Run(context.Background())
	require.NoError(t, err)
	before := store.state.clone()

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.TagsInserted)
	assert.Zero(t, summary.ProblemsInserted)
	assert.Zero(t, summary.LinksInserted)
	assert.Equal(t, 3, summary.ExistingProblems)
	assert.Equal(t, 5, summary.ExistingTags)
	assert.Equal(t, 6, summary.ExistingLinks)
	assert.Equal(t, before, store.state)
}

func TestRunOnlyInsertsMissingLinks(t *testing.T) {
	store := newMemStore()
	store.state.problems["p"] = models.Problem{ID: 10, Name: "P", Slug: "p", Difficulty: models.Easy}
	store.state.tags["A"] = 1
	store.state.nextTag = 2
	store.state.links[models.ProblemTag{ProblemID: 10, TagID: 1}] = struct{}{}

	source := &staticSource{items: []models.CatalogItem{
		{ID: 10, Title: "P", Slug: "p", Difficulty: models.Easy, Tags: []string{"A", "B"}},
	}}

	summary, err := NewEngine(store, source, logger.NewNopLogger()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TagsInserted)
	assert.Zero(t, summary.ProblemsInserted)
	assert.Equal(t, 1, summary.LinksInserted)

	assert.Len(t, store.state.links, 2)
	_, ok := store.state.links[models.ProblemTag{ProblemID: 10, TagID: 2}]
	assert.True(t, ok)
}

func TestRunRollsBackOnFailure(t *testing.T) {
	store := newMemStore()
	store.failLinks = errors.New("connection reset")
	source := &staticSource{items: sampleCatalog()}

	_, err := NewEngine(store, source, logger.NewNopLogger()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeSyncTransaction))

	// tags and problems were inserted inside the transaction but never committed
	assert.Empty(t, store.state.tags)
	assert.Empty(t, store.state.problems)
	assert.Empty(t, store.state.links)
}

func TestRunSwallowsSetupConflicts(t *testing.T) {
	store := newMemStore()
	store.schemaErrs["type"] = errs.New(errs.ErrorTypeSetupConflict, "type problem_difficulty already exists")
	source := &staticSource{items: sampleCatalog()}

	_, err := NewEngine(store, source, logger.NewNopLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"type", "problems", "tags", "problem_tags"}, store.executed)
	assert.Equal(t, 1, store.begun)
}

func TestRunAbortsOnUnexpectedSetupError(t *testing.T) {
	store := newMemStore()
	store.schemaErrs["tags"] = errors.New("permission denied")
	source := &staticSource{items: sampleCatalog()}

	_, err := NewEngine(store, source, logger.NewNopLogger()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeSetup))
	assert.Zero(t, store.begun)
	assert.Zero(t, source.calls)
	assert.Equal(t, []string{"type", "problems", "tags"}, store.executed)
}

func TestRunAbortsOnEmptyCatalog(t *testing.T) {
	store := newMemStore()
	source := &staticSource{}

	_, err := NewEngine(store, source, logger.NewNopLogger()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote catalog is empty")
	assert.Empty(t, store.state.problems)
}

func TestRunAbortsOnSourceError(t *testing.T) {
	store := newMemStore()
	source := &staticSource{err: errs.New(errs.ErrorTypeTransientFetch, "catalog unavailable")}

	_, err := NewEngine(store, source, logger.NewNopLogger()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeSyncTransaction))
	assert.True(t, errs.IsType(err, errs.ErrorTypeTransientFetch))
}

func TestNewLinksSkipsUnresolvable(t *testing.T) {
	catalog := []models.CatalogItem{
		{ID: 1, Slug: "a", Tags: []string{"X", "Y", "X"}},
		{ID: 2, Slug: "missing", Tags: []string{"X"}},
	}
	links := NewLinks(catalog,
		map[string]int{"a": 1},
		map[string]int{"X": 7},
		map[models.ProblemTag]struct{}{},
	)
	assert.Equal(t, []models.ProblemTag{{ProblemID: 1, TagID: 7}}, links)
}

func TestNewTagsAndProblems(t *testing.T) {
	catalog := sampleCatalog()

	tags := NewTags(catalog, map[string]int{"Array": 1})
	assert.Equal(t, []string{"Binary Search", "Hash Table", "Linked List", "Math"}, tags)

	problems := NewProblems(catalog, map[string]int{"two-sum": 1})
	require.Len(t, problems, 2)
	assert.Equal(t, "add-two-numbers", problems[0].Slug)
	assert.Equal(t, 4, problems[1].ID)
}
