package usecase

import (
	"context"
	"sync"

	"github.com/user/news-harvester/internal/entity"
	"github.com/user/news-harvester/internal/repository"
)

// In-memory stand-ins for the postgres and redis repositories.

type memQueue struct {
	mu    sync.Mutex
	items []entity.RunRequest
	err   error
}

func (q *memQueue) Push(_ context.Context, req entity.RunRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.items = append(q.items, req)
	return nil
}

func (q *memQueue) Pop(_ context.Context) (*entity.RunRequest, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	if len(q.items) == 0 {
		return nil, repository.ErrNotFound
	}
	req := q.items[0]
	q.items = q.items[1:]
	return &req, nil
}

func (q *memQueue) Size(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

type memRuns struct {
	mu   sync.Mutex
	runs map[string]entity.HarvestRun
}

func newMemRuns() *memRuns {
	return &memRuns{runs: make(map[string]entity.HarvestRun)}
}

func (r *memRuns) Create(_ context.Context, run *entity.HarvestRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

func (r *memRuns) Update(_ context.Context, run *entity.HarvestRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.ID]; !ok {
		return repository.ErrNotFound
	}
	r.runs[run.ID] = *run
	return nil
}

func (r *memRuns) FindByID(_ context.Context, id string) (*entity.HarvestRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &run, nil
}

type memDocs struct {
	mu     sync.Mutex
	nextID int64
	docs   map[string]*entity.Document
	order  []string
	err    error
}

func newMemDocs() *memDocs {
	return &memDocs{docs: make(map[string]*entity.Document)}
}

func (d *memDocs) Save(_ context.Context, _ string, doc *entity.Document) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return 0, d.err
	}
	if _, ok := d.docs[doc.WebLink]; !ok {
		d.order = append(d.order, doc.WebLink)
	}
	d.nextID++
	id := d.nextID
	doc.ID = &id
	d.docs[doc.WebLink] = doc
	return id, nil
}

func (d *memDocs) FindByWebLink(_ context.Context, webLink string) (*entity.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, ok := d.docs[webLink]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return doc, nil
}

func (d *memDocs) links() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.order...)
}

type memSkipped struct {
	mu    sync.Mutex
	items []entity.SkippedItem
}

func (s *memSkipped) SaveAll(_ context.Context, items []entity.SkippedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
	return nil
}

func (s *memSkipped) FindByRun(_ context.Context, runID string) ([]entity.SkippedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.SkippedItem
	for _, item := range s.items {
		if item.RunID == runID {
			out = append(out, item)
		}
	}
	return out, nil
}

type memCheckpoints struct {
	mu   sync.Mutex
	docs map[string]*entity.Document
}

func newMemCheckpoints() *memCheckpoints {
	return &memCheckpoints{docs: make(map[string]*entity.Document)}
}

func (c *memCheckpoints) LastKnown(_ context.Context, source string) (*entity.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[source]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return doc, nil
}

func (c *memCheckpoints) SaveLastKnown(_ context.Context, source string, doc *entity.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[source] = doc
	return nil
}
