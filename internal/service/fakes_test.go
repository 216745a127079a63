package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"quizbank/internal/models"
)

type memQuestions struct {
	mu   sync.Mutex
	next int
	docs map[string]models.Question
}

func newMemQuestions(seed ...models.Question) *memQuestions {
	m := &memQuestions{docs: map[string]models.Question{}}
	for _, q := range seed {
		_ = m.Create(context.Background(), &q)
	}
	return m
}

func (m *memQuestions) newID() string {
	m.next++
	return fmt.Sprintf("%024x", m.next)
}

func (m *memQuestions) FindAll(_ context.Context, category string) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Question{}
	for _, q := range m.docs {
		if category == "" || q.Category == category {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memQuestions) FindByID(_ context.Context, id string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (m *memQuestions) FindByContent(_ context.Context, content string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.docs {
		if q.Content == content {
			return &q, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memQuestions) Create(_ context.Context, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = m.newID()
	m.docs[q.ID] = *q
	return nil
}

func (m *memQuestions) CreateMany(_ context.Context, qs []models.Question) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(qs))
	for i := range qs {
		qs[i].ID = m.newID()
		m.docs[qs[i].ID] = qs[i]
		ids[i] = qs[i].ID
	}
	return ids, nil
}

func (m *memQuestions) Update(_ context.Context, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[q.ID]; !ok {
		return ErrNotFound
	}
	m.docs[q.ID] = *q
	return nil
}

func (m *memQuestions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memQuestions) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.docs)), nil
}

// memResults keeps results in insertion order; newest is last.
type memResults struct {
	mu      sync.Mutex
	next    int
	results []models.QuizResult
}

func (m *memResults) FindRecent(_ context.Context, limit int64) ([]models.QuizResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.QuizResult{}
	for i := len(m.results) - 1; i >= 0; i-- {
		if limit > 0 && int64(len(out)) == limit {
			break
		}
		out = append(out, m.results[i])
	}
	return out, nil
}

func (m *memResults) Create(_ context.Context, r *models.QuizResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	r.ID = fmt.Sprintf("%024x", m.next)
	m.results = append(m.results, *r)
	return nil
}

func (m *memResults) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.results {
		if r.ID == id {
			m.results = append(m.results[:i], m.results[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memResults) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.results)), nil
}

type memCache struct {
	stats       *models.Statistics
	invalidated int
}

func (c *memCache) GetStatistics(context.Context) (*models.Statistics, bool) {
	return c.stats, c.stats != nil
}

func (c *memCache) SaveStatistics(_ context.Context, s *models.Statistics) { c.stats = s }

func (c *memCache) InvalidateStatistics(context.Context) {
	c.stats = nil
	c.invalidated++
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }
