package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"quizbank/internal/models"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// WrongSetCategory labels the wrong-answers set in category listings.
const WrongSetCategory = "Câu hỏi sai"

const DefaultStudySetSize = 20

// Remote is the part of the API the store depends on.
type Remote interface {
	Questions(ctx context.Context, category string) ([]models.Question, error)
	CreateQuestion(ctx context.Context, q models.Question) (*models.Question, error)
	UpdateQuestion(ctx context.Context, id string, u models.QuestionUpdate) (*models.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	ImportJSON(ctx context.Context, items []models.ImportItem) (*models.ImportReport, error)
	PracticeResults(ctx context.Context) ([]models.QuizResult, error)
	SavePracticeResult(ctx context.Context, r models.QuizResult) (*models.QuizResult, error)
	Statistics(ctx context.Context) (*models.Statistics, error)
}

// Store is the client-side view of the question bank and the user's results.
// Questions and practice results live on the API with a local fallback; study
// results and the wrong-answers set are kept locally only.
type Store struct {
	remote Remote
	local  *LocalStore

	questions *Cached[[]models.Question]
	practice  *Cached[[]models.QuizResult]
	study     *Cached[[]models.QuizResult]
	wrong     *Cached[[]models.Question]

	SetSize int

	loadMu sync.Mutex
	loaded bool
	// stale is set when a write went through but the bank could not be read back.
	stale atomic.Bool

	now  func() time.Time
	intn func(n int) int
}

// NewStore builds a store. A nil remote keeps everything local.
func NewStore(remote Remote, local *LocalStore, setSize int) *Store {
	if setSize <= 0 {
		setSize = DefaultStudySetSize
	}
	return &Store{
		remote:    remote,
		local:     local,
		questions: NewCached(KeyQuestions, local, SeedQuestions),
		practice:  NewCached[[]models.QuizResult](KeyPracticeResults, local, nil),
		study:     NewCached[[]models.QuizResult](KeyStudyResults, local, nil),
		wrong:     NewCached[[]models.Question](KeyWrongAnswers, local, nil),
		SetSize:   setSize,
		now:       time.Now,
		intn:      rand.IntN,
	}
}

// Local exposes the backing key/value store, used for attempt progress.
func (s *Store) Local() *LocalStore {
	return s.local
}

// Load reads everything once. Later calls are no-ops unless an earlier write
// left the bank stale; use Refresh to reload unconditionally.
func (s *Store) Load(ctx context.Context) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.loaded && !s.stale.Load() {
		return
	}
	s.load(ctx)
	s.loaded = true
}

// Stale reports whether the bank misses rows the API already holds.
func (s *Store) Stale() bool {
	return s.stale.Load()
}

func (s *Store) Refresh(ctx context.Context) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.load(ctx)
	s.loaded = true
}

func (s *Store) load(ctx context.Context) {
	var fetchQuestions func(context.Context) ([]models.Question, error)
	var fetchResults func(context.Context) ([]models.QuizResult, error)
	if s.remote != nil {
		fetchQuestions = func(ctx context.Context) ([]models.Question, error) {
			return s.remote.Questions(ctx, "")
		}
		fetchResults = s.remote.PracticeResults
	}

	src := s.questions.Load(ctx, fetchQuestions)
	if src == SourceRemote {
		s.stale.Store(false)
	}
	log.Printf("Loaded %d questions (%s)", len(s.questions.Get()), src)
	src = s.practice.Load(ctx, fetchResults)
	log.Printf("Loaded %d practice results (%s)", len(s.practice.Get()), src)
	s.study.Load(ctx, nil)
	s.wrong.Load(ctx, nil)
}

func (s *Store) Questions() []models.Question {
	return slices.Clone(s.questions.Get())
}

// SubscribeQuestions follows the bank: the current questions first, then every
// reload or write. cancel ends the subscription.
func (s *Store) SubscribeQuestions() (<-chan []models.Question, func()) {
	return s.questions.Subscribe()
}

func (s *Store) Question(id string) (models.Question, bool) {
	for _, q := range s.questions.Get() {
		if q.ID == id {
			return q, true
		}
	}
	return models.Question{}, false
}

func (s *Store) AddQuestion(ctx context.Context, q models.Question) (models.Question, error) {
	var added models.Question
	var remote func(context.Context, []models.Question) ([]models.Question, error)
	if s.remote != nil {
		remote = func(ctx context.Context, cur []models.Question) ([]models.Question, error) {
			created, err := s.remote.CreateQuestion(ctx, q)
			if err != nil {
				return nil, err
			}
			added = *created
			return append(slices.Clone(cur), added), nil
		}
	}
	_, err := s.questions.Mutate(ctx, remote, func(_ context.Context, cur []models.Question) ([]models.Question, error) {
		if err := q.Validate(); err != nil {
			return nil, err
		}
		added = q
		added.ID = uuid.NewString()
		added.Stamp(s.now())
		return append(slices.Clone(cur), added), nil
	})
	return added, err
}

func (s *Store) UpdateQuestion(ctx context.Context, id string, u models.QuestionUpdate) (models.Question, error) {
	var updated models.Question
	var remote func(context.Context, []models.Question) ([]models.Question, error)
	if s.remote != nil {
		remote = func(ctx context.Context, cur []models.Question) ([]models.Question, error) {
			q, err := s.remote.UpdateQuestion(ctx, id, u)
			if err != nil {
				return nil, err
			}
			updated = *q
			return replaceQuestion(cur, updated), nil
		}
	}
	_, err := s.questions.Mutate(ctx, remote, func(_ context.Context, cur []models.Question) ([]models.Question, error) {
		i := slices.IndexFunc(cur, func(q models.Question) bool { return q.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
		}
		merged := cur[i].Apply(u)
		if err := merged.Validate(); err != nil {
			return nil, err
		}
		merged.UpdatedAt = s.now()
		updated = merged
		return replaceQuestion(cur, merged), nil
	})
	return updated, err
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	var remote func(context.Context, []models.Question) ([]models.Question, error)
	if s.remote != nil {
		remote = func(ctx context.Context, cur []models.Question) ([]models.Question, error) {
			if err := s.remote.DeleteQuestion(ctx, id); err != nil {
				return nil, err
			}
			return withoutQuestion(cur, id), nil
		}
	}
	_, err := s.questions.Mutate(ctx, remote, func(_ context.Context, cur []models.Question) ([]models.Question, error) {
		if !slices.ContainsFunc(cur, func(q models.Question) bool { return q.ID == id }) {
			return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
		}
		return withoutQuestion(cur, id), nil
	})
	return err
}

// ImportQuestions sends rows in the external export format. Offline, the rows are
// converted with the same rules the API applies.
func (s *Store) ImportQuestions(ctx context.Context, items []models.ImportItem) (*models.ImportReport, error) {
	var report *models.ImportReport
	var remote func(context.Context, []models.Question) ([]models.Question, error)
	if s.remote != nil {
		remote = func(ctx context.Context, cur []models.Question) ([]models.Question, error) {
			r, err := s.remote.ImportJSON(ctx, items)
			if err != nil {
				return nil, err
			}
			report = r
			fresh, err := s.remote.Questions(ctx, "")
			if err != nil {
				log.Printf("Failed to reload questions after import, marking bank stale: %v", err)
				s.stale.Store(true)
				return cur, nil
			}
			return fresh, nil
		}
	}
	_, err := s.questions.Mutate(ctx, remote, func(_ context.Context, cur []models.Question) ([]models.Question, error) {
		report = &models.ImportReport{Errors: []string{}}
		next := slices.Clone(cur)
		now := s.now()
		for i, item := range items {
			q, msg := item.ToQuestion(i + 1)
			if msg != "" {
				report.Errors = append(report.Errors, msg)
				continue
			}
			q.ID = uuid.NewString()
			q.Stamp(now)
			next = append(next, q)
		}
		report.AddedCount = len(next) - len(cur)
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// StudySets chunks the bank into fixed-size sets and, when it has questions,
// appends the wrong-answers set.
func (s *Store) StudySets() []models.QuizSet {
	questions := s.questions.Get()
	now := s.now()
	var sets []models.QuizSet
	for i := 0; i < len(questions); i += s.SetSize {
		end := min(i+s.SetSize, len(questions))
		n := i/s.SetSize + 1
		sets = append(sets, models.QuizSet{
			ID:        fmt.Sprintf("set-%d", n),
			Name:      fmt.Sprintf("Đề %d", n),
			Questions: slices.Clone(questions[i:end]),
			CreatedAt: now,
		})
	}
	if wrong := s.wrong.Get(); len(wrong) > 0 {
		sets = append(sets, models.QuizSet{
			ID:        models.WrongAnswersSetID,
			Name:      models.WrongAnswersSetName,
			Questions: slices.Clone(wrong),
			CreatedAt: now,
		})
	}
	return sets
}

func (s *Store) StudySet(id string) (models.QuizSet, bool) {
	for _, set := range s.StudySets() {
		if set.ID == id {
			return set, true
		}
	}
	return models.QuizSet{}, false
}

// SetCategories lists the distinct categories of a set in first-seen order.
func SetCategories(set models.QuizSet) []string {
	if set.ID == models.WrongAnswersSetID {
		return []string{WrongSetCategory}
	}
	var out []string
	for _, q := range set.Questions {
		if q.Category != "" && !slices.Contains(out, q.Category) {
			out = append(out, q.Category)
		}
	}
	if len(out) == 0 {
		return []string{models.UncategorizedLabel}
	}
	return out
}

// RandomQuiz picks practice questions: category filter, optional Fisher–Yates
// shuffle, then at most NumberOfQuestions of them.
func (s *Store) RandomQuiz(cfg models.ExamConfig) []models.Question {
	var pool []models.Question
	for _, q := range s.questions.Get() {
		if cfg.Category == "" || q.Category == cfg.Category {
			pool = append(pool, q)
		}
	}
	if cfg.Randomize {
		for i := len(pool) - 1; i > 0; i-- {
			j := s.intn(i + 1)
			pool[i], pool[j] = pool[j], pool[i]
		}
	}
	n := max(0, min(cfg.NumberOfQuestions, len(pool)))
	return pool[:n]
}

// SaveResult stores a finished attempt. Practice results go to the API (local copy
// when it is down). Study results stay local, one per set, and feed the
// wrong-answers set.
func (s *Store) SaveResult(ctx context.Context, result models.QuizResult) (models.QuizResult, error) {
	if err := result.Validate(); err != nil {
		return result, err
	}
	if result.Mode == models.ModePractice {
		return s.savePractice(ctx, result)
	}

	result.ID = uuid.NewString()
	_, err := s.study.Mutate(ctx, nil, func(_ context.Context, cur []models.QuizResult) ([]models.QuizResult, error) {
		next := slices.DeleteFunc(slices.Clone(cur), func(r models.QuizResult) bool {
			return r.Mode == models.ModeStudy && r.QuizSetID == result.QuizSetID
		})
		return append(next, result), nil
	})
	if err != nil {
		return result, err
	}
	if err := s.trackWrongAnswers(ctx, result); err != nil {
		log.Printf("Failed to update wrong answers: %v", err)
	}
	return result, nil
}

func (s *Store) savePractice(ctx context.Context, result models.QuizResult) (models.QuizResult, error) {
	saved := result
	var remote func(context.Context, []models.QuizResult) ([]models.QuizResult, error)
	if s.remote != nil {
		remote = func(ctx context.Context, cur []models.QuizResult) ([]models.QuizResult, error) {
			r, err := s.remote.SavePracticeResult(ctx, result)
			if err != nil {
				return nil, err
			}
			saved = *r
			return append(slices.Clone(cur), saved), nil
		}
	}
	_, err := s.practice.Mutate(ctx, remote, func(_ context.Context, cur []models.QuizResult) ([]models.QuizResult, error) {
		saved.ID = uuid.NewString()
		if saved.Timestamp.IsZero() {
			saved.Timestamp = s.now()
		}
		return append(slices.Clone(cur), saved), nil
	})
	return saved, err
}

// trackWrongAnswers grows the wrong-answers set from a regular study set and
// shrinks it when a question is answered correctly while reviewing that set.
func (s *Store) trackWrongAnswers(ctx context.Context, result models.QuizResult) error {
	_, err := s.wrong.Mutate(ctx, nil, func(_ context.Context, cur []models.Question) ([]models.Question, error) {
		next := slices.Clone(cur)
		for i, q := range result.Questions {
			ans := result.UserAnswers[i]
			if result.QuizSetID == models.WrongAnswersSetID {
				if q.IsCorrect(ans) {
					next = withoutQuestion(next, q.ID)
				}
				continue
			}
			if !ans.IsAnswered() || q.IsCorrect(ans) {
				continue
			}
			if !slices.ContainsFunc(next, func(w models.Question) bool { return w.ID == q.ID }) {
				next = append(next, q)
			}
		}
		return next, nil
	})
	return err
}

func (s *Store) WrongAnswers() []models.Question {
	return slices.Clone(s.wrong.Get())
}

func (s *Store) ClearWrongAnswers(ctx context.Context) error {
	_, err := s.wrong.Mutate(ctx, nil, func(context.Context, []models.Question) ([]models.Question, error) {
		return []models.Question{}, nil
	})
	return err
}

// ClearStudySetResult forgets the stored study result of a set so it can be retaken.
func (s *Store) ClearStudySetResult(ctx context.Context, setID string) error {
	_, err := s.study.Mutate(ctx, nil, func(_ context.Context, cur []models.QuizResult) ([]models.QuizResult, error) {
		return slices.DeleteFunc(slices.Clone(cur), func(r models.QuizResult) bool {
			return r.Mode == models.ModeStudy && r.QuizSetID == setID
		}), nil
	})
	return err
}

// Results returns practice results followed by study results.
func (s *Store) Results() []models.QuizResult {
	return append(slices.Clone(s.practice.Get()), s.study.Get()...)
}

// StudyResult returns the latest study result recorded for a set.
func (s *Store) StudyResult(setID string) (models.QuizResult, bool) {
	var found *models.QuizResult
	results := s.study.Get()
	for i := range results {
		r := &results[i]
		if r.Mode != models.ModeStudy || r.QuizSetID != setID {
			continue
		}
		if found == nil || r.CompletedAt.After(found.CompletedAt) {
			found = r
		}
	}
	if found == nil {
		return models.QuizResult{}, false
	}
	return *found, true
}

// Stats is the statistics view shown to users along with where it came from.
type Stats struct {
	models.Statistics
	AveragePercent int
	Source         Source
}

// Statistics asks the API and computes the figures locally when it cannot.
func (s *Store) Statistics(ctx context.Context) Stats {
	if s.remote != nil {
		remote, err := s.remote.Statistics(ctx)
		if err == nil {
			return Stats{
				Statistics:     *remote,
				AveragePercent: int(math.Round(remote.AverageScore * 100)),
				Source:         SourceRemote,
			}
		}
		log.Printf("Failed to get statistics from API, calculating locally: %v", err)
	}
	return s.localStatistics()
}

func (s *Store) localStatistics() Stats {
	questions := s.questions.Get()
	var practice []models.QuizResult
	for _, r := range s.practice.Get() {
		if r.Mode == models.ModePractice {
			practice = append(practice, r)
		}
	}

	stats := models.Statistics{
		TotalQuestions:  len(questions),
		TotalResults:    len(practice),
		CategoriesCount: map[string]int{},
		DifficultyCount: map[string]int{},
	}
	for _, q := range questions {
		category, difficulty := q.Category, q.Difficulty
		if category == "" {
			category = models.UncategorizedLabel
		}
		if difficulty == "" {
			difficulty = models.DifficultyMedium
		}
		stats.CategoriesCount[category]++
		stats.DifficultyCount[difficulty]++
	}

	var mean float64
	if len(practice) > 0 {
		var sum float64
		for _, r := range practice {
			sum += r.Score
		}
		mean = sum / float64(len(practice))
	}
	stats.AverageScore = math.Round(mean*100) / 100

	recent := slices.Clone(practice)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Timestamp.After(recent[j].Timestamp) })
	stats.RecentResults = recent[:min(5, len(recent))]

	return Stats{Statistics: stats, AveragePercent: int(math.Round(mean * 100)), Source: SourceLocal}
}

func replaceQuestion(list []models.Question, q models.Question) []models.Question {
	out := slices.Clone(list)
	for i := range out {
		if out[i].ID == q.ID {
			out[i] = q
		}
	}
	return out
}

func withoutQuestion(list []models.Question, id string) []models.Question {
	return slices.DeleteFunc(slices.Clone(list), func(q models.Question) bool { return q.ID == id })
}
