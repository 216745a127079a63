// Package quiz runs one quiz attempt: navigation, answers, an optional countdown,
// debounced progress saving and scoring.
package quiz

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"quizbank/internal/models"
)

type State int

const (
	InProgress State = iota
	Finished
	ResultsDisplayed
	Exited
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	case ResultsDisplayed:
		return "results_displayed"
	case Exited:
		return "exited"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type FinishReason string

const (
	FinishSubmitted FinishReason = "submitted"
	FinishTimeUp    FinishReason = "time_up"
)

var (
	ErrNotInProgress = errors.New("attempt is not in progress")
	ErrNotFinished   = errors.New("attempt is not finished")
	ErrOutOfRange    = errors.New("index out of range")
)

const DefaultAutosaveDelay = time.Second

// ProgressStore keeps attempt snapshots between runs.
type ProgressStore interface {
	Get(key string, v any) (bool, error)
	Set(key string, v any) error
	Delete(key string) error
}

// Progress is the saved state of an unfinished attempt.
type Progress struct {
	Answers      []models.Answer `json:"answers"`
	CurrentIndex int             `json:"currentIndex"`
	Timestamp    int64           `json:"timestamp"` // unix millis
}

type Config struct {
	Mode      string
	SetID     string
	Questions []models.Question

	// TimeLimit of zero means untimed.
	TimeLimit     time.Duration
	AutosaveDelay time.Duration
	Progress      ProgressStore

	// OnTick receives the remaining time once per tick. OnTimeUp receives the
	// result when the countdown finishes the attempt. Both run on the timer goroutine.
	OnTick   func(remaining time.Duration)
	OnTimeUp func(result models.QuizResult)

	tick time.Duration
}

type Attempt struct {
	cfg Config
	key string

	mu        sync.Mutex
	state     State
	answers   []models.Answer
	index     int
	started   time.Time
	remaining time.Duration
	result    *models.QuizResult

	// gen counts resets; a save scheduled before a reset must not write afterwards.
	gen       int
	saveTimer *time.Timer
	stop      chan struct{}
	stopOnce  *sync.Once
	// loopDone is closed when the countdown goroutine of the current generation returns.
	loopDone chan struct{}
}

// Start begins a fresh attempt and its countdown, if any.
func Start(cfg Config) *Attempt {
	if cfg.SetID == "" {
		cfg.SetID = models.PracticeSetID
	}
	if cfg.Mode == "" {
		cfg.Mode = models.ModeStudy
	}
	if cfg.AutosaveDelay <= 0 {
		cfg.AutosaveDelay = DefaultAutosaveDelay
	}
	if cfg.tick <= 0 {
		cfg.tick = time.Second
	}
	a := &Attempt{
		cfg: cfg,
		key: "quiz-progress-" + cfg.Mode + "-" + cfg.SetID,
	}
	a.reset()
	return a
}

// reset starts over with blank answers and a new countdown generation.
func (a *Attempt) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.state = InProgress
	a.answers = make([]models.Answer, len(a.cfg.Questions))
	a.index = 0
	a.started = time.Now()
	a.remaining = a.cfg.TimeLimit
	a.result = nil
	a.stop = make(chan struct{})
	a.stopOnce = &sync.Once{}
	a.loopDone = make(chan struct{})
	if a.cfg.TimeLimit > 0 {
		go a.countdown(a.stop, a.loopDone)
	} else {
		close(a.loopDone)
	}
}

func (a *Attempt) countdown(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(a.cfg.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		a.mu.Lock()
		if a.state != InProgress || a.stop != stop {
			a.mu.Unlock()
			return
		}
		a.remaining -= a.cfg.tick
		remaining := max(a.remaining, 0)
		a.mu.Unlock()

		if a.cfg.OnTick != nil {
			a.cfg.OnTick(remaining)
		}
		if remaining > 0 {
			continue
		}
		result, err := a.Finish(FinishTimeUp)
		if err != nil {
			return
		}
		if a.cfg.OnTimeUp != nil {
			a.cfg.OnTimeUp(result)
		}
		return
	}
}

// Key is the progress key of this attempt.
func (a *Attempt) Key() string {
	return a.key
}

func (a *Attempt) Mode() string {
	return a.cfg.Mode
}

func (a *Attempt) SetID() string {
	return a.cfg.SetID
}

func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Attempt) Len() int {
	return len(a.cfg.Questions)
}

// Current returns the question on screen and its index.
func (a *Attempt) Current() (models.Question, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.cfg.Questions) == 0 {
		return models.Question{}, -1
	}
	return a.cfg.Questions[a.index], a.index
}

func (a *Attempt) Answers() []models.Answer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.answers)
}

func (a *Attempt) AnswerAt(i int) models.Answer {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.answers) {
		return models.Unanswered()
	}
	return a.answers[i]
}

func (a *Attempt) Remaining() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return max(a.remaining, 0)
}

// Completion is the share of answered questions in percent.
func (a *Attempt) Completion() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.answers) == 0 {
		return 0
	}
	answered := 0
	for _, ans := range a.answers {
		if ans.IsAnswered() {
			answered++
		}
	}
	return float64(answered) / float64(len(a.answers)) * 100
}

// Answer picks an option of the current question. Multi-select questions toggle it.
func (a *Attempt) Answer(option int) error {
	return a.mutate(func() error {
		q := a.cfg.Questions[a.index]
		if option < 0 || option >= len(q.Options) {
			return fmt.Errorf("option %d: %w", option, ErrOutOfRange)
		}
		if q.CorrectAnswer.IsMultiple() {
			a.answers[a.index] = a.answers[a.index].Toggle(option)
		} else {
			a.answers[a.index] = models.Single(option)
		}
		return nil
	})
}

// Toggle flips one option of the current answer as a multi-select pick.
func (a *Attempt) Toggle(option int) error {
	return a.mutate(func() error {
		q := a.cfg.Questions[a.index]
		if option < 0 || option >= len(q.Options) {
			return fmt.Errorf("option %d: %w", option, ErrOutOfRange)
		}
		a.answers[a.index] = a.answers[a.index].Toggle(option)
		return nil
	})
}

func (a *Attempt) Clear() error {
	return a.mutate(func() error {
		a.answers[a.index] = models.Unanswered()
		return nil
	})
}

// Next moves forward and reports whether it moved.
func (a *Attempt) Next() bool {
	moved := false
	a.mutate(func() error {
		if a.index < len(a.cfg.Questions)-1 {
			a.index++
			moved = true
		}
		return nil
	})
	return moved
}

func (a *Attempt) Previous() bool {
	moved := false
	a.mutate(func() error {
		if a.index > 0 {
			a.index--
			moved = true
		}
		return nil
	})
	return moved
}

func (a *Attempt) GoTo(i int) error {
	return a.mutate(func() error {
		if i < 0 || i >= len(a.cfg.Questions) {
			return fmt.Errorf("question %d: %w", i, ErrOutOfRange)
		}
		a.index = i
		return nil
	})
}

// mutate applies fn while in progress and schedules a progress save.
func (a *Attempt) mutate(fn func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != InProgress || len(a.cfg.Questions) == 0 {
		return ErrNotInProgress
	}
	if err := fn(); err != nil {
		return err
	}
	a.scheduleSave()
	return nil
}

func (a *Attempt) scheduleSave() {
	if a.cfg.Progress == nil {
		return
	}
	if a.saveTimer != nil {
		a.saveTimer.Stop()
	}
	gen := a.gen
	a.saveTimer = time.AfterFunc(a.cfg.AutosaveDelay, func() { a.saveProgress(gen) })
}

func (a *Attempt) saveProgress(gen int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != InProgress || a.gen != gen {
		return
	}
	a.writeProgress()
}

func (a *Attempt) writeProgress() {
	p := Progress{
		Answers:      slices.Clone(a.answers),
		CurrentIndex: a.index,
		Timestamp:    time.Now().UnixMilli(),
	}
	if err := a.cfg.Progress.Set(a.key, p); err != nil {
		log.Printf("Failed to save progress %s: %v", a.key, err)
	}
}

// Resume restores saved progress for this mode and set. It reports false when
// nothing usable was saved.
func (a *Attempt) Resume() (bool, error) {
	if a.cfg.Progress == nil {
		return false, nil
	}
	var p Progress
	found, err := a.cfg.Progress.Get(a.key, &p)
	if err != nil || !found {
		return false, err
	}
	if len(p.Answers) != len(a.cfg.Questions) {
		return false, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != InProgress {
		return false, ErrNotInProgress
	}
	a.answers = p.Answers
	if p.CurrentIndex >= 0 && p.CurrentIndex < len(a.cfg.Questions) {
		a.index = p.CurrentIndex
	}
	return true, nil
}

// Finish scores the attempt, stops its timers and drops saved progress.
func (a *Attempt) Finish(reason FinishReason) (models.QuizResult, error) {
	a.mu.Lock()
	if a.state != InProgress {
		a.mu.Unlock()
		return models.QuizResult{}, ErrNotInProgress
	}
	a.state = Finished
	a.halt()
	result := a.score()
	a.result = &result
	a.mu.Unlock()

	a.clearProgress()
	log.Printf("Attempt %s finished (%s): score %.2f", a.key, reason, result.Score)
	return result, nil
}

// ShowResults moves a finished attempt to the results screen.
func (a *Attempt) ShowResults() (models.QuizResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Finished && a.state != ResultsDisplayed {
		return models.QuizResult{}, ErrNotFinished
	}
	a.state = ResultsDisplayed
	return *a.result, nil
}

// Result is the scored result once the attempt is finished.
func (a *Attempt) Result() (models.QuizResult, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.result == nil {
		return models.QuizResult{}, false
	}
	return *a.result, true
}

// Exit abandons the attempt and its saved progress.
func (a *Attempt) Exit() {
	a.mu.Lock()
	a.state = Exited
	a.halt()
	a.mu.Unlock()
	a.clearProgress()
}

// SaveAndExit leaves an in-progress attempt with its progress written now, so a
// later attempt on the same set can Resume.
func (a *Attempt) SaveAndExit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == InProgress && a.cfg.Progress != nil {
		a.writeProgress()
	}
	a.state = Exited
	a.halt()
}

// Retake starts the same questions again from scratch.
func (a *Attempt) Retake() {
	a.mu.Lock()
	a.halt()
	a.mu.Unlock()
	a.clearProgress()
	a.reset()
}

// halt stops the countdown and pending save. Callers hold a.mu.
func (a *Attempt) halt() {
	a.stopOnce.Do(func() { close(a.stop) })
	if a.saveTimer != nil {
		a.saveTimer.Stop()
		a.saveTimer = nil
	}
}

func (a *Attempt) clearProgress() {
	if a.cfg.Progress == nil {
		return
	}
	if err := a.cfg.Progress.Delete(a.key); err != nil {
		log.Printf("Failed to clear progress %s: %v", a.key, err)
	}
}

// score builds the result. Callers hold a.mu.
func (a *Attempt) score() models.QuizResult {
	total := len(a.cfg.Questions)
	correct := 0
	for i, q := range a.cfg.Questions {
		if q.IsCorrect(a.answers[i]) {
			correct++
		}
	}
	var score float64
	if total > 0 {
		score = float64(correct) / float64(total)
	}
	now := time.Now()
	return models.QuizResult{
		QuizSetID:      a.cfg.SetID,
		Questions:      slices.Clone(a.cfg.Questions),
		UserAnswers:    slices.Clone(a.answers),
		Score:          score,
		TotalQuestions: total,
		TimeSpent:      int(now.Sub(a.started).Seconds()),
		CompletedAt:    now,
		Mode:           a.cfg.Mode,
	}
}

// FormatClock renders seconds as m:ss.
func FormatClock(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
