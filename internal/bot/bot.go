// Package bot is the Telegram front end: study sets, timed practice and review,
// driven by the client store and the quiz state machine.
package bot

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"slices"
	"sync"
	"time"

	"quizbank/internal/client"
	"quizbank/internal/pdfparser"
	"quizbank/internal/quiz"

	tele "gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/middleware"
)

const (
	uniqueAnswer    = "ans"
	uniqueNav       = "nav"
	uniqueClear     = "clr"
	uniqueFinish    = "fin"
	uniqueQuit      = "quit"
	uniqueRetake    = "again"
	uniqueReview    = "rev"
	uniqueImport    = "imp"
	uniqueImportNot = "impx"

	navPrev = "prev"
	navNext = "next"
	navStay = "stay"
)

// messenger is the part of *tele.Bot the flows use.
type messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	File(file *tele.File) (io.ReadCloser, error)
}

// PDFParser parses an uploaded document on the API side.
type PDFParser interface {
	ParsePDF(ctx context.Context, filename string, r io.Reader) (*pdfparser.PDFParseResult, error)
}

type Options struct {
	DefaultPractice int
	AutosaveDelay   time.Duration
	RequestTimeout  time.Duration
	AdminChatIDs    []int64
	// TimerEvery is how often the countdown message is edited.
	TimerEvery time.Duration
	// BankQuiet is how long the bank must stay unchanged before admins hear about it.
	BankQuiet time.Duration
}

type Bot struct {
	out    messenger
	store  *client.Store
	parser PDFParser
	opts   Options

	mu       sync.Mutex
	sessions map[int64]*session
	// finished holds the last completed attempt per chat for the retake button.
	finished map[int64]*session
	reviews  map[int64]*review
	imports  map[int64]*pdfSummary
}

// session is the attempt running in one chat. Its messages are published
// together with closing ready; the countdown callbacks wait for that.
type session struct {
	title   string
	attempt *quiz.Attempt

	mu       sync.Mutex
	ready    chan struct{}
	question *tele.Message
	timer    *tele.Message
}

func newSession(title string) *session {
	return &session{title: title, ready: make(chan struct{})}
}

// messages waits until the session is shown and returns its messages.
func (s *session) messages() (question, timer *tele.Message) {
	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()
	<-ready

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.question, s.timer
}

func (s *session) publish(question, timer *tele.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.question, s.timer = question, timer
	close(s.ready)
}

// rearm makes messages block again until the next publish.
func (s *session) rearm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = make(chan struct{})
	s.question, s.timer = nil, nil
}

// New builds the front end. parser may be nil, then documents are parsed in process.
func New(out messenger, store *client.Store, parser PDFParser, opts Options) *Bot {
	if opts.DefaultPractice <= 0 {
		opts.DefaultPractice = 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.TimerEvery <= 0 {
		opts.TimerEvery = 5 * time.Second
	}
	if opts.BankQuiet <= 0 {
		opts.BankQuiet = 3 * time.Second
	}
	return &Bot{
		out:      out,
		store:    store,
		parser:   parser,
		opts:     opts,
		sessions: make(map[int64]*session),
		finished: make(map[int64]*session),
		reviews:  make(map[int64]*review),
		imports:  make(map[int64]*pdfSummary),
	}
}

// Register wires the commands and buttons on tb.
func (b *Bot) Register(tb *tele.Bot, debug bool) {
	if debug {
		tb.Use(Logger(log.Default()))
	}
	tb.Use(middleware.AutoRespond(), middleware.Recover())

	tb.Handle("/start", func(c tele.Context) error { return c.Send(helpText) })
	tb.Handle("/help", func(c tele.Context) error { return c.Send(helpText) })
	tb.Handle("/sets", func(c tele.Context) error { return b.listSets(c.Chat()) })
	tb.Handle("/study", func(c tele.Context) error { return b.startStudy(c.Chat(), c.Args()) })
	tb.Handle("/practice", func(c tele.Context) error { return b.startPractice(c.Chat(), c.Args()) })
	tb.Handle("/wrong", func(c tele.Context) error {
		return b.startStudy(c.Chat(), []string{wrongSetArg})
	})
	tb.Handle("/goto", func(c tele.Context) error { return b.goTo(c.Chat(), c.Args()) })
	tb.Handle("/review", func(c tele.Context) error { return b.startReview(c.Chat(), c.Args()) })
	tb.Handle("/retry", func(c tele.Context) error { return b.retryIncorrect(c.Chat(), c.Args()) })
	tb.Handle("/results", func(c tele.Context) error { return b.listResults(c.Chat()) })
	tb.Handle("/stats", func(c tele.Context) error { return b.showStats(c.Chat()) })
	tb.Handle("/reset", func(c tele.Context) error { return b.reset(c.Chat(), c.Args()) })
	tb.Handle("/refresh", func(c tele.Context) error { return b.refresh(c.Chat()) })

	tb.Handle(&tele.InlineButton{Unique: uniqueAnswer}, func(c tele.Context) error {
		return b.answer(c.Chat(), c.Callback().Data)
	})
	tb.Handle(&tele.InlineButton{Unique: uniqueNav}, func(c tele.Context) error {
		return b.navigate(c.Chat(), c.Callback().Data)
	})
	tb.Handle(&tele.InlineButton{Unique: uniqueClear}, func(c tele.Context) error {
		return b.clear(c.Chat())
	})
	tb.Handle(&tele.InlineButton{Unique: uniqueFinish}, func(c tele.Context) error {
		return b.finish(c.Chat())
	})
	tb.Handle(&tele.InlineButton{Unique: uniqueQuit}, func(c tele.Context) error {
		return b.quit(c.Chat())
	})
	tb.Handle(&tele.InlineButton{Unique: uniqueRetake}, func(c tele.Context) error {
		return b.retake(c.Chat())
	})
	tb.Handle(&tele.InlineButton{Unique: uniqueReview}, func(c tele.Context) error {
		return b.moveReview(c.Chat(), c.Callback().Data)
	})

	tb.Handle(tele.OnDocument, func(c tele.Context) error {
		return b.receiveDocument(c.Chat(), c.Message().Document)
	})
	tb.Handle(&tele.InlineButton{Unique: uniqueImport}, func(c tele.Context) error {
		return b.confirmImport(c.Chat())
	})
	tb.Handle(&tele.InlineButton{Unique: uniqueImportNot}, func(c tele.Context) error {
		return b.cancelImport(c.Chat())
	})
}

// Logger logs every incoming update as JSON.
func Logger(l *log.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			data, _ := json.Marshal(c.Update())
			l.Printf("[bot] %s", data)
			return next(c)
		}
	}
}

// Shutdown stops every running attempt, keeping its progress for later.
func (b *Bot) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, s := range b.sessions {
		s.attempt.SaveAndExit()
		delete(b.sessions, id)
	}
	b.finished = make(map[int64]*session)
}

func (b *Bot) isAdmin(chat *tele.Chat) bool {
	return slices.Contains(b.opts.AdminChatIDs, chat.ID)
}

func (b *Bot) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), b.opts.RequestTimeout)
}

func (b *Bot) send(chat *tele.Chat, what interface{}, opts ...interface{}) *tele.Message {
	msg, err := b.out.Send(chat, what, opts...)
	if err != nil {
		log.Printf("Failed to send to chat %d: %v", chat.ID, err)
	}
	return msg
}

func (b *Bot) edit(msg *tele.Message, what interface{}, opts ...interface{}) {
	if msg == nil {
		return
	}
	if _, err := b.out.Edit(msg, what, opts...); err != nil {
		log.Printf("Failed to edit message %d: %v", msg.ID, err)
	}
}

func (b *Bot) session(chatID int64) *session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}
