package bot

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"quizbank/internal/models"
	"quizbank/internal/quiz"

	tele "gopkg.in/telebot.v4"
)

const noAttemptText = "Không có bài nào đang làm. Gõ /sets hoặc /practice để bắt đầu."

// begin replaces whatever attempt the chat had with a new one.
func (b *Bot) begin(chat *tele.Chat, title, mode, setID string, questions []models.Question, limit time.Duration) {
	b.stopCurrent(chat)

	sess := newSession(title)
	sess.attempt = quiz.Start(quiz.Config{
		Mode:          mode,
		SetID:         setID,
		Questions:     questions,
		TimeLimit:     limit,
		AutosaveDelay: b.opts.AutosaveDelay,
		Progress:      b.store.Local(),
		OnTick:        func(remaining time.Duration) { b.tick(sess, remaining) },
		OnTimeUp:      func(r models.QuizResult) { b.complete(chat, sess, r, true) },
	})

	// practice questions are drawn anew each time, so only study sets resume
	if mode == models.ModeStudy {
		resumed, err := sess.attempt.Resume()
		if err != nil {
			log.Printf("Failed to resume %s: %v", sess.attempt.Key(), err)
		}
		if resumed {
			b.send(chat, "▶️ Tiếp tục bài làm đang dở.")
		}
	}
	b.show(chat, sess)
}

// stopCurrent saves the running attempt of the chat, if any, and forgets the
// finished one.
func (b *Bot) stopCurrent(chat *tele.Chat) {
	if old := b.detach(chat.ID, nil); old != nil {
		old.attempt.SaveAndExit()
		question, _ := old.messages()
		b.edit(question, "💾 Bài trước đã được lưu.")
	}
	b.mu.Lock()
	delete(b.finished, chat.ID)
	b.mu.Unlock()
}

// show sends the timer and question messages and makes the session current.
func (b *Bot) show(chat *tele.Chat, sess *session) {
	var timer *tele.Message
	if limit := sess.attempt.Remaining(); limit > 0 {
		timer = b.send(chat, "⏱ Còn lại: "+quiz.FormatClock(limit))
	}
	text, markup := renderQuestion(sess.title, sess.attempt)
	question := b.send(chat, text, markup)
	sess.publish(question, timer)

	b.mu.Lock()
	b.sessions[chat.ID] = sess
	b.mu.Unlock()
}

// retake runs the chat's last finished attempt again with blank answers. A study
// set also loses its stored result.
func (b *Bot) retake(chat *tele.Chat) error {
	b.mu.Lock()
	sess := b.finished[chat.ID]
	delete(b.finished, chat.ID)
	b.mu.Unlock()
	if sess == nil {
		b.send(chat, "Không có bài nào để làm lại.")
		return nil
	}
	b.stopCurrent(chat)

	if sess.attempt.Mode() == models.ModeStudy {
		ctx, cancel := b.ctx()
		defer cancel()
		if err := b.store.ClearStudySetResult(ctx, sess.attempt.SetID()); err != nil {
			log.Printf("Failed to clear result of %s: %v", sess.attempt.SetID(), err)
		}
	}
	sess.rearm()
	sess.attempt.Retake()
	b.show(chat, sess)
	return nil
}

// detach removes the chat's session. With want set, only that session is removed.
func (b *Bot) detach(chatID int64, want *session) *session {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.sessions[chatID]
	if s == nil || (want != nil && s != want) {
		return nil
	}
	delete(b.sessions, chatID)
	return s
}

func (b *Bot) tick(sess *session, remaining time.Duration) {
	if remaining > 10*time.Second && remaining%b.opts.TimerEvery != 0 {
		return
	}
	_, timer := sess.messages()
	b.edit(timer, "⏱ Còn lại: "+quiz.FormatClock(remaining))
}

func (b *Bot) redraw(sess *session) {
	question, _ := sess.messages()
	text, markup := renderQuestion(sess.title, sess.attempt)
	b.edit(question, text, markup)
}

func (b *Bot) answer(chat *tele.Chat, data string) error {
	sess := b.session(chat.ID)
	if sess == nil {
		b.send(chat, noAttemptText)
		return nil
	}
	option, err := strconv.Atoi(data)
	if err != nil {
		return nil
	}
	if err := sess.attempt.Answer(option); err != nil {
		log.Printf("Chat %d: %v", chat.ID, err)
		return nil
	}
	b.redraw(sess)
	return nil
}

func (b *Bot) navigate(chat *tele.Chat, data string) error {
	sess := b.session(chat.ID)
	if sess == nil {
		b.send(chat, noAttemptText)
		return nil
	}
	moved := false
	switch data {
	case navPrev:
		moved = sess.attempt.Previous()
	case navNext:
		moved = sess.attempt.Next()
	}
	if moved {
		b.redraw(sess)
	}
	return nil
}

func (b *Bot) clear(chat *tele.Chat) error {
	sess := b.session(chat.ID)
	if sess == nil {
		b.send(chat, noAttemptText)
		return nil
	}
	if err := sess.attempt.Clear(); err == nil {
		b.redraw(sess)
	}
	return nil
}

// goTo jumps to a 1-based question number.
func (b *Bot) goTo(chat *tele.Chat, args []string) error {
	sess := b.session(chat.ID)
	if sess == nil {
		b.send(chat, noAttemptText)
		return nil
	}
	if len(args) == 0 {
		b.send(chat, "Cú pháp: /goto <số câu>")
		return nil
	}
	n, err := strconv.Atoi(args[0])
	if err == nil {
		err = sess.attempt.GoTo(n - 1)
	}
	if err != nil {
		b.send(chat, fmt.Sprintf("Số câu phải từ 1 đến %d.", sess.attempt.Len()))
		return nil
	}
	b.redraw(sess)
	return nil
}

func (b *Bot) finish(chat *tele.Chat) error {
	sess := b.session(chat.ID)
	if sess == nil {
		b.send(chat, noAttemptText)
		return nil
	}
	result, err := sess.attempt.Finish(quiz.FinishSubmitted)
	if err != nil {
		// the countdown got there first
		return nil
	}
	b.complete(chat, sess, result, false)
	return nil
}

func (b *Bot) quit(chat *tele.Chat) error {
	sess := b.detach(chat.ID, nil)
	if sess == nil {
		b.send(chat, noAttemptText)
		return nil
	}
	question, _ := sess.messages()
	if sess.attempt.Mode() == models.ModeStudy {
		sess.attempt.SaveAndExit()
		b.edit(question, fmt.Sprintf("💾 Đã lưu bài làm. Gõ /study %s để làm tiếp.", sess.attempt.SetID()))
	} else {
		sess.attempt.Exit()
		b.edit(question, "Đã thoát bài thi thử.")
	}
	return nil
}

// complete stores a finished attempt and shows its result with a retake button.
func (b *Bot) complete(chat *tele.Chat, sess *session, result models.QuizResult, timeUp bool) {
	question, timer := sess.messages()
	b.detach(chat.ID, sess)

	ctx, cancel := b.ctx()
	defer cancel()
	if _, err := b.store.SaveResult(ctx, result); err != nil {
		log.Printf("Failed to save result for chat %d: %v", chat.ID, err)
		b.send(chat, "⚠️ Không lưu được kết quả: "+err.Error())
	}
	if _, err := sess.attempt.ShowResults(); err != nil {
		log.Printf("Chat %d: %v", chat.ID, err)
	}

	if timeUp {
		b.edit(timer, "⏰ Hết giờ!")
	}
	b.edit(question, "🏁 Đã nộp bài.")

	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(m.Data("🔁 Làm lại", uniqueRetake)))
	b.send(chat, renderResult(result, timeUp), m)

	b.mu.Lock()
	b.finished[chat.ID] = sess
	b.mu.Unlock()
}
