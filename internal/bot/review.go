package bot

import (
	"fmt"

	"quizbank/internal/models"

	tele "gopkg.in/telebot.v4"
)

// incorrectSuffix marks the set made of the questions a study result got wrong.
const incorrectSuffix = "-incorrect"

// review pages through a stored study result, one question per edit.
type review struct {
	title  string
	result models.QuizResult
	index  int
	msg    *tele.Message
}

func (b *Bot) setTitle(setID string) string {
	if set, ok := b.store.StudySet(setID); ok {
		return set.Name
	}
	return setID
}

// latestStudyResult replies with a hint when the set has no result yet.
func (b *Bot) latestStudyResult(chat *tele.Chat, args []string, usage string) (string, models.QuizResult, bool) {
	if len(args) == 0 {
		b.send(chat, usage)
		return "", models.QuizResult{}, false
	}
	r, ok := b.store.StudyResult(args[0])
	if !ok {
		b.send(chat, fmt.Sprintf("Chưa có kết quả cho đề %s. Gõ /study %s để làm bài.", args[0], args[0]))
		return "", models.QuizResult{}, false
	}
	return args[0], r, true
}

// startReview shows the latest result of a study set and a viewer over its questions.
func (b *Bot) startReview(chat *tele.Chat, args []string) error {
	setID, r, ok := b.latestStudyResult(chat, args, "Cú pháp: /review <mã đề>")
	if !ok {
		return nil
	}
	b.send(chat, renderResult(r, false))
	if len(r.Questions) == 0 {
		return nil
	}

	rv := &review{title: b.setTitle(setID), result: r}
	text, markup := renderReview(rv.title, r, 0)
	rv.msg = b.send(chat, text, markup)

	b.mu.Lock()
	b.reviews[chat.ID] = rv
	b.mu.Unlock()
	return nil
}

func (b *Bot) moveReview(chat *tele.Chat, data string) error {
	b.mu.Lock()
	rv := b.reviews[chat.ID]
	if rv == nil {
		b.mu.Unlock()
		b.send(chat, "Gõ /review <mã đề> để xem lại bài làm.")
		return nil
	}
	i := rv.index
	switch data {
	case navPrev:
		i--
	case navNext:
		i++
	}
	if i < 0 || i >= len(rv.result.Questions) || i == rv.index {
		b.mu.Unlock()
		return nil
	}
	rv.index = i
	b.mu.Unlock()

	text, markup := renderReview(rv.title, rv.result, i)
	b.edit(rv.msg, text, markup)
	return nil
}

// retryIncorrect starts a study attempt over the questions the latest result of
// a set got wrong. Unanswered ones are left out.
func (b *Bot) retryIncorrect(chat *tele.Chat, args []string) error {
	setID, r, ok := b.latestStudyResult(chat, args, "Cú pháp: /retry <mã đề>")
	if !ok {
		return nil
	}
	wrong := r.IncorrectQuestions()
	if len(wrong) == 0 {
		b.send(chat, fmt.Sprintf("Không có câu sai nào trong đề %s. 🎉", setID))
		return nil
	}
	b.send(chat, fmt.Sprintf("Làm lại %d câu đã trả lời sai.", len(wrong)))
	b.begin(chat, b.setTitle(setID)+" · câu sai", models.ModeStudy, setID+incorrectSuffix, wrong, 0)
	return nil
}
