package bot

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"quizbank/internal/client"
	"quizbank/internal/models"

	tele "gopkg.in/telebot.v4"
)

const wrongSetArg = models.WrongAnswersSetID

func (b *Bot) listSets(chat *tele.Chat) error {
	b.send(chat, renderSets(b.store.StudySets(), b.store))
	return nil
}

func (b *Bot) startStudy(chat *tele.Chat, args []string) error {
	if len(args) == 0 {
		b.send(chat, "Cú pháp: /study <mã đề>, ví dụ /study set-1. Xem danh sách bằng /sets.")
		return nil
	}
	set, ok := b.store.StudySet(args[0])
	if !ok {
		if args[0] == wrongSetArg {
			b.send(chat, "Chưa có câu sai nào để ôn lại. 🎉")
		} else {
			b.send(chat, fmt.Sprintf("Không tìm thấy đề %s.", args[0]))
		}
		return nil
	}
	b.begin(chat, set.Name, models.ModeStudy, set.ID, set.Questions, 0)
	return nil
}

// parsePracticeArgs reads "[count] [minutes] [category...]".
func parsePracticeArgs(args []string, defaultCount int) (models.ExamConfig, error) {
	cfg := models.ExamConfig{NumberOfQuestions: defaultCount, Randomize: true}
	rest := args
	if len(rest) > 0 {
		if n, err := strconv.Atoi(rest[0]); err == nil {
			if n <= 0 {
				return cfg, fmt.Errorf("số câu phải lớn hơn 0")
			}
			cfg.NumberOfQuestions = n
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		if m, err := strconv.Atoi(rest[0]); err == nil {
			if m < 0 {
				return cfg, fmt.Errorf("số phút không hợp lệ")
			}
			cfg.TimeLimit = m
			rest = rest[1:]
		}
	}
	cfg.Category = strings.Join(rest, " ")
	return cfg, nil
}

func (b *Bot) startPractice(chat *tele.Chat, args []string) error {
	cfg, err := parsePracticeArgs(args, b.opts.DefaultPractice)
	if err != nil {
		b.send(chat, "⚠️ "+err.Error())
		return nil
	}
	questions := b.store.RandomQuiz(cfg)
	if len(questions) == 0 {
		b.send(chat, "Không có câu hỏi phù hợp.")
		return nil
	}
	title := "Thi thử"
	if cfg.Category != "" {
		title += " · " + cfg.Category
	}
	b.begin(chat, title, models.ModePractice, models.PracticeSetID, questions, cfg.Duration())
	return nil
}

func (b *Bot) listResults(chat *tele.Chat) error {
	b.send(chat, renderResults(b.store.Results()))
	return nil
}

func (b *Bot) showStats(chat *tele.Chat) error {
	ctx, cancel := b.ctx()
	defer cancel()
	b.send(chat, renderStats(b.store.Statistics(ctx)))
	return nil
}

// reset clears the stored study result and saved progress of a set. For the
// wrong-answers set the collected questions go as well.
func (b *Bot) reset(chat *tele.Chat, args []string) error {
	if len(args) == 0 {
		b.send(chat, "Cú pháp: /reset <mã đề>")
		return nil
	}
	ctx, cancel := b.ctx()
	defer cancel()

	setID := args[0]
	if setID == wrongSetArg {
		if err := b.store.ClearWrongAnswers(ctx); err != nil {
			b.send(chat, "⚠️ Không xóa được câu sai: "+err.Error())
			return nil
		}
	}
	if err := b.store.ClearStudySetResult(ctx, setID); err != nil {
		b.send(chat, "⚠️ Không xóa được kết quả: "+err.Error())
		return nil
	}
	if err := b.store.Local().Delete(client.ProgressKey(models.ModeStudy, setID)); err != nil {
		log.Printf("Failed to clear progress of %s: %v", setID, err)
	}
	b.send(chat, fmt.Sprintf("Đã xóa kết quả của %s.", setID))
	return nil
}

func (b *Bot) refresh(chat *tele.Chat) error {
	ctx, cancel := b.ctx()
	defer cancel()
	start := time.Now()
	b.store.Refresh(ctx)
	b.send(chat, fmt.Sprintf("Đã tải lại %d câu hỏi (%s).", len(b.store.Questions()), time.Since(start).Round(time.Millisecond)))
	return nil
}
