package bot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"quizbank/internal/client"
	"quizbank/internal/models"
	"quizbank/internal/quiz"

	tele "gopkg.in/telebot.v4"
)

// Telegram rejects longer messages.
const maxMessageRunes = 4000

const helpText = `📚 Ngân hàng câu hỏi

/sets - danh sách đề học
/study <mã đề> - học theo đề, ví dụ /study set-1
/practice [số câu] [phút] [chủ đề] - thi thử ngẫu nhiên
/goto <số câu> - chuyển đến câu trong bài đang làm
/wrong - ôn lại các câu đã làm sai
/review <mã đề> - xem lại bài làm gần nhất của đề
/retry <mã đề> - làm lại các câu sai của đề
/results - kết quả gần đây
/stats - thống kê
/reset <mã đề> - xóa kết quả để học lại
/refresh - tải lại ngân hàng câu hỏi`

func optionLetter(i int) string {
	return string(rune('A' + i))
}

func truncate(s string) string { return truncateRunes(s, maxMessageRunes) }

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// renderQuestion draws the current question of an attempt with its keyboard.
func renderQuestion(title string, a *quiz.Attempt) (string, *tele.ReplyMarkup) {
	q, i := a.Current()
	answer := a.AnswerAt(i)

	var b strings.Builder
	fmt.Fprintf(&b, "%s · Câu %d/%d · %.0f%% đã làm\n\n%s\n", title, i+1, a.Len(), a.Completion(), q.Content)
	for j, opt := range q.Options {
		fmt.Fprintf(&b, "\n%s. %s", optionLetter(j), opt)
	}
	if q.CorrectAnswer.IsMultiple() {
		b.WriteString("\n\n(Chọn nhiều đáp án)")
	}
	if limit := a.Remaining(); limit > 0 {
		fmt.Fprintf(&b, "\n\n⏱ %s", quiz.FormatClock(limit))
	}

	m := &tele.ReplyMarkup{}
	var options []tele.Btn
	for j := range q.Options {
		label := optionLetter(j)
		if answer.Contains(j) {
			label = "✅ " + label
		}
		options = append(options, m.Data(label, uniqueAnswer, strconv.Itoa(j)))
	}
	if answer.IsAnswered() {
		options = append(options, m.Data("↩️", uniqueClear))
	}
	m.Inline(
		m.Row(options...),
		m.Row(
			m.Data("◀️", uniqueNav, navPrev),
			m.Data(fmt.Sprintf("%d/%d", i+1, a.Len()), uniqueNav, navStay),
			m.Data("▶️", uniqueNav, navNext),
		),
		m.Row(
			m.Data("🏁 Nộp bài", uniqueFinish),
			m.Data("💾 Lưu & thoát", uniqueQuit),
		),
	)
	return truncate(b.String()), m
}

// renderResult summarises a finished attempt and lists the missed questions.
func renderResult(r models.QuizResult, timeUp bool) string {
	t := r.Tally()
	var b strings.Builder
	if timeUp {
		b.WriteString("⏰ Hết giờ!\n")
	}
	fmt.Fprintf(&b, "🏁 Kết quả: %d/%d (%d%%)\n", t.Correct, r.TotalQuestions, percent(r.Score))
	fmt.Fprintf(&b, "✅ Đúng: %d\n❌ Sai: %d\n⬜ Bỏ trống: %d\n", t.Correct, t.Incorrect, t.Unanswered)
	fmt.Fprintf(&b, "⏱ Thời gian: %s", quiz.FormatClock(time.Duration(r.TimeSpent)*time.Second))

	for i, q := range r.Questions {
		ans := r.UserAnswers[i]
		if q.IsCorrect(ans) {
			continue
		}
		fmt.Fprintf(&b, "\n\nCâu %d: %s\nBạn chọn: %s · Đáp án: %s", i+1, q.Content, ans, q.CorrectAnswer)
	}
	return truncate(b.String())
}

// renderReview shows question i of a stored result with the correct options
// marked and the user's wrong picks crossed.
func renderReview(title string, r models.QuizResult, i int) (string, *tele.ReplyMarkup) {
	q, ans := r.Questions[i], r.UserAnswers[i]

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 %s · Câu %d/%d\n\n%s\n", title, i+1, len(r.Questions), q.Content)
	for j, opt := range q.Options {
		mark := "▫️"
		switch {
		case q.CorrectAnswer.Contains(j):
			mark = "✅"
		case ans.Contains(j):
			mark = "❌"
		}
		fmt.Fprintf(&b, "\n%s %s. %s", mark, optionLetter(j), opt)
	}
	switch {
	case !ans.IsAnswered():
		fmt.Fprintf(&b, "\n\n⬜ Bỏ trống · Đáp án: %s", q.CorrectAnswer)
	case q.IsCorrect(ans):
		b.WriteString("\n\n✅ Đúng")
	default:
		fmt.Fprintf(&b, "\n\n❌ Sai · Bạn chọn: %s · Đáp án: %s", ans, q.CorrectAnswer)
	}

	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(
		m.Data("◀️", uniqueReview, navPrev),
		m.Data(fmt.Sprintf("%d/%d", i+1, len(r.Questions)), uniqueReview, navStay),
		m.Data("▶️", uniqueReview, navNext),
	))
	return truncate(b.String()), m
}

func renderSets(sets []models.QuizSet, store *client.Store) string {
	if len(sets) == 0 {
		return "Chưa có câu hỏi nào."
	}
	var b strings.Builder
	b.WriteString("📖 Đề học")
	for _, set := range sets {
		fmt.Fprintf(&b, "\n\n%s (%d câu) · %s\n/study %s", set.Name, len(set.Questions), strings.Join(client.SetCategories(set), ", "), set.ID)
		if r, ok := store.StudyResult(set.ID); ok {
			t := r.Tally()
			fmt.Fprintf(&b, " · ✅ %d/%d", t.Correct, r.TotalQuestions)
		}
	}
	return truncate(b.String())
}

func renderResults(results []models.QuizResult) string {
	if len(results) == 0 {
		return "Chưa có kết quả nào."
	}
	sorted := append([]models.QuizResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CompletedAt.After(sorted[j].CompletedAt) })
	if len(sorted) > 10 {
		sorted = sorted[:10]
	}

	var b strings.Builder
	b.WriteString("📝 Kết quả gần đây")
	for _, r := range sorted {
		mode := "Học"
		if r.Mode == models.ModePractice {
			mode = "Thi thử"
		}
		t := r.Tally()
		fmt.Fprintf(&b, "\n%s · %s · %s: %d/%d (%d%%), sai %d, bỏ trống %d",
			r.CompletedAt.Local().Format("02/01 15:04"), mode, r.QuizSetID, t.Correct, r.TotalQuestions, percent(r.Score), t.Incorrect, t.Unanswered)
	}
	return truncate(b.String())
}

func renderStats(s client.Stats) string {
	var b strings.Builder
	b.WriteString("📊 Thống kê")
	if s.Source != client.SourceRemote {
		b.WriteString(" (ngoại tuyến)")
	}
	fmt.Fprintf(&b, "\nTổng số câu hỏi: %d\nSố bài thi thử: %d\nĐiểm trung bình: %d%%", s.TotalQuestions, s.TotalResults, s.AveragePercent)
	writeCounts(&b, "Theo chủ đề", s.CategoriesCount)
	writeCounts(&b, "Theo độ khó", s.DifficultyCount)
	return truncate(b.String())
}

func writeCounts(b *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(b, "\n\n%s:", title)
	for _, k := range keys {
		fmt.Fprintf(b, "\n• %s: %d", k, counts[k])
	}
}

func renderImport(r pdfSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📄 %s\nTìm thấy %d câu hỏi, %d câu trùng với ngân hàng.", r.filename, len(r.questions), r.duplicates)
	for _, e := range r.errors {
		fmt.Fprintf(&b, "\n⚠️ %s", e)
	}
	return truncate(b.String())
}

func percent(score float64) int {
	return int(score*100 + 0.5)
}
