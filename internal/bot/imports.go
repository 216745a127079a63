package bot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"quizbank/internal/models"
	"quizbank/internal/pdfparser"

	tele "gopkg.in/telebot.v4"
)

const maxDocumentBytes = 50 << 20

// pdfSummary is a parsed document waiting for the admin to confirm the import.
type pdfSummary struct {
	filename   string
	questions  []models.Question
	duplicates int
	errors     []string
}

// receiveDocument lets admins add questions by sending a PDF exam or a JSON export.
func (b *Bot) receiveDocument(chat *tele.Chat, doc *tele.Document) error {
	if doc == nil {
		return nil
	}
	if !b.isAdmin(chat) {
		b.send(chat, "Chỉ quản trị viên mới được nhập câu hỏi.")
		return nil
	}

	data, err := b.download(doc)
	if err != nil {
		b.send(chat, "⚠️ Không tải được tệp: "+err.Error())
		return nil
	}

	switch strings.ToLower(filepath.Ext(doc.FileName)) {
	case ".json":
		return b.importJSON(chat, data)
	case ".pdf":
		return b.previewPDF(chat, doc.FileName, data)
	default:
		b.send(chat, "Chỉ hỗ trợ tệp .pdf hoặc .json.")
		return nil
	}
}

func (b *Bot) download(doc *tele.Document) ([]byte, error) {
	if doc.FileSize > maxDocumentBytes {
		return nil, fmt.Errorf("tệp lớn hơn %d MB", maxDocumentBytes>>20)
	}
	rc, err := b.out.File(&doc.File)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxDocumentBytes))
}

func (b *Bot) importJSON(chat *tele.Chat, data []byte) error {
	var items []models.ImportItem
	if err := json.Unmarshal(data, &items); err != nil {
		b.send(chat, "⚠️ JSON không hợp lệ. Cần một mảng câu hỏi.")
		return nil
	}
	ctx, cancel := b.ctx()
	defer cancel()
	report, err := b.store.ImportQuestions(ctx, items)
	if err != nil {
		b.send(chat, "⚠️ Nhập thất bại: "+err.Error())
		return nil
	}
	if b.store.Stale() {
		// the API has the rows but could not list them back
		b.store.Load(ctx)
	}
	text := fmt.Sprintf("Đã thêm %d câu hỏi.", report.AddedCount)
	for _, e := range report.Errors {
		text += "\n⚠️ " + e
	}
	b.send(chat, truncate(text))
	return nil
}

func (b *Bot) previewPDF(chat *tele.Chat, filename string, data []byte) error {
	summary := b.parsePDF(filename, data)
	valid, invalid := pdfparser.ValidateQuestions(summary.questions)
	summary.questions = valid
	for _, iq := range invalid {
		summary.errors = append(summary.errors, fmt.Sprintf("%q: %s", truncateRunes(iq.Question.Content, 40), strings.Join(iq.Errors, "; ")))
	}
	summary.duplicates = len(b.duplicatesOf(summary.questions))
	if len(summary.questions) == 0 {
		b.send(chat, renderImport(summary))
		return nil
	}

	b.mu.Lock()
	b.imports[chat.ID] = &summary
	b.mu.Unlock()

	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(
		m.Data(fmt.Sprintf("✅ Lưu %d câu", len(summary.questions)-summary.duplicates), uniqueImport),
		m.Data("❌ Hủy", uniqueImportNot),
	))
	b.send(chat, renderImport(summary), m)
	return nil
}

// parsePDF asks the API first and parses in process when it cannot.
func (b *Bot) parsePDF(filename string, data []byte) pdfSummary {
	if b.parser != nil {
		ctx, cancel := b.ctx()
		defer cancel()
		res, err := b.parser.ParsePDF(ctx, filename, bytes.NewReader(data))
		if err == nil {
			return pdfSummary{filename: filename, questions: res.Questions, errors: res.Errors}
		}
		log.Printf("API parse of %s failed, parsing locally: %v", filename, err)
	}

	res := pdfparser.ParseBytes(data)
	return pdfSummary{filename: filename, questions: res.Questions, errors: res.Errors}
}

// duplicatesOf returns the contents already present in the bank.
func (b *Bot) duplicatesOf(qs []models.Question) map[string]bool {
	existing := make(map[string]bool)
	for _, q := range b.store.Questions() {
		existing[q.Content] = true
	}
	dups := make(map[string]bool)
	for _, q := range qs {
		if existing[q.Content] {
			dups[q.Content] = true
		}
	}
	return dups
}

func (b *Bot) takeImport(chatID int64) *pdfSummary {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.imports[chatID]
	delete(b.imports, chatID)
	return s
}

func (b *Bot) confirmImport(chat *tele.Chat) error {
	summary := b.takeImport(chat.ID)
	if summary == nil {
		b.send(chat, "Không có tệp nào đang chờ nhập.")
		return nil
	}

	ctx, cancel := b.ctx()
	defer cancel()
	dups := b.duplicatesOf(summary.questions)
	added, failed := 0, 0
	for _, q := range summary.questions {
		if dups[q.Content] {
			continue
		}
		if _, err := b.store.AddQuestion(ctx, q); err != nil {
			log.Printf("Failed to add parsed question: %v", err)
			failed++
			continue
		}
		added++
	}

	text := fmt.Sprintf("Đã thêm %d câu hỏi từ %s.", added, summary.filename)
	if failed > 0 {
		text += fmt.Sprintf(" %d câu lỗi.", failed)
	}
	b.send(chat, text)
	return nil
}

func (b *Bot) cancelImport(chat *tele.Chat) error {
	if b.takeImport(chat.ID) != nil {
		b.send(chat, "Đã hủy nhập.")
	}
	return nil
}
