package pdfparser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"quizbank/internal/models"
)

// FallbackCategory is assigned when no keyword of the taxonomy matches.
const FallbackCategory = "Tổng hợp"

type categoryRule struct {
	name     string
	keywords []string
}

// Checked in order; the first category with a matching keyword wins.
var categoryRules = []categoryRule{
	{"Địa lý", []string{
		"địa lý", "thủ đô", "tỉnh", "thành phố", "sông", "núi", "biển", "đại dương",
		"châu lục", "quốc gia", "vùng", "miền", "geography", "capital", "mountain",
		"river", "ocean", "continent", "climate", "khí hậu", "địa hình",
	}},
	{"Lịch sử", []string{
		"lịch sử", "năm", "thế kỷ", "chiến tranh", "cách mạng", "vua", "chúa",
		"triều đại", "history", "war", "revolution", "dynasty", "emperor",
		"independence", "độc lập", "giải phóng", "kháng chiến",
	}},
	{"Văn học", []string{
		"văn học", "tác giả", "tác phẩm", "thơ", "truyện", "tiểu thuyết",
		"literature", "author", "poem", "novel", "story", "nhà văn",
		"nhà thơ", "sách", "chương", "đoạn văn",
	}},
	{"Khoa học", []string{
		"khoa học", "vật lý", "hóa học", "sinh học", "toán học", "physics",
		"chemistry", "biology", "mathematics", "science", "công thức",
		"định luật", "thí nghiệm", "phản ứng", "nguyên tố",
	}},
	{"Kinh tế", []string{
		"kinh tế", "tiền tệ", "thương mại", "economics", "business", "trade",
		"market", "thị trường", "đầu tư", "investment", "gdp", "lạm phát",
		"xuất khẩu", "nhập khẩu",
	}},
	{"Văn hóa", []string{
		"văn hóa", "lễ hội", "truyền thống", "culture", "tradition", "festival",
		"tôn giáo", "religion", "phong tục", "tập quán", "nghệ thuật", "art",
	}},
	{"Công nghệ", []string{
		"công nghệ", "máy tính", "internet", "technology", "computer", "software",
		"phần mềm", "ứng dụng", "website", "mạng", "network", "ai", "robot",
	}},
	{"Y học", []string{
		"y học", "bệnh", "thuốc", "bác sĩ", "bệnh viện", "medicine", "doctor",
		"hospital", "disease", "treatment", "điều trị", "chẩn đoán", "virus",
	}},
	{"Thể thao", []string{
		"thể thao", "bóng đá", "bóng rổ", "tennis", "sport", "football",
		"basketball", "olympic", "vận động viên", "athlete", "thi đấu",
	}},
}

// DetectCategory matches the question text against the keyword taxonomy.
func DetectCategory(content string) string {
	lower := strings.ToLower(content)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.name
			}
		}
	}
	return FallbackCategory
}

var technicalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}`),
	regexp.MustCompile(`\d+%`),
	regexp.MustCompile(`[A-Z]{2,}`),
	regexp.MustCompile(`[α-ωΑ-Ω]`),
	regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:theo|according|based on|phụ thuộc)(?:[^\p{L}]|$)`),
	regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:ngoại trừ|except|excluding|trừ)(?:[^\p{L}]|$)`),
}

// DetectDifficulty scores length and technical markers: 4 or more is hard,
// 2 or more medium, anything else easy.
func DetectDifficulty(content string, options []string) string {
	score := 0

	switch n := utf8.RuneCountInString(content); {
	case n > 200:
		score += 2
	case n > 100:
		score++
	}

	if len(options) > 0 {
		total := 0
		for _, opt := range options {
			total += utf8.RuneCountInString(opt)
		}
		switch avg := float64(total) / float64(len(options)); {
		case avg > 50:
			score += 2
		case avg > 25:
			score++
		}
	}

	for _, re := range technicalPatterns {
		if re.MatchString(content) {
			score++
		}
	}

	substantial := 0
	for _, opt := range options {
		if utf8.RuneCountInString(opt) > 15 {
			substantial++
		}
	}
	if substantial >= 3 {
		score++
	}

	switch {
	case score >= 4:
		return models.DifficultyHard
	case score >= 2:
		return models.DifficultyMedium
	default:
		return models.DifficultyEasy
	}
}
