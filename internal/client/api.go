package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quizbank/internal/models"
	"quizbank/internal/pdfparser"
)

// APIError is a non-2xx answer from the quizbank API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// API is a typed client for the /api routes.
type API struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewAPI(baseURL, token string, timeout time.Duration) *API {
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.send(req, out)
}

func (a *API) send(req *http.Request, out any) error {
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
	resp, err := a.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var envelope struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
			msg = envelope.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func (a *API) Questions(ctx context.Context, category string) ([]models.Question, error) {
	path := "/questions"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var out []models.Question
	err := a.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (a *API) Question(ctx context.Context, id string) (*models.Question, error) {
	var out models.Question
	if err := a.do(ctx, http.MethodGet, "/questions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) CreateQuestion(ctx context.Context, q models.Question) (*models.Question, error) {
	var out models.Question
	if err := a.do(ctx, http.MethodPost, "/questions", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) BulkCreate(ctx context.Context, qs []models.Question) (*models.BulkInsertResult, error) {
	var out models.BulkInsertResult
	if err := a.do(ctx, http.MethodPost, "/questions/bulk", qs, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) ImportJSON(ctx context.Context, items []models.ImportItem) (*models.ImportReport, error) {
	var out models.ImportReport
	if err := a.do(ctx, http.MethodPost, "/questions/import-json", items, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) UpdateQuestion(ctx context.Context, id string, u models.QuestionUpdate) (*models.Question, error) {
	var out struct {
		Question *models.Question `json:"question"`
	}
	if err := a.do(ctx, http.MethodPut, "/questions/"+url.PathEscape(id), u, &out); err != nil {
		return nil, err
	}
	if out.Question == nil {
		return nil, fmt.Errorf("update response carried no question")
	}
	return out.Question, nil
}

func (a *API) DeleteQuestion(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/questions/"+url.PathEscape(id), nil, nil)
}

func (a *API) CheckDuplicates(ctx context.Context, contents []string) ([]models.Duplicate, error) {
	body := struct {
		Questions []models.DuplicateCandidate `json:"questions"`
	}{}
	for _, c := range contents {
		body.Questions = append(body.Questions, models.DuplicateCandidate{Content: c})
	}
	var out struct {
		Duplicates []models.Duplicate `json:"duplicates"`
	}
	err := a.do(ctx, http.MethodPost, "/questions/check-duplicates", body, &out)
	return out.Duplicates, err
}

// ParsePDF uploads a document to the server-side parser.
func (a *API) ParsePDF(ctx context.Context, filename string, r io.Reader) (*pdfparser.PDFParseResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to buffer %s: %w", filename, err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/questions/parse-pdf", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	var out pdfparser.PDFParseResult
	if err := a.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) PracticeResults(ctx context.Context) ([]models.QuizResult, error) {
	var out []models.QuizResult
	err := a.do(ctx, http.MethodGet, "/practice-results", nil, &out)
	return out, err
}

func (a *API) SavePracticeResult(ctx context.Context, r models.QuizResult) (*models.QuizResult, error) {
	var out models.QuizResult
	if err := a.do(ctx, http.MethodPost, "/practice-results", r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) DeletePracticeResult(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/practice-results/"+url.PathEscape(id), nil, nil)
}

func (a *API) Statistics(ctx context.Context) (*models.Statistics, error) {
	var out models.Statistics
	if err := a.do(ctx, http.MethodGet, "/statistics", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping calls /api/test-connection.
func (a *API) Ping(ctx context.Context) error {
	return a.do(ctx, http.MethodGet, "/test-connection", nil, nil)
}
