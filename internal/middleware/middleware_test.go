package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func guardedRouter(secret string) *gin.Engine {
	r := gin.New()
	r.POST("/admin", AdminAuth(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("subject"))
	})
	return r
}

func TestAdminAuth(t *testing.T) {
	const secret = "test-secret"

	adminToken, err := GenerateAdminToken("admin@example.com", secret, time.Hour)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	userToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Role: "student"}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	foreignToken, _ := GenerateAdminToken("x", "other-secret", time.Hour)
	expiredToken, _ := GenerateAdminToken("x", secret, -time.Minute)

	testCases := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"open without secret", "", "", http.StatusOK},
		{"missing token", secret, "", http.StatusUnauthorized},
		{"wrong signature", secret, "Bearer " + foreignToken, http.StatusUnauthorized},
		{"expired", secret, "Bearer " + expiredToken, http.StatusUnauthorized},
		{"not admin", secret, "Bearer " + userToken, http.StatusForbidden},
		{"admin", secret, "Bearer " + adminToken, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			guardedRouter(tc.secret).ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("Expected status %d, got %d (%s)", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestAdminAuthExposesSubject(t *testing.T) {
	token, _ := GenerateAdminToken("admin@example.com", "s", time.Hour)
	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	guardedRouter("s").ServeHTTP(w, req)
	if w.Body.String() != "admin@example.com" {
		t.Errorf("Expected subject in context, got %q", w.Body.String())
	}
}

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/things/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", MetricsHandler())

	before := testutil.ToFloat64(requestsTotal.WithLabelValues(http.MethodGet, "/api/things/:id", "204"))
	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/things/"+id, nil))
	}
	after := testutil.ToFloat64(requestsTotal.WithLabelValues(http.MethodGet, "/api/things/:id", "204"))
	if after-before != 2 {
		t.Errorf("Expected 2 requests recorded under the route template, got %v", after-before)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "quizbank_http_requests_total") {
		t.Error("Expected exposition to include the request counter")
	}
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:4200"}))
	r.GET("/api/questions", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/questions", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:4200" {
		t.Errorf("Expected allowed origin header, got %q", got)
	}
}
