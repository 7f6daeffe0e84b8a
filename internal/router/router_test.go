package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dailykpi/internal/db"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouterTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	previous := db.DB
	db.DB = gdb
	t.Cleanup(func() {
		db.DB = previous
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
}

func TestPingAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupRouterTestDB(t)

	r := SetupRouter("test-secret", 30)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if got := rr.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestAPIRequiresLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupRouterTestDB(t)

	r := SetupRouter("test-secret", 30)

	for _, path := range []string{"/api/habits", "/api/analytics/summary", "/api/days/2024-01-01"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusUnauthorized, rr.Code)
		}
	}
}

func TestLoginSaveDayAndSummarize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupRouterTestDB(t)

	if _, err := db.EnsureUser(db.DB, "admin", "s3cret"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	r := SetupRouter("test-secret", 30)

	do := func(method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
		var reader *bytes.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("failed to encode body: %v", err)
			}
			reader = bytes.NewReader(raw)
		} else {
			reader = bytes.NewReader(nil)
		}
		req := httptest.NewRequest(method, path, reader)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for _, cookie := range cookies {
			req.AddCookie(cookie)
		}
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	if rr := do(http.MethodPost, "/api/login", map[string]string{"username": "admin", "password": "wrong"}, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected wrong password to be rejected, got %d", rr.Code)
	}

	login := do(http.MethodPost, "/api/login", map[string]string{"username": "admin", "password": "s3cret"}, nil)
	if login.Code != http.StatusOK {
		t.Fatalf("expected login to succeed, got %d: %s", login.Code, login.Body.String())
	}
	cookies := login.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}

	created := do(http.MethodPost, "/api/habits", map[string]any{"name": "Reading", "target_minutes": 30, "quadrant": "Q2"}, cookies)
	if created.Code != http.StatusCreated {
		t.Fatalf("expected habit to be created, got %d: %s", created.Code, created.Body.String())
	}
	var habitResp struct {
		Habit struct {
			ID uint `json:"id"`
		} `json:"habit"`
	}
	if err := json.Unmarshal(created.Body.Bytes(), &habitResp); err != nil {
		t.Fatalf("failed to decode habit: %v", err)
	}

	day := map[string]any{
		"habit_records": []map[string]any{{"habit_id": habitResp.Habit.ID, "minutes": 30, "quality": 5}},
		"tasks":         []map[string]any{{"title": "Ship release", "priority": "high", "completed": true, "estimated_minutes": 60}},
		"pillars":       map[string]float64{"deliverables": 80, "skills": 60, "culture": 70},
	}
	saved := do(http.MethodPut, "/api/days/2024-03-05", day, cookies)
	if saved.Code != http.StatusOK {
		t.Fatalf("expected day to be saved, got %d: %s", saved.Code, saved.Body.String())
	}

	invalid := do(http.MethodPut, "/api/days/2024-03-06", map[string]any{"pillars": map[string]float64{"skills": 101}}, cookies)
	if invalid.Code != http.StatusBadRequest || !strings.Contains(invalid.Body.String(), "pillars.skills") {
		t.Fatalf("expected field error for pillars.skills, got %d: %s", invalid.Code, invalid.Body.String())
	}

	summary := do(http.MethodGet, "/api/analytics/summary?start=2024-03-01&end=2024-03-07", nil, cookies)
	if summary.Code != http.StatusOK {
		t.Fatalf("expected summary, got %d: %s", summary.Code, summary.Body.String())
	}
	var summaryResp struct {
		Stats struct {
			CompletedDays int `json:"completed_days"`
			TotalDays     int `json:"total_days"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(summary.Body.Bytes(), &summaryResp); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if summaryResp.Stats.CompletedDays != 1 || summaryResp.Stats.TotalDays != 7 {
		t.Fatalf("unexpected summary: %+v", summaryResp.Stats)
	}

	report := do(http.MethodGet, "/api/analytics/report?start=2024-03-01&end=2024-03-07&format=html", nil, cookies)
	if report.Code != http.StatusOK || !strings.Contains(report.Body.String(), "<h1") {
		t.Fatalf("expected rendered html report, got %d: %s", report.Code, report.Body.String())
	}
}
