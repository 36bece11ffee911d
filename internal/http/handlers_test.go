package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/credentials"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/dashboard"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/database"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/threshold"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type stubFeed struct {
	mu       sync.Mutex
	readings []domain.TimedReading
	err      error
	calls    int
}

func (s *stubFeed) Fetch(context.Context, domain.Phase, domain.HistoricalQuery) ([]domain.TimedReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.readings, s.err
}

type stubUploader struct{ key string }

func (u *stubUploader) UploadReport(_ context.Context, key string, data []byte, _ string) (string, error) {
	u.key = key
	return "https://signed.example/" + key, nil
}

func reading(offset time.Duration, energy float64) domain.TimedReading {
	r := domain.TimedReading{At: now.Add(offset)}
	for _, f := range domain.Fields() {
		r.Values[f] = domain.NumberValue(230)
	}
	r.Values[domain.FieldEnergy] = domain.NumberValue(energy)
	return r
}

type testServer struct {
	app      *fiber.App
	feed     *stubFeed
	uploader *stubUploader
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	users, err := credentials.NewStore(ctx, db, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	feed := &stubFeed{readings: []domain.TimedReading{reading(time.Minute, 12), reading(0, 10)}}
	uploader := &stubUploader{}
	app := NewServer()
	Register(app, Deps{
		App:      dashboard.New(feed, threshold.New(), dashboard.Options{Now: func() time.Time { return now }}),
		Users:    users,
		Sessions: credentials.NewSessions(time.Hour),
		Uploader: uploader,
	})
	s := &testServer{app: app, feed: feed, uploader: uploader}

	if code, _ := s.do(t, "POST", "/auth/signup", `{"username":"op","password":"pw"}`); code != fiber.StatusCreated {
		t.Fatalf("signup: %d", code)
	}
	code, body := s.do(t, "POST", "/auth/login", `{"username":"op","password":"pw"}`)
	if code != fiber.StatusOK {
		t.Fatalf("login: %d %s", code, body)
	}
	var out struct{ Token string }
	_ = json.Unmarshal(body, &out)
	s.token = out.Token
	return s
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	if code, _ := s.do(t, "POST", "/auth/signup", `{"username":"op","password":"x"}`); code != fiber.StatusConflict {
		t.Fatalf("duplicate signup: %d", code)
	}

	token := s.token
	s.token = ""
	if code, _ := s.do(t, "GET", "/phase", ""); code != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", code)
	}
	if code, _ := s.do(t, "POST", "/auth/login", `{"username":"op","password":"nope"}`); code != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", code)
	}
	s.token = token

	if code, _ := s.do(t, "POST", "/auth/password", `{"old_password":"pw","new_password":"a","confirm_password":"b"}`); code != fiber.StatusBadRequest {
		t.Fatalf("mismatched confirmation: %d", code)
	}
	if code, _ := s.do(t, "POST", "/auth/password", `{"old_password":"pw","new_password":" ","confirm_password":" "}`); code != fiber.StatusBadRequest {
		t.Fatalf("empty new password: %d", code)
	}
	if code, _ := s.do(t, "POST", "/auth/password", `{"old_password":"pw","new_password":"pw2","confirm_password":"pw2"}`); code != fiber.StatusOK {
		t.Fatalf("change password: %d", code)
	}
	if code, _ := s.do(t, "POST", "/auth/logout", ""); code != fiber.StatusNoContent {
		t.Fatalf("logout: %d", code)
	}
	if code, _ := s.do(t, "GET", "/phase", ""); code != fiber.StatusUnauthorized {
		t.Fatalf("token should be revoked, got %d", code)
	}
}

func TestPhaseAndSnapshot(t *testing.T) {
	s := newTestServer(t)
	if code, _ := s.do(t, "PUT", "/phase", `{"phase":"phase7"}`); code != fiber.StatusBadRequest {
		t.Fatalf("unknown phase: %d", code)
	}
	code, body := s.do(t, "PUT", "/phase", `{"phase":"PHASE2"}`)
	if code != fiber.StatusOK || !bytes.Contains(body, []byte(`"Phase 2"`)) {
		t.Fatalf("set phase: %d %s", code, body)
	}

	code, body = s.do(t, "GET", "/snapshot", "")
	if code != fiber.StatusOK || !bytes.Contains(body, []byte(`"phase":"phase2"`)) {
		t.Fatalf("snapshot: %d %s", code, body)
	}

	s.feed.err = fmt.Errorf("%w: down", domain.ErrFeedUnavailable)
	code, body = s.do(t, "GET", "/snapshot", "")
	if code != fiber.StatusOK || !bytes.Contains(body, []byte(`"stale":true`)) {
		t.Fatalf("expected last good snapshot on failure: %d %s", code, body)
	}
	s.do(t, "PUT", "/phase", `{"phase":"phase3"}`)
	if code, _ := s.do(t, "GET", "/snapshot", ""); code != fiber.StatusBadGateway {
		t.Fatalf("expected 502 with nothing held, got %d", code)
	}
}

func TestThresholdsReclassify(t *testing.T) {
	s := newTestServer(t)
	s.do(t, "GET", "/snapshot", "")
	code, body := s.do(t, "PUT", "/thresholds/voltage", `{"min":"200","max":220}`)
	if code != fiber.StatusOK {
		t.Fatalf("save band: %d %s", code, body)
	}
	if code, _ := s.do(t, "PUT", "/thresholds/bogus", `{"min":1}`); code != fiber.StatusBadRequest {
		t.Fatalf("unknown parameter: %d", code)
	}
	_, body = s.do(t, "GET", "/thresholds", "")
	var bands map[string]threshold.Band
	if err := json.Unmarshal(body, &bands); err != nil || bands["voltage"].Max == nil || *bands["voltage"].Max != 220 {
		t.Fatalf("unexpected bands %s", body)
	}
}

func TestThresholdSurvivesLaterRequests(t *testing.T) {
	s := newTestServer(t)
	if code, body := s.do(t, "PUT", "/thresholds/voltage", `{"min":200,"max":220}`); code != fiber.StatusOK {
		t.Fatalf("save band: %d %s", code, body)
	}
	for i := 0; i < 20; i++ {
		s.do(t, "GET", "/history/frequency", "")
		s.do(t, "PUT", "/history/frequency/limit", fmt.Sprintf(`{"limit":%d}`, i+1))
		s.do(t, "GET", "/setpoint/frequency", "")
	}

	_, body := s.do(t, "GET", "/thresholds", "")
	var bands map[string]threshold.Band
	if err := json.Unmarshal(body, &bands); err != nil {
		t.Fatalf("decode: %v", err)
	}
	v := bands["voltage"]
	if v.Min == nil || v.Max == nil || *v.Min != 200 || *v.Max != 220 {
		t.Fatalf("voltage band lost: %s", body)
	}
	if len(bands) != domain.FieldCount {
		t.Fatalf("expected %d bands, got %s", domain.FieldCount, body)
	}
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	s := newTestServer(t)
	if code, _ := s.do(t, "GET", "/nope", ""); code != fiber.StatusNotFound {
		t.Fatalf("expected 404 with a session, got %d", code)
	}
	s.token = ""
	if code, _ := s.do(t, "GET", "/nope", ""); code != fiber.StatusNotFound {
		t.Fatalf("expected 404 without a session, got %d", code)
	}
	if code, _ := s.do(t, "GET", "/snapshot", ""); code != fiber.StatusUnauthorized {
		t.Fatalf("known routes stay gated, got %d", code)
	}
}

func TestHistoryAndLimits(t *testing.T) {
	s := newTestServer(t)
	if code, _ := s.do(t, "PUT", "/history/field2/limit", `{"limit":0}`); code != fiber.StatusBadRequest {
		t.Fatalf("zero limit: %d", code)
	}
	if code, _ := s.do(t, "PUT", "/history/current/limit", `{"limit":30}`); code != fiber.StatusOK {
		t.Fatalf("set limit: %d", code)
	}
	code, body := s.do(t, "GET", "/history/field2", "")
	if code != fiber.StatusOK || !bytes.Contains(body, []byte(`"limit":30`)) {
		t.Fatalf("history: %d %s", code, body)
	}
	if code, _ := s.do(t, "GET", "/history/field9", ""); code != fiber.StatusBadRequest {
		t.Fatalf("unknown field: %d", code)
	}
	if code, _ := s.do(t, "GET", "/setpoint/voltage", ""); code != fiber.StatusOK {
		t.Fatalf("setpoint: %d", code)
	}
}

func TestReportEndpoint(t *testing.T) {
	s := newTestServer(t)
	if code, _ := s.do(t, "GET", "/report?range=custom&start=2025-01-01", ""); code != fiber.StatusBadRequest {
		t.Fatalf("missing bound: %d", code)
	}
	if s.feed.calls != 0 {
		t.Fatalf("no fetch may happen before the range is valid")
	}

	code, body := s.do(t, "GET", "/report?range=daily", "")
	if code != fiber.StatusOK || !bytes.Contains(body, []byte(`"total_consumption":2`)) {
		t.Fatalf("json report: %d %s", code, body)
	}

	req := httptest.NewRequest("GET", "/report?range=last&n=2&format=pdf", nil)
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if resp.StatusCode != nethttp.StatusOK || resp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf report: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	resp.Body.Close()

	code, body = s.do(t, "GET", "/report?format=xlsx&upload=true", "")
	if code != fiber.StatusOK || !bytes.Contains(body, []byte("https://signed.example/reports/phase1/")) {
		t.Fatalf("upload: %d %s", code, body)
	}

	s.feed.readings = []domain.TimedReading{{At: now}}
	if code, _ := s.do(t, "GET", "/report", ""); code != fiber.StatusNotFound {
		t.Fatalf("expected 404 for an all-invalid window, got %d", code)
	}
	if code, _ := s.do(t, "GET", "/report?format=docx", ""); code != fiber.StatusBadRequest {
		t.Fatalf("unsupported format: %d", code)
	}
}
