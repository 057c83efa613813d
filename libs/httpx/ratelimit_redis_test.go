package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// scriptCounter answers the window script from an in-memory counter.
type scriptCounter struct {
	counts map[string]int64
	keys   []string
	err    error
}

func (s *scriptCounter) run(keys []string) *redis.Cmd {
	if s.err != nil {
		return redis.NewCmdResult(nil, s.err)
	}
	s.counts[keys[0]]++
	s.keys = append(s.keys, keys[0])
	return redis.NewCmdResult([]interface{}{s.counts[keys[0]], int64(1500)}, nil)
}

func (s *scriptCounter) Eval(_ context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return s.run(keys)
}

func (s *scriptCounter) EvalSha(_ context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return s.run(keys)
}

func (s *scriptCounter) EvalRO(_ context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return s.run(keys)
}

func (s *scriptCounter) EvalShaRO(_ context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return s.run(keys)
}

func (s *scriptCounter) ScriptExists(context.Context, ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult([]bool{true}, nil)
}

func (s *scriptCounter) ScriptLoad(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("sha", nil)
}

func TestRedisRateLimiter(t *testing.T) {
	counter := &scriptCounter{counts: map[string]int64{}}
	rl := NewRedisRateLimiter(counter, 2, time.Minute, "")
	now := time.Date(2026, 10, 15, 9, 0, 10, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware(nil, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/availability/times", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if i == 2 && rec.Header().Get("Retry-After") != "2" {
			t.Fatalf("expected Retry-After 2, got %q", rec.Header().Get("Retry-After"))
		}
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
	if counter.keys[0] != "babs:rl:10.0.0.1:29867580" {
		t.Fatalf("unexpected window key %q", counter.keys[0])
	}

	now = now.Add(time.Minute)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected new window to admit, got %d", rec.Code)
	}
}

func TestRedisRateLimiterFailOpen(t *testing.T) {
	counter := &scriptCounter{counts: map[string]int64{}, err: errors.New("connection refused")}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	NewRedisRateLimiter(counter, 1, time.Minute, "").Middleware(nil, true)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected fail-open pass through, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	NewRedisRateLimiter(counter, 1, time.Minute, "").Middleware(nil, false)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when closed, got %d", rec.Code)
	}
}
