package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
)

// upstashServer replies with reply and records the last command it received.
func upstashServer(t *testing.T, status int, reply string) (*httptest.Server, *[]any) {
	t.Helper()

	var got []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode command: %v", err)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, reply)
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func newTestUpstashStore(t *testing.T, url string, ttl time.Duration) *UpstashRedisStore {
	t.Helper()
	store, err := NewUpstashRedisStore(UpstashRedisConfig{URL: url, Token: "token"}, ttl)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}
	return store
}

func TestNewUpstashRedisStoreValidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  UpstashRedisConfig
		ttl  time.Duration
	}{
		{name: "missing url", cfg: UpstashRedisConfig{Token: "token"}},
		{name: "missing token", cfg: UpstashRedisConfig{URL: "https://redis.example"}},
		{name: "negative ttl", cfg: UpstashRedisConfig{URL: "https://redis.example", Token: "token"}, ttl: -time.Second},
	}
	for _, tc := range tests {
		if _, err := NewUpstashRedisStore(tc.cfg, tc.ttl); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestUpstashRedisStoreRunKey(t *testing.T) {
	t.Parallel()

	store := newTestUpstashStore(t, "https://redis.example", 0)
	got, err := store.runKey(" abc ")
	if err != nil {
		t.Fatalf("runKey() error = %v", err)
	}
	if got != "crew:run:abc" {
		t.Fatalf("runKey() = %q, want %q", got, "crew:run:abc")
	}
	if _, err := store.runKey("   "); !errors.Is(err, ErrInvalidRun) {
		t.Fatalf("runKey() error = %v, want ErrInvalidRun", err)
	}
}

func TestUpstashRedisStoreSaveSetsExpiry(t *testing.T) {
	t.Parallel()

	server, got := upstashServer(t, http.StatusOK, `{"result":"OK"}`)
	store := newTestUpstashStore(t, server.URL, 90*time.Minute)

	st := NewRunState("run-1", contractx.Inputs{Topic: "AI LLMs", CurrentYear: "2025"}, time.Now())
	if err := store.Save(context.Background(), st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	cmd := *got
	if len(cmd) != 5 || cmd[0] != "SET" || cmd[1] != "crew:run:run-1" {
		t.Fatalf("unexpected command: %#v", cmd)
	}
	if cmd[3] != "EX" || cmd[4] != float64(5400) {
		t.Fatalf("unexpected expiry: %#v", cmd[3:])
	}
}

func TestUpstashRedisStoreSaveWithoutExpiry(t *testing.T) {
	t.Parallel()

	server, got := upstashServer(t, http.StatusOK, `{"result":"OK"}`)
	store := newTestUpstashStore(t, server.URL, 0)

	st := NewRunState("run-1", contractx.Inputs{Topic: "AI LLMs", CurrentYear: "2025"}, time.Now())
	if err := store.Save(context.Background(), st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(*got) != 3 {
		t.Fatalf("unexpected command: %#v", *got)
	}
}

func TestUpstashRedisStoreLoad(t *testing.T) {
	t.Parallel()

	seed := NewRunState("run-2", contractx.Inputs{Topic: "coffee", CurrentYear: "2025"}, time.Now())
	if err := seed.CompleteTask(contractx.TaskTrend, json.RawMessage(`{"topics":[{"name":"cold brew"}]}`), time.Now()); err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	payload, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	encoded, err := json.Marshal(string(payload))
	if err != nil {
		t.Fatalf("marshal encoded seed: %v", err)
	}

	server, got := upstashServer(t, http.StatusOK, fmt.Sprintf(`{"result":%s}`, encoded))
	store := newTestUpstashStore(t, server.URL, 0)

	st, err := store.Load(context.Background(), "run-2")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st.RunID != "run-2" || st.Inputs.Topic != "coffee" {
		t.Fatalf("unexpected state: %#v", st)
	}
	if !st.IsTaskDone(contractx.TaskTrend) {
		t.Fatal("trend task should be completed")
	}
	if cmd := *got; cmd[0] != "GET" || cmd[1] != "crew:run:run-2" {
		t.Fatalf("unexpected command: %#v", cmd)
	}
}

func TestUpstashRedisStoreLoadMissing(t *testing.T) {
	t.Parallel()

	server, _ := upstashServer(t, http.StatusOK, `{"result":null}`)
	store := newTestUpstashStore(t, server.URL, 0)

	if _, err := store.Load(context.Background(), "missing"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Load() error = %v, want ErrStateNotFound", err)
	}
}

func TestUpstashRedisStoreDelete(t *testing.T) {
	t.Parallel()

	server, got := upstashServer(t, http.StatusOK, `{"result":1}`)
	store := newTestUpstashStore(t, server.URL, 0)

	if err := store.Delete(context.Background(), "run-3"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if cmd := *got; cmd[0] != "DEL" || cmd[1] != "crew:run:run-3" {
		t.Fatalf("unexpected command: %#v", cmd)
	}
}

func TestUpstashRedisStoreBackendErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		reply  string
	}{
		{name: "error reply", status: http.StatusUnauthorized, reply: `{"error":"WRONGPASS invalid password"}`},
		{name: "non json reply", status: http.StatusBadGateway, reply: `bad gateway`},
		{name: "status without error", status: http.StatusInternalServerError, reply: `{"result":null}`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server, _ := upstashServer(t, tc.status, tc.reply)
			store := newTestUpstashStore(t, server.URL, 0)

			if _, err := store.Load(context.Background(), "run-4"); !errors.Is(err, ErrStoreBackend) {
				t.Fatalf("Load() error = %v, want ErrStoreBackend", err)
			}
		})
	}
}
