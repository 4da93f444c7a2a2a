package qstash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "https://qstash.upstash.io", Destination: "https://hook"}); err == nil {
		t.Fatal("expected error for missing token")
	}
	if _, err := NewClient(Config{URL: "https://qstash.upstash.io", Token: "t"}); err == nil {
		t.Fatal("expected error for missing destination")
	}
	if _, err := NewClient(Config{URL: "::bad", Token: "t", Destination: "d"}); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestPublish(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotAuth string
		gotBody map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"messageId":"msg_123"}`)
	}))
	t.Cleanup(server.Close)

	client := MustNew(Config{
		URL:         server.URL,
		Token:       "token",
		Destination: "https://hooks.example.com/reports",
	})

	resp, err := client.Publish(context.Background(), map[string]any{"run_id": "r1"})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if resp.MessageID != "msg_123" {
		t.Fatalf("MessageID = %q, want msg_123", resp.MessageID)
	}
	if !strings.HasPrefix(gotPath, "/v2/publish/https:") {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer token" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody["run_id"] != "r1" {
		t.Fatalf("body = %#v", gotBody)
	}
}

func TestPublishHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := MustNew(Config{URL: server.URL, Token: "bad", Destination: "https://hook"})
	if _, err := client.Publish(context.Background(), map[string]string{}); err == nil {
		t.Fatal("expected error but got nil")
	}
}
