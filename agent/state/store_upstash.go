package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultRunKeyPrefix = "crew:run:"
	maxUpstashReplySize = 4 << 20
)

type UpstashRedisConfig struct {
	URL       string        `envconfig:"URL" split_words:"true" required:"true"`
	Token     string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout   time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
	KeyPrefix string        `envconfig:"KEY_PREFIX" split_words:"true" default:"crew:run:"`
}

// UpstashRedisStore keeps one JSON checkpoint per run under <prefix><run id>.
// Checkpoints expire ttl after their last save; a zero ttl keeps them forever.
type UpstashRedisStore struct {
	endpoint string
	token    string
	prefix   string
	ttl      time.Duration
	client   *http.Client
}

func NewUpstashRedisStore(cfg UpstashRedisConfig, ttl time.Duration) (*UpstashRedisStore, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("upstash redis url %q: %w", cfg.URL, err)
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, fmt.Errorf("upstash redis token is required")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("run ttl must be >= 0, got %s", ttl)
	}

	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = defaultRunKeyPrefix
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &UpstashRedisStore{
		endpoint: endpoint,
		token:    token,
		prefix:   prefix,
		ttl:      ttl,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (s *UpstashRedisStore) Load(ctx context.Context, runID string) (*RunState, error) {
	key, err := s.runKey(runID)
	if err != nil {
		return nil, err
	}
	reply, err := s.command(ctx, "GET", key)
	if err != nil {
		return nil, err
	}

	// GET replies with the stored checkpoint as a JSON string, or null.
	var payload *string
	if err := json.Unmarshal(reply, &payload); err != nil {
		return nil, fmt.Errorf("%w: GET %s reply: %v", ErrStoreBackend, key, err)
	}
	if payload == nil {
		return nil, ErrStateNotFound
	}
	return decodeRunState([]byte(*payload))
}

func (s *UpstashRedisStore) Save(ctx context.Context, st *RunState) error {
	payload, err := encodeRunState(st)
	if err != nil {
		return err
	}
	key, err := s.runKey(st.RunID)
	if err != nil {
		return err
	}

	args := []any{"SET", key, string(payload)}
	if s.ttl > 0 {
		args = append(args, "EX", int64(math.Ceil(s.ttl.Seconds())))
	}
	_, err = s.command(ctx, args...)
	return err
}

func (s *UpstashRedisStore) Delete(ctx context.Context, runID string) error {
	key, err := s.runKey(runID)
	if err != nil {
		return err
	}
	_, err = s.command(ctx, "DEL", key)
	return err
}

func (s *UpstashRedisStore) runKey(runID string) (string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return "", ErrInvalidRun
	}
	prefix := s.prefix
	if prefix == "" {
		prefix = defaultRunKeyPrefix
	}
	return prefix + runID, nil
}

// command sends one Redis command to the Upstash REST endpoint and returns
// the raw "result" of the reply.
func (s *UpstashRedisStore) command(ctx context.Context, args ...any) (json.RawMessage, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal %v command: %w", args[0], err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %v request: %w", args[0], err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrStoreBackend, args[0], err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstashReplySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %v reply: %v", ErrStoreBackend, args[0], err)
	}

	var reply struct {
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("%w: %v status=%d body=%s", ErrStoreBackend, args[0], resp.StatusCode, raw)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%w: %v: %s", ErrStoreBackend, args[0], reply.Error)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %v status=%d", ErrStoreBackend, args[0], resp.StatusCode)
	}
	if len(reply.Result) == 0 {
		reply.Result = json.RawMessage("null")
	}
	return reply.Result, nil
}
