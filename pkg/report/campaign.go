package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	ErrInputRead       = errors.New("campaign input is unreadable")
	ErrMalformedInput  = errors.New("campaign input is malformed")
	ErrInvalidCampaign = errors.New("campaign record is invalid")
	ErrFontMissing     = errors.New("report font is missing")
	ErrOutputWrite     = errors.New("report output write failed")
)

// Topic is one trending topic backing a campaign strategy.
type Topic struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Relevance   string `json:"relevance,omitempty"`
}

// TopicList wraps topics the way the strategy JSON nests them.
type TopicList struct {
	Topics []Topic `json:"topics"`
}

// Names returns topic names in input order.
func (l TopicList) Names() []string {
	names := make([]string, 0, len(l.Topics))
	for _, t := range l.Topics {
		names = append(names, t.Name)
	}
	return names
}

// Strategy is the scored topic selection a campaign is built on.
type Strategy struct {
	Score  Score     `json:"score"`
	Topics TopicList `json:"topics"`
}

// Campaign is one campaign record. Only CampaignDetails may be empty.
type Campaign struct {
	Name            string   `json:"name"`
	Objective       string   `json:"objective"`
	TargetAudience  string   `json:"target_audience"`
	CampaignDetails string   `json:"campaign_details,omitempty"`
	Strategy        Strategy `json:"strategy"`
}

// CampaignReport is the document consumed by the renderer.
type CampaignReport struct {
	Campaigns []Campaign `json:"campaigns"`
}

// Score accepts both JSON strings and numbers; models emit either.
type Score string

// UnmarshalJSON keeps numbers in their JSON text form, so 8.50 stays "8.50".
func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = Score(text)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("score must be a string or number: %w", err)
	}
	*s = Score(num.String())
	return nil
}

func (s Score) String() string {
	return string(s)
}

// Float parses the score as a number when possible.
func (s Score) Float() (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LoadCampaignReport reads and validates a campaign report from disk.
func LoadCampaignReport(path string) (*CampaignReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputRead, err)
	}
	return ParseCampaignReport(data)
}

// ParseCampaignReport decodes data and validates every campaign. The
// top-level campaigns key must be present.
func ParseCampaignReport(data []byte) (*CampaignReport, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if _, ok := top["campaigns"]; !ok {
		return nil, fmt.Errorf("%w: top-level key %q is missing", ErrMalformedInput, "campaigns")
	}

	var doc CampaignReport
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks required fields. campaign_details is the only optional one.
func (r *CampaignReport) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: report is nil", ErrInvalidCampaign)
	}
	for i := range r.Campaigns {
		if err := r.Campaigns[i].validate(fmt.Sprintf("campaigns[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Campaign) validate(path string) error {
	required := []struct {
		field string
		value string
	}{
		{"name", c.Name},
		{"objective", c.Objective},
		{"target_audience", c.TargetAudience},
		{"strategy.score", c.Strategy.Score.String()},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s.%s is required", ErrInvalidCampaign, path, r.field)
		}
	}
	for i, t := range c.Strategy.Topics.Topics {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: %s.strategy.topics.topics[%d].name is required", ErrInvalidCampaign, path, i)
		}
	}
	return nil
}
