package crewnode

import (
	"errors"
	"strconv"
	"strings"
	"time"

	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	statex "github.com/tanpawarit/marketing-ai/agent/state"
)

var (
	ErrInvalidTopic = errors.New("topic is empty")
	ErrInvalidRunID = errors.New("run id is empty")
	ErrRunMismatch  = errors.New("run belongs to another topic")
)

type GraphInput struct {
	RunID  string
	Inputs contractx.Inputs
}

type GraphOutput struct {
	RunID        string
	Status       statex.RunStatus
	CampaignFile string
	ReportPath   string
	Pages        int
	Message      string
	Campaigns    []contractx.MarketingCampaign
}

// Paths locates the files a run writes.
type Paths struct {
	CampaignFile string
	ReportFile   string
}

type GraphState struct {
	RunID  string
	Inputs contractx.Inputs
	Now    time.Time

	Run *statex.RunState

	Trends     contractx.TrendingTopicList
	Strategies contractx.StrategyTrendingTopicList
	Campaigns  contractx.MarketingCampaignList

	CampaignFile string
	ReportPath   string
	Pages        int
	Message      string
}

// NormalizeInputs trims inputs and fills the current year from now when it
// is missing.
func NormalizeInputs(in contractx.Inputs, now time.Time) (contractx.Inputs, error) {
	in.Topic = strings.TrimSpace(in.Topic)
	if in.Topic == "" {
		return contractx.Inputs{}, ErrInvalidTopic
	}
	in.CurrentYear = strings.TrimSpace(in.CurrentYear)
	if in.CurrentYear == "" {
		in.CurrentYear = strconv.Itoa(now.Year())
	}
	return in, nil
}

func ValidateInputs(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	runID := strings.TrimSpace(in.RunID)
	if runID == "" {
		return nil, ErrInvalidRunID
	}

	now := nowFn().UTC()
	inputs, err := NormalizeInputs(in.Inputs, now)
	if err != nil {
		return nil, err
	}

	return &GraphState{
		RunID:  runID,
		Inputs: inputs,
		Now:    now,
	}, nil
}
