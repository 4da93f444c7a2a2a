package crew

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	nodex "github.com/tanpawarit/marketing-ai/agent/nodes"
	promptx "github.com/tanpawarit/marketing-ai/agent/prompt"
	statex "github.com/tanpawarit/marketing-ai/agent/state"
)

var (
	ErrInvalidTopic = nodex.ErrInvalidTopic
	ErrRunMismatch  = nodex.ErrRunMismatch
)

type Settings struct {
	OutputDir     string `split_words:"true" default:"output"`
	CampaignFile  string `split_words:"true" default:"campaigns.json"`
	ReportFile    string `split_words:"true" default:"campaign.pdf"`
	MaxToolRounds int    `split_words:"true" default:"3"`
	PromptDir     string `split_words:"true"`
}

// Paths resolves the campaign and report files under OutputDir. Absolute
// file names are kept as given.
func (s Settings) Paths() nodex.Paths {
	dir := strings.TrimSpace(s.OutputDir)
	if dir == "" {
		dir = "output"
	}
	campaignFile := strings.TrimSpace(s.CampaignFile)
	if campaignFile == "" {
		campaignFile = "campaigns.json"
	}
	reportFile := strings.TrimSpace(s.ReportFile)
	if reportFile == "" {
		reportFile = "campaign.pdf"
	}
	if !filepath.IsAbs(campaignFile) {
		campaignFile = filepath.Join(dir, campaignFile)
	}
	if !filepath.IsAbs(reportFile) {
		reportFile = filepath.Join(dir, reportFile)
	}
	return nodex.Paths{CampaignFile: campaignFile, ReportFile: reportFile}
}

type KickoffRequest struct {
	// RunID resumes a stored run when set; a new id is generated otherwise.
	RunID  string
	Inputs contractx.Inputs
}

type Result struct {
	RunID        string
	Status       statex.RunStatus
	CampaignFile string
	ReportPath   string
	Pages        int
	Message      string
	Campaigns    []contractx.MarketingCampaign
}

// Crew runs the trend, strategy, campaign and PDF tasks in order.
type Crew struct {
	store     statex.Store
	agents    contractx.Registry
	defs      promptx.Definitions
	publisher contractx.Publisher
	paths     nodex.Paths

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	store statex.Store,
	agents contractx.Registry,
	defs promptx.Definitions,
	publisher contractx.Publisher,
	settings Settings,
) (*Crew, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if agents == nil {
		return nil, errors.New("agent registry is required")
	}
	if err := defs.Validate(); err != nil {
		return nil, err
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}

	c := &Crew{
		store:     store,
		agents:    agents,
		defs:      defs,
		publisher: publisher,
		paths:     settings.Paths(),
		now:       time.Now,
	}

	graphRunner, err := c.compileKickoffGraph(context.Background())
	if err != nil {
		return nil, err
	}
	c.graphRunner = graphRunner

	return c, nil
}

func (c *Crew) Kickoff(ctx context.Context, req KickoffRequest) (Result, error) {
	inputs, err := nodex.NormalizeInputs(req.Inputs, c.now())
	if err != nil {
		return Result{}, err
	}
	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}

	log.Info().Str("run_id", runID).Str("topic", inputs.Topic).Msg("crew kickoff")

	out, err := c.graphRunner.Invoke(ctx, nodex.GraphInput{
		RunID:  runID,
		Inputs: inputs,
	})
	if err != nil {
		log.Error().Err(err).Str("run_id", runID).Msg("crew run failed")
		return Result{RunID: runID, Status: statex.RunFailed}, err
	}

	log.Info().
		Str("run_id", runID).
		Str("report", out.ReportPath).
		Int("campaigns", len(out.Campaigns)).
		Msg("crew run completed")

	return Result{
		RunID:        out.RunID,
		Status:       out.Status,
		CampaignFile: out.CampaignFile,
		ReportPath:   out.ReportPath,
		Pages:        out.Pages,
		Message:      out.Message,
		Campaigns:    out.Campaigns,
	}, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishReport(context.Context, contractx.ReportEvent) error {
	return nil
}
