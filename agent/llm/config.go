package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	chatmodelx "github.com/tanpawarit/marketing-ai/pkg/chatmodel"
)

type Config struct {
	Provider           string        `envconfig:"PROVIDER" split_words:"true" default:"openai"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"gpt-4o"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"4000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.7"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"120s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	TrendResearcherModel        string  `envconfig:"TREND_RESEARCHER_MODEL" split_words:"true"`
	StrategistModel             string  `envconfig:"STRATEGIST_MODEL" split_words:"true"`
	CampaignDesignerModel       string  `envconfig:"CAMPAIGN_DESIGNER_MODEL" split_words:"true"`
	TrendResearcherTemperature  float32 `envconfig:"TREND_RESEARCHER_TEMPERATURE" split_words:"true" default:"-1"`
	StrategistTemperature       float32 `envconfig:"STRATEGIST_TEMPERATURE" split_words:"true" default:"-1"`
	CampaignDesignerTemperature float32 `envconfig:"CAMPAIGN_DESIGNER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	base := c.base()
	if err := base.Validate(); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	return nil
}

// ChatModelFor returns the model settings for one crew role, applying
// per-role overrides on top of the defaults.
func (c Config) ChatModelFor(agentType contractx.AgentType) chatmodelx.Config {
	cfg := c.base()

	var (
		modelOverride string
		tempOverride  float32 = -1
	)
	switch agentType {
	case contractx.AgentTypeTrendResearcher:
		modelOverride, tempOverride = c.TrendResearcherModel, c.TrendResearcherTemperature
	case contractx.AgentTypeStrategist:
		modelOverride, tempOverride = c.StrategistModel, c.StrategistTemperature
	case contractx.AgentTypeCampaignDesigner:
		modelOverride, tempOverride = c.CampaignDesignerModel, c.CampaignDesignerTemperature
	}

	if v := strings.TrimSpace(modelOverride); v != "" {
		cfg.Model = v
	}
	if tempOverride >= 0 {
		cfg.Temperature = tempOverride
	}
	return cfg
}

// Default returns the model settings without per-role overrides.
func (c Config) Default() chatmodelx.Config {
	return c.base()
}

func (c Config) base() chatmodelx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return chatmodelx.Config{
		Provider:           strings.TrimSpace(c.Provider),
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              strings.TrimSpace(c.Model),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
