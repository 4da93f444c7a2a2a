package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
)

func TestChatModelForOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Provider:                    "openai",
		APIKey:                      "k",
		Model:                       "gpt-4o",
		Temperature:                 0.7,
		MaxCompletionToken:          4000,
		StrategistModel:             "gpt-4o-mini",
		StrategistTemperature:       0.2,
		TrendResearcherTemperature:  -1,
		CampaignDesignerTemperature: -1,
	}

	strategist := cfg.ChatModelFor(contractx.AgentTypeStrategist)
	if strategist.Model != "gpt-4o-mini" {
		t.Fatalf("strategist model = %q", strategist.Model)
	}
	if strategist.Temperature != 0.2 {
		t.Fatalf("strategist temperature = %v", strategist.Temperature)
	}

	designer := cfg.ChatModelFor(contractx.AgentTypeCampaignDesigner)
	if designer.Model != "gpt-4o" || designer.Temperature != 0.7 {
		t.Fatalf("designer config = %#v", designer)
	}
	if designer.MaxCompletionToken == nil || *designer.MaxCompletionToken != 4000 {
		t.Fatalf("max completion token = %v", designer.MaxCompletionToken)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Provider: "ollama", Model: "deepseek-r1"}).Validate(); err != nil {
		t.Fatalf("ollama config should be valid: %v", err)
	}
	err := (Config{Provider: "openai", Model: "gpt-4o"}).Validate()
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}
}
