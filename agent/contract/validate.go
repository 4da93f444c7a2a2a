package contract

import (
	"fmt"
	"strings"
)

func ValidateTrendingTopics(l TrendingTopicList) error {
	if len(l.Topics) == 0 {
		return fmt.Errorf("%w: topics must not be empty", ErrSchemaViolation)
	}
	for i, t := range l.Topics {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: topics[%d].name is required", ErrSchemaViolation, i)
		}
	}
	return nil
}

func ValidateStrategies(l StrategyTrendingTopicList) error {
	if len(l.Strategies) == 0 {
		return fmt.Errorf("%w: strategies must not be empty", ErrSchemaViolation)
	}
	for i, s := range l.Strategies {
		if strings.TrimSpace(s.Score.String()) == "" {
			return fmt.Errorf("%w: strategies[%d].score is required", ErrSchemaViolation, i)
		}
		if err := ValidateTrendingTopics(s.Topics); err != nil {
			return fmt.Errorf("strategies[%d]: %w", i, err)
		}
	}
	return nil
}

func ValidateCampaigns(l MarketingCampaignList) error {
	if len(l.Campaigns) == 0 {
		return fmt.Errorf("%w: campaigns must not be empty", ErrSchemaViolation)
	}
	if err := l.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}
