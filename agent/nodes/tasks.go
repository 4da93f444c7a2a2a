package crewnode

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	promptx "github.com/tanpawarit/marketing-ai/agent/prompt"
	statex "github.com/tanpawarit/marketing-ai/agent/state"
)

const (
	trendSchema = `{"topics":[{"name":"topic name","description":"brief description","relevance":"why it matters for marketing"}]}`

	strategySchema = `{"strategies":[{"score":"8.5","topics":{"topics":[{"name":"topic name","description":"brief description","relevance":"why it matters for marketing"}]}}]}`

	campaignSchema = `{"campaigns":[{"name":"campaign name","objective":"campaign objective","target_audience":"who the campaign targets",` +
		`"campaign_details":"channels, content and timeline",` +
		`"strategy":{"score":"8.5","topics":{"topics":[{"name":"topic name","description":"brief description","relevance":"why it matters"}]}}}]}`

	pdfToolName = "report.generate_pdf"
)

type pdfOutput struct {
	Path    string `json:"path"`
	Pages   int    `json:"pages"`
	Message string `json:"message"`
}

func TrendTask(ctx context.Context, in *GraphState, store statex.Store, reg contractx.Registry, defs promptx.Definitions) (*GraphState, error) {
	return runTask(ctx, in, store, reg, defs, taskStep{
		name:         contractx.TaskTrend,
		outputSchema: trendSchema,
		accept: func(resp contractx.TaskResponse) (json.RawMessage, error) {
			return decodeStructured(resp, &in.Trends, contractx.ValidateTrendingTopics)
		},
	})
}

func StrategyTask(ctx context.Context, in *GraphState, store statex.Store, reg contractx.Registry, defs promptx.Definitions) (*GraphState, error) {
	return runTask(ctx, in, store, reg, defs, taskStep{
		name:         contractx.TaskStrategy,
		context:      []contractx.TaskName{contractx.TaskTrend},
		outputSchema: strategySchema,
		accept: func(resp contractx.TaskResponse) (json.RawMessage, error) {
			return decodeStructured(resp, &in.Strategies, contractx.ValidateStrategies)
		},
	})
}

// CampaignTask designs the campaigns and writes them to paths.CampaignFile,
// the input of the PDF task.
func CampaignTask(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	reg contractx.Registry,
	defs promptx.Definitions,
	paths Paths,
) (*GraphState, error) {
	out, err := runTask(ctx, in, store, reg, defs, taskStep{
		name:         contractx.TaskCampaign,
		context:      []contractx.TaskName{contractx.TaskTrend, contractx.TaskStrategy},
		outputSchema: campaignSchema,
		accept: func(resp contractx.TaskResponse) (json.RawMessage, error) {
			raw, err := decodeStructured(resp, &in.Campaigns, contractx.ValidateCampaigns)
			if err != nil {
				return nil, err
			}
			path, err := writeCampaignFile(paths.CampaignFile, in.Campaigns)
			if err != nil {
				return nil, err
			}
			in.CampaignFile = path
			in.Run.CampaignFile = path
			return raw, nil
		},
	})
	if err != nil {
		return nil, err
	}

	// resumed runs may have lost the file on disk
	if out.CampaignFile == "" || !fileExists(out.CampaignFile) {
		path, err := writeCampaignFile(paths.CampaignFile, out.Campaigns)
		if err != nil {
			return nil, err
		}
		out.CampaignFile = path
		out.Run.CampaignFile = path
		out.Run.Touch(out.Now)
		if err := store.Save(ctx, out.Run); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// PDFGenerationTask asks the campaign designer to render the report. The
// task only succeeds when the PDF tool actually produced a file.
func PDFGenerationTask(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	reg contractx.Registry,
	defs promptx.Definitions,
	paths Paths,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	reportPath, err := filepath.Abs(paths.ReportFile)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve report path: %v", contractx.ErrValidation, err)
	}

	return runTask(ctx, in, store, reg, defs, taskStep{
		name: contractx.TaskPDFGeneration,
		vars: map[string]string{
			"campaign_file": in.CampaignFile,
			"report_file":   reportPath,
		},
		context: []contractx.TaskName{contractx.TaskCampaign},
		accept: func(resp contractx.TaskResponse) (json.RawMessage, error) {
			out, err := pdfResult(resp)
			if err != nil {
				return nil, err
			}
			in.ReportPath = out.Path
			in.Pages = out.Pages
			in.Message = out.Message
			in.Run.ReportPath = out.Path
			return json.Marshal(out)
		},
	})
}

// pdfResult returns the last successful PDF tool result.
func pdfResult(resp contractx.TaskResponse) (pdfOutput, error) {
	lastErr := ""
	for i := len(resp.ToolResults) - 1; i >= 0; i-- {
		res := resp.ToolResults[i]
		if res.Tool != pdfToolName {
			continue
		}
		if res.Error != "" {
			if lastErr == "" {
				lastErr = res.Error
			}
			continue
		}
		raw, err := json.Marshal(res.Result)
		if err != nil {
			return pdfOutput{}, fmt.Errorf("%w: pdf tool result: %v", contractx.ErrSchemaViolation, err)
		}
		var out pdfOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return pdfOutput{}, fmt.Errorf("%w: pdf tool result: %v", contractx.ErrSchemaViolation, err)
		}
		if strings.TrimSpace(out.Path) == "" {
			return pdfOutput{}, fmt.Errorf("%w: pdf tool returned no path", contractx.ErrSchemaViolation)
		}
		if out.Message == "" {
			out.Message = "PDF report generated successfully: " + out.Path
		}
		return out, nil
	}
	if lastErr != "" {
		return pdfOutput{}, fmt.Errorf("%w: %s failed: %s", contractx.ErrToolFailed, pdfToolName, lastErr)
	}
	return pdfOutput{}, fmt.Errorf("%w: %s was not called", contractx.ErrSchemaViolation, pdfToolName)
}

func writeCampaignFile(path string, campaigns contractx.MarketingCampaignList) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve campaign file: %w", err)
	}
	data, err := json.MarshalIndent(campaigns, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal campaigns: %w", err)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".campaigns-*.json.tmp")
	if err != nil {
		return "", fmt.Errorf("create campaign file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write campaign file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close campaign file: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return "", fmt.Errorf("rename campaign file: %w", err)
	}
	return abs, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
