package tool

import (
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
)

type GeneratePDFOutput struct {
	Path      string `json:"path"`
	Pages     int    `json:"pages"`
	Campaigns int    `json:"campaigns"`
	Message   string `json:"message"`
}

func generatePDFToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolGeneratePDF,
		Desc: "Render the marketing campaigns JSON file into a PDF report.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"json_file_path":   {Type: schema.String, Desc: "Path of the campaigns JSON file", Required: true},
			"output_file_path": {Type: schema.String, Desc: "Path of the PDF to write, defaults to campaign.pdf"},
		}),
	}
}

func executeGeneratePDF(renderer Renderer, tool string, args map[string]any) (contractx.ToolResult, error) {
	jsonPath, err := stringArg(args, "json_file_path", true)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	outputPath, err := stringArg(args, "output_file_path", false)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}

	res, err := renderer.RenderFile(jsonPath, outputPath)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: "error generating PDF: " + err.Error()}, nil
	}

	return contractx.ToolResult{
		Tool: tool,
		Result: GeneratePDFOutput{
			Path:      res.Path,
			Pages:     res.Pages,
			Campaigns: res.Campaigns,
			Message:   res.Message(),
		},
	}, nil
}
