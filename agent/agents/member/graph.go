package member

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
)

var thinkBlockPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

func memberTemplate() einoprompt.ChatTemplate {
	return einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{input}"),
	)
}

func compileActGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	graphName string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", memberTemplate()); err != nil {
		return nil, fmt.Errorf("add act prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add act model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add act edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add act edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add act edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile act graph: %w", err)
	}
	return runner, nil
}

func compileStructuredGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	graphName string,
) (compose.Runnable[map[string]any, json.RawMessage], error) {
	parser := schema.NewMessageJSONParser[json.RawMessage](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, json.RawMessage]()
	if err := graph.AddChatTemplateNode("prompt", memberTemplate()); err != nil {
		return nil, fmt.Errorf("add structured prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add structured model node: %w", err)
	}
	if err := graph.AddLambdaNode("extract_json", compose.InvokableLambda(extractJSONMessage)); err != nil {
		return nil, fmt.Errorf("add structured extract node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("add structured parser node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add structured edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add structured edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", "extract_json"); err != nil {
		return nil, fmt.Errorf("add structured edge model->extract: %w", err)
	}
	if err := graph.AddEdge("extract_json", "parse_json"); err != nil {
		return nil, fmt.Errorf("add structured edge extract->parse: %w", err)
	}
	if err := graph.AddEdge("parse_json", compose.END); err != nil {
		return nil, fmt.Errorf("add structured edge parse->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile structured graph: %w", err)
	}
	return runner, nil
}

type memberGraphState struct {
	Req         contractx.TaskRequest
	System      string
	ToolResults []contractx.ToolResult
	Text        string
}

func compileRuntimeGraph(
	ctx context.Context,
	graphName string,
	prepare func(context.Context, contractx.TaskRequest) (*memberGraphState, error),
	actFlow func(context.Context, *memberGraphState) (*memberGraphState, error),
	structuredFlow func(context.Context, *memberGraphState) (contractx.TaskResponse, error),
	textFlow func(context.Context, *memberGraphState) (contractx.TaskResponse, error),
) (compose.Runnable[contractx.TaskRequest, contractx.TaskResponse], error) {
	graph := compose.NewGraph[contractx.TaskRequest, contractx.TaskResponse]()

	if err := graph.AddLambdaNode("validate_and_prepare", compose.InvokableLambda(prepare)); err != nil {
		return nil, fmt.Errorf("add runtime validate node: %w", err)
	}
	if err := graph.AddLambdaNode("act", compose.InvokableLambda(actFlow)); err != nil {
		return nil, fmt.Errorf("add runtime act node: %w", err)
	}
	if err := graph.AddLambdaNode("structured_path",
		compose.InvokableLambda(func(ctx context.Context, in *memberGraphState) (contractx.TaskResponse, error) {
			if in == nil {
				return contractx.TaskResponse{}, fmt.Errorf("%w: member graph state is nil", contractx.ErrValidation)
			}
			return structuredFlow(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add runtime structured node: %w", err)
	}
	if err := graph.AddLambdaNode("text_path",
		compose.InvokableLambda(func(ctx context.Context, in *memberGraphState) (contractx.TaskResponse, error) {
			if in == nil {
				return contractx.TaskResponse{}, fmt.Errorf("%w: member graph state is nil", contractx.ErrValidation)
			}
			return textFlow(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add runtime text node: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *memberGraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: member graph state is nil", contractx.ErrValidation)
			}
			if in.Req.Structured {
				return "structured_path", nil
			}
			return "text_path", nil
		},
		map[string]bool{
			"structured_path": true,
			"text_path":       true,
		},
	)

	if err := graph.AddEdge(compose.START, "validate_and_prepare"); err != nil {
		return nil, fmt.Errorf("add runtime edge start->validate: %w", err)
	}
	if err := graph.AddEdge("validate_and_prepare", "act"); err != nil {
		return nil, fmt.Errorf("add runtime edge validate->act: %w", err)
	}
	if err := graph.AddBranch("act", branch); err != nil {
		return nil, fmt.Errorf("add runtime branch: %w", err)
	}
	if err := graph.AddEdge("structured_path", compose.END); err != nil {
		return nil, fmt.Errorf("add runtime edge structured->end: %w", err)
	}
	if err := graph.AddEdge("text_path", compose.END); err != nil {
		return nil, fmt.Errorf("add runtime edge text->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile runtime graph: %w", err)
	}
	return runner, nil
}

// extractJSONMessage keeps only the JSON object of a model reply. Reasoning
// models wrap answers in <think> blocks and code fences.
func extractJSONMessage(_ context.Context, msg *schema.Message) (*schema.Message, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
	}
	content, err := ExtractJSON(msg.Content)
	if err != nil {
		return nil, err
	}
	out := *msg
	out.Content = content
	return &out, nil
}

func ExtractJSON(content string) (string, error) {
	content = thinkBlockPattern.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: response contains no json object", contractx.ErrSchemaViolation)
	}
	content = content[start : end+1]
	if !json.Valid([]byte(content)) {
		return "", fmt.Errorf("%w: response is not valid json", contractx.ErrSchemaViolation)
	}
	return content, nil
}
