// Package generation adapts the eino chat model into a named-task text
// generation capability. Agent roles and prompt content are configuration
// data; the adapter only renders and sends them.
package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"

	"project_partner_backend/internal/config"
	"project_partner_backend/internal/logger"
)

// Task identifiers for the workflow's generation calls.
const (
	TaskProjectPlanning    = "project_planning_task"
	TaskProjectNaming      = "project_naming_task"
	TaskComponentReasoning = "component_reasoning_task"
	TaskComponentSourcing  = "component_sourcing_task"
	TaskDiagramGeneration  = "diagram_generation_task"
	TaskCodeGeneration     = "code_generation_task"
)

// Generator runs a named task with named string inputs and returns the raw
// text result.
type Generator interface {
	Generate(ctx context.Context, taskID string, inputs map[string]string) (string, error)
}

// ChatGenerator implements Generator on top of the eino openai chat model.
type ChatGenerator struct {
	model *openai.ChatModel
	tasks map[string]config.Task
}

// NewChatGenerator creates a chat model from config and binds it to the
// loaded task definitions.
func NewChatGenerator(ctx context.Context, cfg config.LLMConfig, tasks map[string]config.Task) (*ChatGenerator, error) {
	maxTokens := cfg.MaxTokens
	temperature := float32(cfg.Temperature)

	modelConfig := &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}

	model, err := openai.NewChatModel(ctx, modelConfig)
	if err != nil {
		return nil, fmt.Errorf("error creating chat model: %v", err)
	}

	return &ChatGenerator{model: model, tasks: tasks}, nil
}

// Generate renders the task's prompt template with the given inputs and runs
// one generation call, retrying transparently on provider rate limits.
func (g *ChatGenerator) Generate(ctx context.Context, taskID string, inputs map[string]string) (string, error) {
	task, ok := g.tasks[taskID]
	if !ok {
		return "", fmt.Errorf("unknown task: %s", taskID)
	}

	prompt := renderPrompt(task.Prompt, inputs)

	role := task.Role
	if role == "" {
		role = "You are a helpful assistant. Follow the instructions precisely."
	}
	messages := []*schema.Message{
		schema.SystemMessage(role),
		schema.UserMessage(prompt),
	}

	start := time.Now()
	out, err := retryOnRateLimit(ctx, func() (*schema.Message, error) {
		return g.model.Generate(ctx, messages)
	})
	if err != nil {
		return "", fmt.Errorf("error generating response for task %s: %w", taskID, err)
	}

	logger.Debug().
		Str("task", taskID).
		Int("output_length", len(out.Content)).
		Dur("elapsed", time.Since(start)).
		Msg("Generation call completed")

	return out.Content, nil
}

// renderPrompt substitutes {{name}} placeholders with the provided inputs.
func renderPrompt(template string, inputs map[string]string) string {
	prompt := template
	for name, value := range inputs {
		prompt = strings.ReplaceAll(prompt, "{{"+name+"}}", value)
	}
	return prompt
}
