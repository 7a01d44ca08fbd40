// Package stages drives the fixed three-stage project workflow: plan, bill of
// materials, final assets. Each stage is one blocking unit of work bounded by
// an HTTP request, carrying state forward only through the session.
package stages

import (
	"context"
	"fmt"
	"strings"

	"project_partner_backend/internal/checkpoint"
	"project_partner_backend/internal/composio"
	"project_partner_backend/internal/extract"
	"project_partner_backend/internal/generation"
	"project_partner_backend/internal/logger"
	"project_partner_backend/internal/session"
)

// Fixed next-action prompts returned to the client.
const (
	promptAfterPlan = "Enter 'Proceed' to generate the Bill of Materials."
	promptAfterBOM  = "Enter 'Proceed' to generate the final assets (code and diagram)."

	pausedResult = "I'm working on your component list, but I've hit a temporary API limit. Your progress is saved!"
	pausedPrompt = "Please wait 60 seconds and then enter 'Proceed' again to continue from where I left off."
)

// Result is the outcome of one stage invocation.
type Result struct {
	Result string `json:"result"`
	Prompt string `json:"prompt,omitempty"`

	// Paused marks the rate-limit "retry later" outcome: not an error, all
	// state preserved.
	Paused bool `json:"-"`
	// Completed marks workflow completion; the caller clears the session.
	Completed bool `json:"-"`
}

// Sequencer runs the workflow stages against explicitly passed-in state.
type Sequencer struct {
	gen          generation.Generator
	docs         composio.Client
	marker       *checkpoint.Marker
	parentPageID string
}

// NewSequencer wires the sequencer with its collaborators.
func NewSequencer(gen generation.Generator, docs composio.Client, marker *checkpoint.Marker, parentPageID string) *Sequencer {
	return &Sequencer{
		gen:          gen,
		docs:         docs,
		marker:       marker,
		parentPageID: parentPageID,
	}
}

// Plan runs Stage 1: one planning call from the free-form project
// description. A fresh run discards any leftover checkpoint marker.
func (s *Sequencer) Plan(ctx context.Context, state *session.State, projectDetails string) (*Result, error) {
	if strings.TrimSpace(projectDetails) == "" {
		return nil, precondition("Project details are required.")
	}

	if err := s.marker.Clear(); err != nil {
		return nil, fmt.Errorf("failed to discard previous checkpoint: %w", err)
	}

	logger.Info().Str("project_details", projectDetails).Msg("Stage 1: planning")

	plan, err := s.gen.Generate(ctx, generation.TaskProjectPlanning, map[string]string{
		"project_details": projectDetails,
	})
	if err != nil {
		return nil, err
	}

	state.ProjectPlan = plan
	state.ProjectDetails = projectDetails

	logger.Info().Msg("Stage 1 finished")
	return &Result{Result: plan, Prompt: promptAfterPlan}, nil
}

// GenerateBOM runs Stage 2: name the project and design a conceptual BOM
// (skipped when resuming from a checkpoint), source concrete parts, then
// publish the tables to the document tree.
func (s *Sequencer) GenerateBOM(ctx context.Context, state *session.State) (*Result, error) {
	if !state.HasPlan() {
		return nil, precondition("Session data missing.")
	}

	logger.Info().Str("project_details", state.ProjectDetails).Msg("Stage 2: generating BOM content")

	if !s.marker.Exists() {
		logger.Info().Msg("Generating project name")
		name, err := s.gen.Generate(ctx, generation.TaskProjectNaming, map[string]string{
			"project_details": state.ProjectDetails,
		})
		if err != nil {
			return nil, err
		}
		state.ProjectName = name

		logger.Info().Msg("Designing conceptual BOM")
		design, err := s.gen.Generate(ctx, generation.TaskComponentReasoning, map[string]string{
			"project_plan": state.ProjectPlan,
		})
		if err != nil {
			return nil, err
		}
		state.ConceptualBOMTable = design
	} else {
		logger.Info().Msg("Resuming from a saved checkpoint")
	}

	logger.Info().Msg("Sourcing final parts")
	sourcing, err := s.gen.Generate(ctx, generation.TaskComponentSourcing, map[string]string{
		"final_bom": state.ConceptualBOMTable,
	})
	if err != nil {
		return nil, err
	}

	if extract.HasRateLimitSentinel(sourcing) {
		logger.Warn().Msg("Rate limit hit, process paused; progress saved by the agent")
		return &Result{Result: pausedResult, Prompt: pausedPrompt, Paused: true}, nil
	}

	if err := s.marker.Clear(); err != nil {
		return nil, fmt.Errorf("failed to clear checkpoint: %w", err)
	}

	userSummary, finalBOMTable, err := extract.SplitSourcing(sourcing)
	if err != nil {
		return nil, err
	}

	logger.Info().Msg("Creating and populating the Notion pages")

	projectPage, err := s.createPage(ctx, s.parentPageID, state.ProjectName, "main project page")
	if err != nil {
		return nil, err
	}
	state.ProjectPageID = projectPage.ID
	state.ProjectPageURL = projectPage.URL

	conceptualPage, err := s.createPage(ctx, projectPage.ID, "Conceptual BOM", "Conceptual BOM page")
	if err != nil {
		return nil, err
	}
	if err := s.appendBlocks(ctx, conceptualPage.ID, "Conceptual BOM page", composio.TextBlock(state.ConceptualBOMTable)); err != nil {
		return nil, err
	}

	finalPage, err := s.createPage(ctx, projectPage.ID, "Final Bill of Materials (BOM)", "Final BOM page")
	if err != nil {
		return nil, err
	}
	if err := s.appendBlocks(ctx, finalPage.ID, "Final BOM page", composio.TextBlock(finalBOMTable)); err != nil {
		return nil, err
	}

	logger.Info().Str("url", projectPage.URL).Msg("Notion pages created and populated")

	state.FinalBOMData = strings.TrimSpace(finalBOMTable)

	output := strings.TrimSpace(userSummary) +
		fmt.Sprintf("\n\n[View your full project folder on Notion](%s)", projectPage.URL)
	return &Result{Result: output, Prompt: promptAfterBOM}, nil
}

// GenerateFinalAssets runs Stage 3: generate the diagram set and the code
// sketch, publish them as a guide page, and complete the workflow.
func (s *Sequencer) GenerateFinalAssets(ctx context.Context, state *session.State) (*Result, error) {
	if !state.HasBOM() || state.ProjectPlan == "" {
		return nil, precondition("Session data missing.")
	}

	logger.Info().Msg("Stage 3: generating final assets")

	logger.Info().Msg("Generating all diagrams")
	diagramOutput, err := s.gen.Generate(ctx, generation.TaskDiagramGeneration, map[string]string{
		"final_bom":    state.FinalBOMData,
		"project_plan": state.ProjectPlan,
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Msg("Generating Arduino code")
	codeOutput, err := s.gen.Generate(ctx, generation.TaskCodeGeneration, map[string]string{
		"final_bom": state.FinalBOMData,
	})
	if err != nil {
		return nil, err
	}

	diagramData, err := extract.JSONBlock(diagramOutput)
	if err != nil {
		return nil, err
	}
	workflowMermaid := extract.StringField(diagramData, "workflow_mermaid", "Error: Workflow diagram not found.")
	architectureMermaid := extract.StringField(diagramData, "architecture_mermaid", "Error: Architecture diagram not found.")
	codeSketch := extract.CodeBlock(codeOutput, "cpp")

	logger.Info().Msg("Creating the final guide page")

	guidePage, err := s.createPage(ctx, state.ProjectPageID, "Full Project Guide", "final guide page")
	if err != nil {
		return nil, err
	}

	blocks := []composio.ContentBlock{
		composio.TextBlock("## Workflow Diagram"),
		composio.TextBlock(fmt.Sprintf("```mermaid\n%s\n```", workflowMermaid)),
		composio.TextBlock("## Architecture Diagram"),
		composio.TextBlock(fmt.Sprintf("```mermaid\n%s\n```", architectureMermaid)),
		composio.TextBlock("## Arduino Code"),
		composio.TextBlock(fmt.Sprintf("```cpp\n%s\n```", codeSketch)),
	}
	if err := s.appendBlocks(ctx, guidePage.ID, "final guide page", blocks...); err != nil {
		return nil, err
	}

	logger.Info().Msg("Final guide page created and populated")

	projectPageURL := state.ProjectPageURL
	if projectPageURL == "" {
		projectPageURL = "#"
	}
	state.Reset()

	return &Result{
		Result:    fmt.Sprintf("[View your complete project folder on Notion!](%s)", projectPageURL),
		Completed: true,
	}, nil
}

func (s *Sequencer) createPage(ctx context.Context, parentID, title, what string) (*composio.PageData, error) {
	result, err := s.docs.CreatePage(ctx, parentID, title)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", what, err)
	}
	if !result.Successful {
		return nil, fmt.Errorf("failed to create %s: %s", what, result.Error)
	}
	return &result.Data, nil
}

func (s *Sequencer) appendBlocks(ctx context.Context, parentBlockID, what string, blocks ...composio.ContentBlock) error {
	result, err := s.docs.AppendContent(ctx, parentBlockID, blocks)
	if err != nil {
		return fmt.Errorf("failed to populate %s: %w", what, err)
	}
	if !result.Successful {
		return fmt.Errorf("failed to populate %s: %s", what, result.Error)
	}
	return nil
}
