package stages

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project_partner_backend/internal/checkpoint"
	"project_partner_backend/internal/composio"
	"project_partner_backend/internal/generation"
	"project_partner_backend/internal/session"
)

// stubGenerator returns canned text per task and counts invocations.
type stubGenerator struct {
	outputs map[string]string
	errs    map[string]error
	calls   map[string]int
}

func newStubGenerator() *stubGenerator {
	return &stubGenerator{
		outputs: map[string]string{
			generation.TaskProjectPlanning:    "1. Gather parts\n2. Wire it up",
			generation.TaskProjectNaming:      "Sprout-Bot",
			generation.TaskComponentReasoning: "| Component | Purpose | Notes |",
			generation.TaskComponentSourcing:  "Summary text---DATA_SEPARATOR---| Part | Qty |\n| LED | 2 |",
			generation.TaskDiagramGeneration:  "```json\n{\"workflow_mermaid\":\"A-->B\",\"architecture_mermaid\":\"C-->D\"}\n```",
			generation.TaskCodeGeneration:     "```cpp\nvoid loop(){}\n```",
		},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (g *stubGenerator) Generate(ctx context.Context, taskID string, inputs map[string]string) (string, error) {
	g.calls[taskID]++
	if err := g.errs[taskID]; err != nil {
		return "", err
	}
	return g.outputs[taskID], nil
}

// stubDocs records document-service calls and can fail on a chosen page title.
type stubDocs struct {
	ops           []string
	failOnTitle   string
	failError     string
	appendedCount map[string]int
}

func newStubDocs() *stubDocs {
	return &stubDocs{appendedCount: map[string]int{}}
}

func (d *stubDocs) CreatePage(ctx context.Context, parentID, title string) (*composio.Result, error) {
	d.ops = append(d.ops, "create:"+title)
	if title == d.failOnTitle {
		return &composio.Result{Successful: false, Error: d.failError}, nil
	}
	return &composio.Result{
		Successful: true,
		Data:       composio.PageData{ID: "p1", URL: "http://doc/p1"},
	}, nil
}

func (d *stubDocs) AppendContent(ctx context.Context, parentBlockID string, blocks []composio.ContentBlock) (*composio.Result, error) {
	d.ops = append(d.ops, fmt.Sprintf("append:%s", parentBlockID))
	d.appendedCount[parentBlockID] += len(blocks)
	return &composio.Result{Successful: true}, nil
}

func (d *stubDocs) ConnectedAccountExists(ctx context.Context) (bool, error) {
	return true, nil
}

func newTestSequencer(t *testing.T) (*Sequencer, *stubGenerator, *stubDocs, *checkpoint.Marker) {
	t.Helper()
	gen := newStubGenerator()
	docs := newStubDocs()
	marker := checkpoint.New(filepath.Join(t.TempDir(), "task_progress.json"))
	return NewSequencer(gen, docs, marker, "root-page"), gen, docs, marker
}

func plannedState() *session.State {
	return &session.State{
		ProjectDetails: "a plant watering robot",
		ProjectPlan:    "1. Gather parts\n2. Wire it up",
	}
}

func TestPlanPopulatesState(t *testing.T) {
	seq, gen, _, _ := newTestSequencer(t)
	state := &session.State{}

	result, err := seq.Plan(context.Background(), state, "a plant watering robot")
	require.NoError(t, err)

	assert.Equal(t, "1. Gather parts\n2. Wire it up", state.ProjectPlan)
	assert.Equal(t, "a plant watering robot", state.ProjectDetails)
	assert.Equal(t, "1. Gather parts\n2. Wire it up", result.Result)
	assert.Equal(t, "Enter 'Proceed' to generate the Bill of Materials.", result.Prompt)
	assert.Equal(t, 1, gen.calls[generation.TaskProjectPlanning])
}

func TestPlanEmptyDetailsIsPrecondition(t *testing.T) {
	seq, gen, _, _ := newTestSequencer(t)
	state := &session.State{}

	_, err := seq.Plan(context.Background(), state, "   ")

	var pre *PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, "Project details are required.", pre.Reason)
	assert.Equal(t, session.State{}, *state)
	assert.Zero(t, gen.calls[generation.TaskProjectPlanning])
}

func TestPlanDiscardsCheckpoint(t *testing.T) {
	seq, _, _, marker := newTestSequencer(t)
	require.NoError(t, os.WriteFile(marker.Path(), []byte("{}"), 0644))

	_, err := seq.Plan(context.Background(), &session.State{}, "a robot")
	require.NoError(t, err)
	assert.False(t, marker.Exists())
}

func TestGenerateBOMMissingSessionIsPrecondition(t *testing.T) {
	seq, _, docs, _ := newTestSequencer(t)

	_, err := seq.GenerateBOM(context.Background(), &session.State{})

	var pre *PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, "Session data missing.", pre.Reason)
	assert.Empty(t, docs.ops)
}

func TestGenerateBOMSplitsAtSeparator(t *testing.T) {
	seq, _, docs, _ := newTestSequencer(t)
	state := plannedState()

	result, err := seq.GenerateBOM(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, "| Part | Qty |\n| LED | 2 |", state.FinalBOMData)
	assert.Equal(t, "p1", state.ProjectPageID)
	assert.Equal(t, "http://doc/p1", state.ProjectPageURL)
	assert.Contains(t, result.Result, "Summary text")
	assert.Contains(t, result.Result, "http://doc/p1")
	assert.Equal(t, "Enter 'Proceed' to generate the final assets (code and diagram).", result.Prompt)
	assert.Equal(t, []string{
		"create:Sprout-Bot",
		"create:Conceptual BOM",
		"append:p1",
		"create:Final Bill of Materials (BOM)",
		"append:p1",
	}, docs.ops)
}

func TestGenerateBOMMissingSeparatorFailsWithRawText(t *testing.T) {
	seq, gen, docs, _ := newTestSequencer(t)
	gen.outputs[generation.TaskComponentSourcing] = "no separator in sight"
	state := plannedState()

	_, err := seq.GenerateBOM(context.Background(), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no separator in sight")
	assert.Empty(t, docs.ops)
	assert.Empty(t, state.FinalBOMData)
}

func TestGenerateBOMRateLimitSentinelPauses(t *testing.T) {
	seq, gen, docs, marker := newTestSequencer(t)
	gen.outputs[generation.TaskComponentSourcing] = "partial work RATE_LIMIT_HIT"
	require.NoError(t, os.WriteFile(marker.Path(), []byte("{}"), 0644))
	state := plannedState()
	state.ProjectName = "Sprout-Bot"
	state.ConceptualBOMTable = "| Component | Purpose | Notes |"

	result, err := seq.GenerateBOM(context.Background(), state)
	require.NoError(t, err)

	assert.True(t, result.Paused)
	assert.Equal(t, "I'm working on your component list, but I've hit a temporary API limit. Your progress is saved!", result.Result)
	assert.Equal(t, "Please wait 60 seconds and then enter 'Proceed' again to continue from where I left off.", result.Prompt)
	assert.Empty(t, state.FinalBOMData)
	assert.Empty(t, state.ProjectPageID)
	assert.Empty(t, docs.ops)
	// the out-of-band checkpoint survives a pause
	assert.True(t, marker.Exists())
}

func TestGenerateBOMCheckpointSkipsNamingAndDesign(t *testing.T) {
	seq, gen, _, marker := newTestSequencer(t)
	require.NoError(t, os.WriteFile(marker.Path(), []byte("{}"), 0644))
	state := plannedState()
	state.ProjectName = "Sprout-Bot"
	state.ConceptualBOMTable = "| Component | Purpose | Notes |"

	_, err := seq.GenerateBOM(context.Background(), state)
	require.NoError(t, err)

	assert.Zero(t, gen.calls[generation.TaskProjectNaming])
	assert.Zero(t, gen.calls[generation.TaskComponentReasoning])
	assert.Equal(t, 1, gen.calls[generation.TaskComponentSourcing])
	// checkpoint is consumed by the successful sourcing pass
	assert.False(t, marker.Exists())
}

func TestGenerateBOMFreshRunInvokesNamingAndDesignOnce(t *testing.T) {
	seq, gen, _, _ := newTestSequencer(t)
	state := plannedState()

	_, err := seq.GenerateBOM(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls[generation.TaskProjectNaming])
	assert.Equal(t, 1, gen.calls[generation.TaskComponentReasoning])
	assert.Equal(t, "Sprout-Bot", state.ProjectName)
	assert.Equal(t, "| Component | Purpose | Notes |", state.ConceptualBOMTable)
}

func TestGenerateBOMPageCreationFailureStopsPublishing(t *testing.T) {
	seq, _, docs, _ := newTestSequencer(t)
	docs.failOnTitle = "Conceptual BOM"
	docs.failError = "boom"
	state := plannedState()

	_, err := seq.GenerateBOM(context.Background(), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	// nothing after the failed creation call
	assert.Equal(t, []string{"create:Sprout-Bot", "create:Conceptual BOM"}, docs.ops)
}

func TestGenerateBOMGenerationErrorSurfaces(t *testing.T) {
	seq, gen, docs, _ := newTestSequencer(t)
	gen.errs[generation.TaskComponentSourcing] = errors.New("provider exploded")
	state := plannedState()

	_, err := seq.GenerateBOM(context.Background(), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider exploded")
	assert.Empty(t, docs.ops)
}

func sourcedState() *session.State {
	return &session.State{
		ProjectDetails: "a plant watering robot",
		ProjectPlan:    "1. Gather parts\n2. Wire it up",
		ProjectName:    "Sprout-Bot",
		FinalBOMData:   "| Part | Qty |\n| LED | 2 |",
		ProjectPageID:  "p1",
		ProjectPageURL: "http://doc/p1",
	}
}

func TestGenerateFinalAssetsMissingSessionIsPrecondition(t *testing.T) {
	seq, _, _, _ := newTestSequencer(t)
	state := sourcedState()
	state.ProjectPlan = ""

	_, err := seq.GenerateFinalAssets(context.Background(), state)

	var pre *PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, "Session data missing.", pre.Reason)
}

func TestGenerateFinalAssetsPublishesGuideAndCompletes(t *testing.T) {
	seq, _, docs, _ := newTestSequencer(t)
	state := sourcedState()

	result, err := seq.GenerateFinalAssets(context.Background(), state)
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Contains(t, result.Result, "http://doc/p1")
	assert.Equal(t, session.State{}, *state)
	assert.Equal(t, []string{"create:Full Project Guide", "append:p1"}, docs.ops)
	assert.Equal(t, 6, docs.appendedCount["p1"])
}

func TestGenerateFinalAssetsNoJSONBlockFails(t *testing.T) {
	seq, gen, docs, _ := newTestSequencer(t)
	gen.outputs[generation.TaskDiagramGeneration] = "no diagrams today"
	state := sourcedState()

	_, err := seq.GenerateFinalAssets(context.Background(), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no diagrams today")
	assert.Empty(t, docs.ops)
	// failure makes no partial-state assumptions
	assert.Equal(t, "p1", state.ProjectPageID)
}

func TestGenerateFinalAssetsGuideFailureSurfacesServiceError(t *testing.T) {
	seq, _, docs, _ := newTestSequencer(t)
	docs.failOnTitle = "Full Project Guide"
	docs.failError = "boom"
	state := sourcedState()

	_, err := seq.GenerateFinalAssets(context.Background(), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []string{"create:Full Project Guide"}, docs.ops)
}

func TestWorkflowEndToEnd(t *testing.T) {
	seq, _, _, _ := newTestSequencer(t)
	state := &session.State{}
	ctx := context.Background()

	_, err := seq.Plan(ctx, state, "a plant watering robot")
	require.NoError(t, err)

	_, err = seq.GenerateBOM(ctx, state)
	require.NoError(t, err)

	result, err := seq.GenerateFinalAssets(ctx, state)
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Contains(t, result.Result, "http://doc/p1")
	assert.Equal(t, session.State{}, *state)
}
