package session

// State is the per-workflow session state, populated incrementally by the
// stages and cleared in full at workflow completion. A stage that reads a
// field must only run after the stage that writes it has completed.
type State struct {
	ProjectDetails     string `json:"project_details"`
	ProjectPlan        string `json:"project_plan"`
	ProjectName        string `json:"project_name"`
	ConceptualBOMTable string `json:"conceptual_bom_table"`
	FinalBOMData       string `json:"final_bom_data"`
	ProjectPageID      string `json:"project_page_id"`
	ProjectPageURL     string `json:"project_page_url"`
}

// HasPlan reports whether the planning stage has completed.
func (s *State) HasPlan() bool {
	return s.ProjectPlan != "" && s.ProjectDetails != ""
}

// HasBOM reports whether the sourcing stage has completed.
func (s *State) HasBOM() bool {
	return s.FinalBOMData != "" && s.ProjectPageID != ""
}

// Reset clears all workflow state.
func (s *State) Reset() {
	*s = State{}
}
