package backend

// Step names one endpoint of the remote processing service.
type Step string

const (
	StepExtractText           Step = "text_extraction"
	StepFetchReferences       Step = "fetching_references"
	StepRetrieveKnowledgeBase Step = "retrieve_knowledge_base"
	StepRespondToRejections   Step = "respond_to_rejections"
	StepPlanStrategy          Step = "planning_strategy"
	StepExecuteStrategy       Step = "execute_strategy"
	StepGenerateDraft         Step = "generate_draft"
)

// Path returns the endpoint path for the step.
func (s Step) Path() string {
	return "/" + string(s)
}
