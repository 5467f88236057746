package core

// Stage is the project's position in the workflow state machine. Values are
// persisted verbatim and must stay stable.
type Stage string

const (
	StageInitial                     Stage = "Initial"
	StageDocumentProcessing          Stage = "DocumentProcessing"
	StageRequirementAnalysis         Stage = "RequirementAnalysis"
	StageOutlineGenerationInProgress Stage = "OutlineGenerationInProgress"
	StageOutlineGenerated            Stage = "OutlineGenerated"
	StageOutlineRegenerationPending  Stage = "OutlineRegenerationPending"
	StageOutlineFeedbackProcessed    Stage = "OutlineFeedbackProcessed"
	StageOutlineConfirmed            Stage = "OutlineConfirmed_ContentStructurePending"

	StageContentStructureInProgress   Stage = "ContentStructureInProgress"
	StageContentStructureGenerated    Stage = "ContentStructureGenerated"
	StageSectionWritingInProgress     Stage = "SectionWritingInProgress"
	StageSectionsWritten              Stage = "SectionsWritten"
	StageContentIntegrationInProgress Stage = "ContentIntegrationInProgress"
	StageTenderAssembled              Stage = "TenderAssembled"

	StageDocumentProcessingFailed     Stage = "DocumentProcessingFailed"
	StageOutlineGenerationFailed      Stage = "OutlineGenerationFailed"
	StageUpdateFailedSR               Stage = "UpdateFailedSR"
	StageCriticalErrorProjectNotFound Stage = "CriticalErrorProjectNotFound"
	StageFeedbackErrorNoOutline       Stage = "FeedbackError_NoOutline"
	StageFeedbackErrorDeserialization Stage = "FeedbackError_Deserialization"
	StageFeedbackErrorSaveFailed      Stage = "FeedbackError_SaveFailed"
	StageConfirmErrorNoOutline        Stage = "ConfirmError_NoOutline"
	StageConfirmErrorDeserialization  Stage = "ConfirmError_Deserialization"
	StageConfirmErrorSaveFailed       Stage = "ConfirmError_SaveFailed"
	StageContentStructureFailed       Stage = "ContentStructureFailed"
	StageSectionWritingFailed         Stage = "SectionWritingFailed"
	StageContentIntegrationFailed     Stage = "ContentIntegrationFailed"
)

type stageInfo struct {
	failure        bool
	requireOutline bool
}

var stages = map[Stage]stageInfo{
	StageInitial:                     {},
	StageDocumentProcessing:          {},
	StageRequirementAnalysis:         {},
	StageOutlineGenerationInProgress: {},
	StageOutlineGenerated:            {requireOutline: true},
	StageOutlineRegenerationPending:  {requireOutline: true},
	StageOutlineFeedbackProcessed:    {requireOutline: true},
	StageOutlineConfirmed:            {requireOutline: true},

	StageContentStructureInProgress:   {requireOutline: true},
	StageContentStructureGenerated:    {requireOutline: true},
	StageSectionWritingInProgress:     {requireOutline: true},
	StageSectionsWritten:              {requireOutline: true},
	StageContentIntegrationInProgress: {requireOutline: true},
	StageTenderAssembled:              {requireOutline: true},

	StageDocumentProcessingFailed:     {failure: true},
	StageOutlineGenerationFailed:      {failure: true},
	StageUpdateFailedSR:               {failure: true},
	StageCriticalErrorProjectNotFound: {failure: true},
	StageFeedbackErrorNoOutline:       {failure: true},
	StageFeedbackErrorDeserialization: {failure: true},
	StageFeedbackErrorSaveFailed:      {failure: true},
	StageConfirmErrorNoOutline:        {failure: true},
	StageConfirmErrorDeserialization:  {failure: true},
	StageConfirmErrorSaveFailed:       {failure: true},
	StageContentStructureFailed:       {failure: true},
	StageSectionWritingFailed:         {failure: true},
	StageContentIntegrationFailed:     {failure: true},
}

// String implements fmt.Stringer.
func (s Stage) String() string { return string(s) }

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stages[s]
	return ok
}

// IsFailure reports whether s is a terminal failure stage. Recovery from a
// failure stage requires the caller to retry the triggering operation.
func (s Stage) IsFailure() bool { return stages[s].failure }

// RequiresOutline reports whether a project in stage s must carry a current
// outline.
func (s Stage) RequiresOutline() bool { return stages[s].requireOutline }
