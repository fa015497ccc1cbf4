package cases

import "slices"

var pipelines = map[Mode][]Stage{
	ModeInteractive: {
		StageExtracted,
		StageReferencesFetched,
		StageKnowledgeRetrieved,
		StageRejectionsResponded,
	},
	ModeSinglePass: {
		StageExtracted,
		StageReferencesFetched,
		StageKnowledgeRetrieved,
		StageStrategyPlanned,
		StageStrategyExecuted,
		StageDraftGenerated,
	},
}

// Pipeline returns the stages a case of the given mode passes through, in order.
func Pipeline(mode Mode) []Stage {
	return slices.Clone(pipelines[mode])
}

// Remaining returns the stages still to run for a case of the given mode
// that has completed stage. It is empty once the pipeline is finished or
// the case has moved past it.
func Remaining(mode Mode, stage Stage) []Stage {
	stages := pipelines[mode]
	if stage == StageUploaded {
		return slices.Clone(stages)
	}

	i := slices.Index(stages, stage)
	if i < 0 {
		return nil
	}
	return slices.Clone(stages[i+1:])
}

// finalStatus is the status a case takes when its pipeline completes.
func finalStatus(mode Mode) Status {
	if mode == ModeSinglePass {
		return StatusComplete
	}
	return StatusReady
}
