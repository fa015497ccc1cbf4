package cases_test

import (
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/internal/cases"
)

func TestRemaining(t *testing.T) {
	tests := []struct {
		name  string
		mode  cases.Mode
		stage cases.Stage
		want  []cases.Stage
	}{
		{
			"interactive from upload", cases.ModeInteractive, cases.StageUploaded,
			[]cases.Stage{cases.StageExtracted, cases.StageReferencesFetched, cases.StageKnowledgeRetrieved, cases.StageRejectionsResponded},
		},
		{
			"interactive resume", cases.ModeInteractive, cases.StageReferencesFetched,
			[]cases.Stage{cases.StageKnowledgeRetrieved, cases.StageRejectionsResponded},
		},
		{"interactive done", cases.ModeInteractive, cases.StageRejectionsResponded, []cases.Stage{}},
		{"interactive after draft", cases.ModeInteractive, cases.StageDraftGenerated, nil},
		{
			"single pass resume", cases.ModeSinglePass, cases.StageKnowledgeRetrieved,
			[]cases.Stage{cases.StageStrategyPlanned, cases.StageStrategyExecuted, cases.StageDraftGenerated},
		},
		{"single pass done", cases.ModeSinglePass, cases.StageDraftGenerated, []cases.Stage{}},
		{"unknown mode", "batch", cases.StageUploaded, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cases.Remaining(tt.mode, tt.stage)
			if len(got) != len(tt.want) || !slices.Equal(got, tt.want) {
				t.Errorf("Remaining(%s, %s) = %v, want %v", tt.mode, tt.stage, got, tt.want)
			}
		})
	}
}

func TestPipelineIsCopy(t *testing.T) {
	p := cases.Pipeline(cases.ModeInteractive)
	p[0] = cases.StageDraftGenerated

	if cases.Pipeline(cases.ModeInteractive)[0] != cases.StageExtracted {
		t.Error("Pipeline exposes its backing slice")
	}
}

func TestProgress(t *testing.T) {
	p := cases.NewProgress(time.Minute)
	id := uuid.New()

	if p.Events(id) != nil {
		t.Fatal("events before any run")
	}

	p.Reset(id)
	p.Append(id, cases.Event{Type: cases.EventStageStarted})
	p.Append(id, cases.Event{Type: cases.EventStageCompleted})

	events := p.Events(id)
	if len(events) != 2 || events[1].Type != cases.EventStageCompleted {
		t.Fatalf("events = %+v", events)
	}

	events[0].Type = cases.EventFailed
	if p.Events(id)[0].Type != cases.EventStageStarted {
		t.Error("Events exposes the stored log")
	}

	p.Reset(id)
	if got := p.Events(id); len(got) != 0 {
		t.Errorf("events after reset = %+v", got)
	}

	p.Forget(id)
	if p.Events(id) != nil {
		t.Error("events after forget")
	}
}

func TestProgressExpires(t *testing.T) {
	p := cases.NewProgress(20 * time.Millisecond)
	id := uuid.New()
	p.Append(id, cases.Event{Type: cases.EventCompleted})

	time.Sleep(40 * time.Millisecond)
	if p.Events(id) != nil {
		t.Error("log did not expire")
	}
}
