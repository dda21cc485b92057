package main

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/padraicbc/racefeat/features"
	"github.com/padraicbc/racefeat/pipeline"
	"github.com/padraicbc/racefeat/racekey"
	"github.com/padraicbc/racefeat/table"
)

func TestRunModelRecordsEffectiveSettings(t *testing.T) {
	res := &pipeline.Result{
		RunID: uuid.New(),
		Plan:  pipeline.SplitPlan{TestFrom: time.Date(2024, 1, 20, 0, 0, 0, 0, racekey.JST)},
		Train: table.Empty(racekey.Column),
		Test:  table.Empty(racekey.Column),
	}
	tests := []struct {
		name           string
		slots, workers int
		wantSlots      int
		wantWorkers    int
	}{
		{"flags unset", 0, 0, features.DefaultSlots, 1},
		{"negative workers", 3, -2, 3, 1},
		{"explicit", 7, 4, 7, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := features.New(features.WithSlots(tt.slots), features.WithWorkers(tt.workers))
			run := runModel(res, ext, nil)
			if run.Slots != tt.wantSlots || run.Workers != tt.wantWorkers {
				t.Errorf("slots, workers = %d, %d, want %d, %d", run.Slots, run.Workers, tt.wantSlots, tt.wantWorkers)
			}
			if run.ValidFrom != nil {
				t.Errorf("ValidFrom = %v, want nil", run.ValidFrom)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b ,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("splitList = %q", got)
	}
}
