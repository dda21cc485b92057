package models

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FeatureRow is one output row of a run. Seq keeps the row order within
// its partition; Values holds every column, including race_key.
type FeatureRow struct {
	bun.BaseModel `bun:"table:feature_rows,alias:fr"`

	ID        int64          `bun:"id,pk,autoincrement" json:"-"`
	RunID     uuid.UUID      `bun:"run_id,type:uuid,notnull" json:"runID"`
	Partition string         `bun:"partition,notnull" json:"partition"`
	Seq       int            `bun:"seq,notnull" json:"seq"`
	RaceKey   *string        `bun:"race_key" json:"raceKey,omitempty"`
	HorseID   *string        `bun:"horse_id" json:"horseID,omitempty"`
	Values    map[string]any `bun:"data,type:jsonb" json:"values"`
}
