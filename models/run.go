package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Run records one feature build: its cutoffs and how many rows landed in
// each partition.
type Run struct {
	bun.BaseModel `bun:"table:runs,alias:rn"`

	ID        uuid.UUID      `bun:"id,pk,type:uuid" json:"id"`
	CreatedAt time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	ValidFrom *time.Time     `bun:"valid_from" json:"validFrom,omitempty"`
	TestFrom  time.Time      `bun:"test_from,notnull" json:"testFrom"`
	Slots     int            `bun:"slots,notnull" json:"slots"`
	Workers   int            `bun:"workers,notnull" json:"workers"`
	Columns   []string       `bun:"columns,array" json:"columns"`
	TrainRows int            `bun:"train_rows,notnull" json:"trainRows"`
	ValidRows int            `bun:"valid_rows,notnull" json:"validRows"`
	TestRows  int            `bun:"test_rows,notnull" json:"testRows"`
	Stats     map[string]any `bun:"stats,type:jsonb" json:"stats,omitempty"`
}
