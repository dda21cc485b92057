package models

import "github.com/uptrace/bun"

// DecodedRecord is one decoded fixed-width record kept so later builds can
// skip decoding. Missing fields are stored as JSON null.
type DecodedRecord struct {
	bun.BaseModel `bun:"table:decoded_records,alias:dr"`

	ID       int64          `bun:"id,pk,autoincrement" json:"-"`
	DataType string         `bun:"data_type,notnull" json:"dataType"`
	Seq      int            `bun:"seq,notnull" json:"seq"`
	Fields   map[string]any `bun:"fields,type:jsonb" json:"fields"`
}
