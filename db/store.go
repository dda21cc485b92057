package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/padraicbc/racefeat/format"
	"github.com/padraicbc/racefeat/models"
	"github.com/padraicbc/racefeat/racekey"
	"github.com/padraicbc/racefeat/table"
)

const batchSize = 500

// bulkInsert inserts rows in batches of batchSize.
func bulkInsert[T any](ctx context.Context, idb bun.IDB, rows []T) error {
	for lo := 0; lo < len(rows); lo += batchSize {
		batch := rows[lo:min(lo+batchSize, len(rows))]
		if _, err := idb.NewInsert().Model(&batch).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores run and every row of its partitions in one transaction.
func SaveRun(ctx context.Context, db *bun.DB, run *models.Run, parts map[string]*table.Table) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(run).Exec(ctx); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for name, t := range parts {
			if t == nil {
				continue
			}
			if err := bulkInsert(ctx, tx, featureRows(run, name, t)); err != nil {
				return fmt.Errorf("insert %s rows: %w", name, err)
			}
		}
		return nil
	})
}

// SaveRecords replaces the stored records of one data type with t.
func SaveRecords(ctx context.Context, db *bun.DB, dataType string, t *table.Table) (int, error) {
	recs := decodedRecords(dataType, t)
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.DecodedRecord)(nil)).
			Where("data_type = ?", dataType).
			Exec(ctx); err != nil {
			return err
		}
		return bulkInsert(ctx, tx, recs)
	})
	if err != nil {
		return 0, fmt.Errorf("save %s records: %w", dataType, err)
	}
	return len(recs), nil
}

// LoadRecords reads the stored records of def's data type back into a table
// with def's field order.
func LoadRecords(ctx context.Context, db *bun.DB, def *format.Definition) (*table.Table, error) {
	var recs []models.DecodedRecord
	err := db.NewSelect().Model(&recs).
		Where("data_type = ?", def.DataType).
		Order("seq").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s records: %w", def.DataType, err)
	}
	return recordTable(def.FieldNames(), recs), nil
}

func featureRows(run *models.Run, partition string, t *table.Table) []models.FeatureRow {
	rows := make([]models.FeatureRow, t.Len())
	for i := range rows {
		rows[i] = models.FeatureRow{
			RunID:     run.ID,
			Partition: partition,
			Seq:       i,
			RaceKey:   textPtr(t.Get(i, racekey.Column)),
			HorseID:   textPtr(t.Get(i, "horse_id")),
			Values:    values(t, i),
		}
	}
	return rows
}

func decodedRecords(dataType string, t *table.Table) []models.DecodedRecord {
	recs := make([]models.DecodedRecord, t.Len())
	for i := range recs {
		recs[i] = models.DecodedRecord{DataType: dataType, Seq: i, Fields: values(t, i)}
	}
	return recs
}

func recordTable(cols []string, recs []models.DecodedRecord) *table.Table {
	b := table.NewBuilder(cols...)
	for _, r := range recs {
		rec := make(table.Record, len(r.Fields))
		for k, v := range r.Fields {
			rec[k] = table.FromAny(v)
		}
		b.AppendRecord(rec)
	}
	return b.Build()
}

func values(t *table.Table, i int) map[string]any {
	m := make(map[string]any, t.Width())
	for c, name := range t.Columns() {
		m[name] = t.At(i, c).Any()
	}
	return m
}

func textPtr(v table.Value) *string {
	if v.IsMissing() {
		return nil
	}
	s := v.String()
	return &s
}
