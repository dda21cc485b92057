package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/padraicbc/racefeat/models"
	"github.com/padraicbc/racefeat/split"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
	formLimit    = 8
)

type rowJSON struct {
	Partition string         `json:"partition"`
	Seq       int            `json:"seq"`
	RaceKey   *string        `json:"raceKey,omitempty"`
	HorseID   *string        `json:"horseID,omitempty"`
	Values    map[string]any `json:"values"`
}

type rowsJSON struct {
	RunID   uuid.UUID `json:"runID"`
	Columns []string  `json:"columns"`
	Offset  int       `json:"offset"`
	Rows    []rowJSON `json:"rows"`
}

// ListRuns returns the most recent feature builds, newest first.
func (h *Handler) ListRuns(c echo.Context) error {
	limit, _, err := paging(c, 50)
	if err != nil {
		return err
	}
	var runs []models.Run
	err = h.db.NewSelect().Model(&runs).
		ExcludeColumn("stats").
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, runs)
}

// GetRun returns one run including its stage statistics.
func (h *Handler) GetRun(c echo.Context) error {
	run, err := h.run(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run)
}

// RunRows pages through the rows of a run, optionally restricted to one
// partition or one race.
func (h *Handler) RunRows(c echo.Context) error {
	run, err := h.run(c)
	if err != nil {
		return err
	}
	limit, offset, err := paging(c, defaultLimit)
	if err != nil {
		return err
	}

	q := h.db.NewSelect().Model((*models.FeatureRow)(nil)).
		Where("run_id = ?", run.ID)
	if p := c.QueryParam("partition"); p != "" {
		if !validPartition(p) {
			return echo.NewHTTPError(http.StatusBadRequest, "partition must be train, valid or test")
		}
		q = q.Where("partition = ?", p)
	}
	if rk := c.QueryParam("race_key"); rk != "" {
		q = q.Where("race_key = ?", rk)
	}

	var rows []models.FeatureRow
	err = q.OrderExpr("partition, seq").Limit(limit).Offset(offset).
		Scan(c.Request().Context(), &rows)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, rowsJSON{
		RunID:   run.ID,
		Columns: run.Columns,
		Offset:  offset,
		Rows:    toRowsJSON(rows),
	})
}

// Form returns the latest rows of a run for one horse, most recent race
// first.
func (h *Handler) Form(c echo.Context) error {
	run, err := h.run(c)
	if err != nil {
		return err
	}
	horseID := c.QueryParam("horse_id")
	if horseID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing horse_id param")
	}

	var rows []models.FeatureRow
	err = h.db.NewSelect().Model(&rows).
		Where("run_id = ?", run.ID).
		Where("horse_id = ?", horseID).
		OrderExpr("race_key DESC NULLS LAST").
		Limit(formLimit).
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toRowsJSON(rows))
}

func (h *Handler) run(c echo.Context) (*models.Run, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid run id")
	}
	run := &models.Run{}
	err = h.db.NewSelect().Model(run).Where("id = ?", id).Scan(c.Request().Context())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return run, nil
}

func paging(c echo.Context, def int) (limit, offset int, err error) {
	limit, offset = def, 0
	if v := c.QueryParam("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(limit, maxLimit)
	}
	if v := c.QueryParam("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

func validPartition(p string) bool {
	switch p {
	case split.Train, split.Valid, split.Test:
		return true
	}
	return false
}

func toRowsJSON(rows []models.FeatureRow) []rowJSON {
	out := make([]rowJSON, len(rows))
	for i, r := range rows {
		out[i] = rowJSON{
			Partition: r.Partition,
			Seq:       r.Seq,
			RaceKey:   r.RaceKey,
			HorseID:   r.HorseID,
			Values:    r.Values,
		}
	}
	return out
}
