// Package api serves patient metrics and risk assessments over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/gyeh/nephtrends/internal/assess"
	"github.com/gyeh/nephtrends/internal/model"
	"github.com/gyeh/nephtrends/internal/store"
)

// PatientStore is the subset of the registry the handlers need.
type PatientStore interface {
	GetPatient(ctx context.Context, id string) (*model.PatientRecord, string, error)
	SaveAssessment(ctx context.Context, a *model.Assessment, sha string) (uuid.UUID, error)
}

// Pinger reports database reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies shared by every route.
type Handler struct {
	store    PatientStore
	assessor *assess.Assessor
	cache    *assess.Cache
	db       Pinger
	now      func() time.Time
}

// NewHandler wires the handlers. db may be nil when no database is configured.
func NewHandler(st PatientStore, a *assess.Assessor, cache *assess.Cache, db Pinger) *Handler {
	if cache == nil {
		cache = assess.NewCache(a, 0)
	}
	return &Handler{store: st, assessor: a, cache: cache, db: db, now: time.Now}
}

type metricsResponse struct {
	PatientID string                  `json:"patientId"`
	AsOf      time.Time               `json:"asOf"`
	Metrics   model.ResolvedMetricSet `json:"metrics"`
}

type assessmentResponse struct {
	model.Assessment
	SavedID *uuid.UUID `json:"savedId,omitempty"`
}

// RegisterRoutes mounts the API on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.handleHealth)

	v1 := e.Group("/v1")
	v1.POST("/assessments", h.handleAssessDocument)
	v1.GET("/patients/:id/metrics", h.handlePatientMetrics)
	v1.GET("/patients/:id/assessment", h.handlePatientAssessment)
}

// NewServer builds an echo instance with the standard middleware and routes.
func NewServer(logger zerolog.Logger, h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(Recovery(logger))
	e.Use(echomw.RequestID())
	e.Use(RequestLogger(logger))
	e.Use(echomw.BodyLimit("10M"))

	h.RegisterRoutes(e)
	return e
}

func (h *Handler) handleHealth(c echo.Context) error {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
	}
	hits, misses := h.cache.Stats()
	return c.JSON(http.StatusOK, map[string]any{
		"status":       "ok",
		"cache_hits":   hits,
		"cache_misses": misses,
	})
}

func (h *Handler) asOf(c echo.Context) (time.Time, error) {
	t, err := assess.ParseAsOf(c.QueryParam("as_of"), h.now())
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return t, nil
}

// handleAssessDocument scores a patient document posted in the body without
// touching the registry.
func (h *Handler) handleAssessDocument(c echo.Context) error {
	asOf, err := h.asOf(c)
	if err != nil {
		return err
	}
	var rec model.PatientRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient document")
	}
	if rec.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}
	return c.JSON(http.StatusOK, h.cache.Assess(c.Request().Context(), &rec, asOf))
}

func (h *Handler) loadPatient(c echo.Context) (*model.PatientRecord, string, error) {
	if h.store == nil {
		return nil, "", echo.NewHTTPError(http.StatusServiceUnavailable, "patient registry not configured")
	}
	rec, sha, err := h.store.GetPatient(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return nil, "", err
	}
	return rec, sha, nil
}

func (h *Handler) handlePatientMetrics(c echo.Context) error {
	asOf, err := h.asOf(c)
	if err != nil {
		return err
	}
	rec, _, err := h.loadPatient(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, metricsResponse{
		PatientID: rec.ID,
		AsOf:      asOf,
		Metrics:   h.assessor.Metrics(rec, asOf),
	})
}

// handlePatientAssessment scores a stored patient. save=true persists the
// result to the assessment history.
func (h *Handler) handlePatientAssessment(c echo.Context) error {
	asOf, err := h.asOf(c)
	if err != nil {
		return err
	}
	rec, sha, err := h.loadPatient(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	resp := assessmentResponse{Assessment: h.cache.Assess(ctx, rec, asOf)}

	if c.QueryParam("save") == "true" {
		id, err := h.store.SaveAssessment(ctx, &resp.Assessment, sha)
		if err != nil {
			return err
		}
		resp.SavedID = &id
		zerolog.Ctx(ctx).Info().
			Str("patient_id", rec.ID).
			Str("assessment_id", id.String()).
			Msg("assessment saved")
	}
	return c.JSON(http.StatusOK, resp)
}
