package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mydarah/bot/models"
)

// Health reports whether a snapshot is loaded and, when enabled, whether the database answers.
func (s *Server) Health(c echo.Context) error {
	resp := models.HealthResponse{Status: "ok"}
	code := http.StatusOK

	if snap, err := s.deps.Data.Snapshot(); err == nil {
		resp.Snapshot = true
		resp.LoadedAt = snap.LoadedAt
	} else {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	if s.deps.DB != nil {
		resp.Database = "ok"
		if err := s.deps.DB.PingContext(c.Request().Context()); err != nil {
			resp.Database = "error"
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, resp)
}

func (s *Server) ListDatasets(c echo.Context) error {
	snap, err := s.deps.Data.Snapshot()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.DatasetsResponse{LoadedAt: snap.LoadedAt, Datasets: snap.Datasets()})
}

// ForceRefresh reloads every dataset now. A failure leaves the current snapshot in place.
func (s *Server) ForceRefresh(c echo.Context) error {
	if err := s.deps.Data.Refresh(c.Request().Context()); err != nil {
		return fmt.Errorf("failed to refresh datasets: %w", err)
	}
	snap, err := s.deps.Data.Snapshot()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.RefreshResponse{Message: "Datasets refreshed.", Updated: true, LoadedAt: snap.LoadedAt})
}

// CheckAndUpdate reloads only when the catalogue reports newer data.
func (s *Server) CheckAndUpdate(c echo.Context) error {
	updated, err := s.deps.Data.UpdateIfNeeded(c.Request().Context())
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	resp := models.RefreshResponse{Message: "Datasets are up to date.", Updated: updated}
	if updated {
		resp.Message = "Datasets refreshed."
	}
	if snap, err := s.deps.Data.Snapshot(); err == nil {
		resp.LoadedAt = snap.LoadedAt
	}
	return c.JSON(http.StatusOK, resp)
}

// ListVersions returns the download log. It needs the database.
func (s *Server) ListVersions(c echo.Context) error {
	if s.deps.Versions == nil {
		return echo.NewHTTPError(http.StatusNotFound, "source version log is disabled")
	}
	versions, err := s.deps.Versions.ListVersions(c.Request().Context())
	if err != nil {
		return err
	}
	if versions == nil {
		versions = []models.DataSourceVersion{}
	}
	return c.JSON(http.StatusOK, versions)
}

