package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mydarah/bot/models"
)

const (
	HeaderFreshness   = "X-Report-Freshness"
	HeaderExplanation = "X-Report-Explanation"
)

// GetReport renders one report. The default response is the PNG with both captions in
// headers; ?format=json returns the captions and the aggregated data instead.
func (s *Server) GetReport(c echo.Context) error {
	report, err := s.deps.Reports.Generate(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}

	if c.QueryParam("format") == "json" {
		return c.JSON(http.StatusOK, models.ReportResponse{
			Name:        report.Name,
			Filename:    report.Filename,
			Freshness:   report.Freshness,
			Explanation: report.Explanation,
			Data:        report.Data,
		})
	}

	h := c.Response().Header()
	h.Set(HeaderFreshness, report.Freshness)
	h.Set(HeaderExplanation, report.Explanation)
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", report.Filename))
	return c.Blob(http.StatusOK, "image/png", report.Image)
}
