package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mydarah/bot/constants"
	"github.com/mydarah/bot/logger"
	"github.com/mydarah/bot/models"
)

func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	msg := err.Error()
	code := constants.StatusCode(err)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	ctx := c.Request().Context()
	if code >= http.StatusInternalServerError {
		logger.Errorf(ctx, "API: %s %s failed: %v", c.Request().Method, c.Path(), err)
	} else {
		logger.Warnf(ctx, "API: %s %s: %v", c.Request().Method, c.Path(), err)
	}

	_ = c.JSON(code, models.ErrorResponse{
		Message: msg,
		Code:    code,
	})
}
