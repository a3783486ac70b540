package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/takopi/backend/internal/middleware"
	"github.com/takopi/backend/internal/repositories"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 50
)

// getUserIDFromContext returns the authenticated user's ID, or 0 for anonymous requests.
func getUserIDFromContext(c echo.Context) uint {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return 0
	}
	return claims.UserID
}

func requireUserID(c echo.Context) (uint, error) {
	id := getUserIDFromContext(c)
	if id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return id, nil
}

func parseUserIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	return uint(id), nil
}

type pagination struct {
	Page  int
	Limit int
}

func (p pagination) Skip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// parsePagination reads page and limit, falling back to defaults for missing or out-of-range values.
func parsePagination(c echo.Context, defaultLimit int) pagination {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return pagination{Page: page, Limit: limit}
}

func pageMeta(p pagination, total int64) echo.Map {
	totalPages := int(math.Ceil(float64(total) / float64(p.Limit)))
	return echo.Map{
		"currentPage":     p.Page,
		"totalPages":      totalPages,
		"totalItems":      total,
		"itemsPerPage":    p.Limit,
		"hasNextPage":     p.Page < totalPages,
		"hasPreviousPage": p.Page > 1,
	}
}

func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func successPage(c echo.Context, data interface{}, p pagination, total int64) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    data,
		"meta":    pageMeta(p, total),
	})
}

// repoError converts repository sentinels into HTTP errors. notFound is the message used for ErrNotFound.
func repoError(err error, notFound string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	case errors.Is(err, repositories.ErrInvalidID):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid ID")
	case errors.Is(err, repositories.ErrDuplicate), errors.Is(err, repositories.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return internalError(err)
	}
}

func internalError(err error) error {
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
}

// HTTPErrorHandler renders every error as {"success": false, "error": "..."}.
func HTTPErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "Internal server error"
		cause := err

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprint(he.Message)
			if he.Internal != nil {
				cause = he.Internal
			}
		}

		if code >= http.StatusInternalServerError {
			log.WithError(cause).WithFields(logrus.Fields{
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"path":       c.Path(),
			}).Error("request error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"success": false, "error": msg})
		}
		if err != nil {
			log.WithError(err).Warn("failed to write error response")
		}
	}
}
