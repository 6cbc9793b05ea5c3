package stubapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cuemby/pipectl/pkg/storage"
	"github.com/labstack/echo/v4"
)

// Response is the envelope every API answer is wrapped in
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: "success", Data: data})
}

func created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, Response{Code: http.StatusCreated, Message: "created", Data: data})
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

func notFound(kind, id string) error {
	return echo.NewHTTPError(http.StatusNotFound, kind+" "+id+" not found")
}

// storeError maps storage failures onto HTTP errors
func storeError(kind, id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return notFound(kind, id)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
}

// errorHandler renders every error in the response envelope
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		default:
			msg = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("Request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, Response{Code: code, Message: msg})
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to write error response")
	}
}

// page is the pagination window requested by a list call
type page struct {
	num  int
	size int
}

const (
	defaultPageSize = 10
	maxPageSize     = 1000
)

// pageParams reads a 1-based page number and a page size from the query.
// numKey differs between resources ("pageNum" or "page").
func pageParams(c echo.Context, numKey string) (page, error) {
	p := page{num: 1, size: defaultPageSize}
	if v := c.QueryParam(numKey); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, badRequest(numKey + " must be a positive integer")
		}
		p.num = n
	}
	if v := c.QueryParam("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, badRequest("pageSize must be a positive integer")
		}
		p.size = min(n, maxPageSize)
	}
	return p, nil
}

// slice returns the rows of items that fall on page p
func slice[T any](items []T, p page) []T {
	start := (p.num - 1) * p.size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.size, len(items))
	return items[start:end]
}
