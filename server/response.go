package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/invoicer/database/query"
	apperrors "github.com/kbukum/invoicer/errors"
	"github.com/kbukum/invoicer/logger"
)

// Body is the envelope of every successful JSON response. Meta is set on
// list endpoints only.
type Body struct {
	Data any               `json:"data"`
	Meta *query.Pagination `json:"meta,omitempty"`
}

func OK(c *gin.Context, data any)      { c.JSON(http.StatusOK, Body{Data: data}) }
func Created(c *gin.Context, data any) { c.JSON(http.StatusCreated, Body{Data: data}) }

// Page writes one page of a list. An empty page encodes as [] rather
// than null.
func Page[T any](c *gin.Context, r *query.Result[T]) {
	data := r.Data
	if data == nil {
		data = []T{}
	}
	c.JSON(http.StatusOK, Body{Data: data, Meta: &r.Pagination})
}

// Fail aborts the chain with the error body of err. Errors that are not
// AppErrors become a generic 500, and every 5xx is logged with its cause,
// which the client never sees.
func Fail(c *gin.Context, err error) {
	e := apperrors.Wrap(err)
	if e.HTTPStatus >= http.StatusInternalServerError {
		fields := logger.Fields(
			"code", string(e.Code),
			logger.FieldMethod, c.Request.Method,
			logger.FieldPath, c.Request.URL.Path,
		)
		if e.Cause != nil {
			fields[logger.FieldError] = e.Cause.Error()
		}
		logger.GetGlobalLogger().WithContext(c.Request.Context()).Error("Request failed", fields)
	}
	c.AbortWithStatusJSON(e.HTTPStatus, e.ToResponse())
}
