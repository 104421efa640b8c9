package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khanglvm/recordbook/internal/generate"
	"github.com/khanglvm/recordbook/internal/search"
	"github.com/khanglvm/recordbook/internal/store"
	"github.com/khanglvm/recordbook/internal/taxonomy"
)

// Error codes in the error envelope.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeInvalidTaxonomy    = "invalid_taxonomy"
	CodeEmptyRecord        = "empty_record"
	CodeNoTargets          = "no_targets"
	CodeEmptyQuery         = "empty_query"
	CodeStorageUnavailable = "storage_unavailable"
	CodeInternal           = "internal"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondErr maps domain errors to a status and code.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrStorageUnavailable):
		RespondError(c, http.StatusServiceUnavailable, CodeStorageUnavailable, err)
	case errors.Is(err, taxonomy.ErrUnknownCategory),
		errors.Is(err, taxonomy.ErrUnknownSubCategory),
		errors.Is(err, taxonomy.ErrUnknownPoint),
		errors.Is(err, taxonomy.ErrExampleIndex),
		errors.Is(err, taxonomy.ErrUnknownStyle):
		RespondError(c, http.StatusBadRequest, CodeInvalidTaxonomy, err)
	case errors.Is(err, generate.ErrNoTargets):
		RespondError(c, http.StatusBadRequest, CodeNoTargets, err)
	case errors.Is(err, search.ErrEmptyQuery):
		RespondError(c, http.StatusBadRequest, CodeEmptyQuery, err)
	default:
		RespondError(c, http.StatusInternalServerError, CodeInternal, err)
	}
}
