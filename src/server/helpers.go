package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"yield-dashboard/src/helpers"
	"yield-dashboard/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, helpers.ErrInvalidRequest),
		errors.Is(err, helpers.ErrNegativeContribution),
		errors.Is(err, helpers.ErrUnknownSymbol):
		return http.StatusBadRequest
	case errors.Is(err, helpers.ErrEmptySeries):
		return http.StatusNotFound
	case errors.Is(err, helpers.ErrDivisionByZero):
		return http.StatusUnprocessableEntity
	case errors.Is(err, helpers.ErrDataUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// -----------------------------------------------------------------------------

func writeError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{
		"error": err.Error(),
		"code":  helpers.ErrorCode(err),
	})
}

// -----------------------------------------------------------------------------

// requestError marks a binding failure as a client mistake.
func requestError(err error) error {
	return helpers.NewValidationError(err)
}

// -----------------------------------------------------------------------------

// commandRequest turns a websocket compute command into a dashboard request.
func commandRequest(cmd models.MClientCommand) (models.MDashboardRequest, error) {
	start, err := time.Parse(time.DateOnly, cmd.Start)
	if err != nil {
		return models.MDashboardRequest{}, helpers.NewValidationError(fmt.Errorf("start: %w", err))
	}
	end, err := time.Parse(time.DateOnly, cmd.End)
	if err != nil {
		return models.MDashboardRequest{}, helpers.NewValidationError(fmt.Errorf("end: %w", err))
	}
	return models.MDashboardRequest{
		Symbol:       cmd.Symbol,
		Start:        start,
		End:          end,
		Contribution: cmd.Contribution,
	}, nil
}

// -----------------------------------------------------------------------------

func errorMessage(err error) *models.MServerMessage {
	return &models.MServerMessage{
		Type:      models.MessageError,
		Error:     err.Error(),
		Code:      helpers.ErrorCode(err),
		Timestamp: time.Now().Unix(),
	}
}

// -----------------------------------------------------------------------------

func symbolsMessage(symbols []string) *models.MServerMessage {
	return &models.MServerMessage{
		Type:      models.MessageSymbols,
		Symbols:   symbols,
		Timestamp: time.Now().Unix(),
	}
}
