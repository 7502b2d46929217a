package api

import (
	"context"
	"errors"
	"net/http"

	"agenda/internal/booking"
	"agenda/internal/calendar"
	"agenda/internal/database"
	"agenda/internal/directory"

	"github.com/gin-gonic/gin"
)

func errorResponse(code, message string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": message}}
}

// respondError maps domain errors to a status and a JSON error body.
func (s *Server) respondError(c *gin.Context, err error) {
	var (
		validation *booking.ValidationError
		conflict   *booking.ConflictError
		upstream   *calendar.UpstreamError
	)
	switch {
	case errors.As(err, &validation):
		body := gin.H{"code": "validation_error", "message": validation.Error(), "field": validation.Field}
		if validation.Index >= 0 {
			body["index"] = validation.Index
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": body})
	case errors.As(err, &conflict):
		body := gin.H{"code": "conflict", "message": conflict.Error(), "index": conflict.Index}
		if conflict.ExistingID != "" {
			body["existing_id"] = conflict.ExistingID
		}
		c.JSON(http.StatusConflict, gin.H{"error": body})
	case errors.Is(err, database.ErrSlotTaken):
		c.JSON(http.StatusConflict, errorResponse("conflict", err.Error()))
	case errors.Is(err, booking.ErrReservationCancelled):
		c.JSON(http.StatusConflict, errorResponse("already_cancelled", "Reserva já cancelada"))
	case errors.Is(err, database.ErrReservationNotFound):
		c.JSON(http.StatusNotFound, errorResponse("not_found", "Reserva não encontrada"))
	case errors.Is(err, database.ErrProfessionalNotFound):
		c.JSON(http.StatusNotFound, errorResponse("not_found", "Profissional não encontrado"))
	case errors.Is(err, directory.ErrInvalidProfessional), errors.Is(err, directory.ErrInvalidAmount):
		c.JSON(http.StatusUnprocessableEntity, errorResponse("validation_error", err.Error()))
	case errors.Is(err, calendar.ErrInvalidCredentials):
		c.JSON(http.StatusUnprocessableEntity, errorResponse("invalid_credentials", err.Error()))
	case errors.Is(err, calendar.ErrInvalidState):
		c.JSON(http.StatusBadRequest, errorResponse("invalid_state", err.Error()))
	case errors.Is(err, calendar.ErrAuth):
		c.JSON(http.StatusBadGateway, errorResponse("calendar_auth", err.Error()))
	case errors.As(err, &upstream):
		c.JSON(http.StatusBadGateway, errorResponse("calendar_upstream", upstream.Error()))
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request timed out")
		c.JSON(http.StatusGatewayTimeout, errorResponse("timeout", "request timed out"))
	default:
		s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", err.Error()))
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse("bad_request", message))
}
