package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"agenda/internal/booking"
	"agenda/internal/models"
	"agenda/internal/report"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createReservationsRequest struct {
	Reservations []models.ReservationRequest `json:"reservas"`
}

type createReservationsResponse struct {
	Message        string                `json:"message"`
	Total          int                   `json:"total"`
	IDs            []string              `json:"ids"`
	Reservations   []models.Reservation  `json:"reservas"`
	Synced         int                   `json:"google_calendar_synced"`
	EventIDs       []string              `json:"event_ids"`
	CalendarErrors []booking.ItemFailure `json:"falhas_calendario"`
	PersistErrors  []booking.ItemFailure `json:"falhas_gravacao,omitempty"`
}

type cancelReservationResponse struct {
	Success           bool         `json:"success"`
	Message           string       `json:"message"`
	CreditGranted     models.Money `json:"credito_gerado"`
	CreditError       string       `json:"erro_credito,omitempty"`
	CancelledDate     string       `json:"data_cancelamento"`
	CancelledTime     string       `json:"hora_cancelamento"`
	CalendarAttempted bool         `json:"google_calendar_attempted"`
	CalendarDeleted   bool         `json:"google_calendar_deleted"`
}

// GET /api/reservas?mes=&ano=
func (s *Server) handleListByMonth(c *gin.Context) {
	month, year, ok := monthQuery(c)
	if !ok {
		return
	}
	list, err := s.bookings.ListByMonth(c.Request.Context(), month, year, includeCancelled(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

// GET /api/reservas-por-data?data=
func (s *Server) handleListByDate(c *gin.Context) {
	date := c.Query("data")
	if date == "" {
		badRequest(c, "query parameter data is required")
		return
	}
	list, err := s.bookings.ListByDate(c.Request.Context(), date, includeCancelled(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

// GET /api/reservas/export?mes=&ano=
// Cancelled reservations are always part of the export.
func (s *Server) handleExport(c *gin.Context) {
	month, year, ok := monthQuery(c)
	if !ok {
		return
	}
	list, err := s.bookings.ListByMonth(c.Request.Context(), month, year, true)
	if err != nil {
		s.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteMonthly(&buf, month, year, list); err != nil {
		s.respondError(c, fmt.Errorf("build export: %w", err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(month, year)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// POST /api/reservas
func (s *Server) handleCreateReservations(c *gin.Context) {
	var req createReservationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "expected JSON body with reservas")
		return
	}

	res, err := s.bookings.Submit(c.Request.Context(), req.Reservations)
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp := createReservationsResponse{
		Message:        fmt.Sprintf("%d reserva(s) criada(s) com sucesso", res.Created),
		Total:          res.Created,
		IDs:            make([]string, 0, len(res.Reservations)),
		Reservations:   nonNil(res.Reservations),
		Synced:         res.SyncedCount,
		EventIDs:       res.EventIDs,
		CalendarErrors: []booking.ItemFailure{},
	}
	for _, r := range res.Reservations {
		resp.IDs = append(resp.IDs, r.ID)
	}
	for _, f := range res.Failures {
		if f.Stage == booking.StageCalendar {
			resp.CalendarErrors = append(resp.CalendarErrors, f)
			continue
		}
		resp.PersistErrors = append(resp.PersistErrors, f)
	}

	if res.Created == 0 && len(resp.PersistErrors) > 0 {
		s.respondError(c, resp.PersistErrors[0].Err())
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// DELETE /api/reservas/:id
func (s *Server) handleCancelReservation(c *gin.Context) {
	res, err := s.bookings.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	message := "Reserva cancelada com sucesso"
	if res.CreditGranted > 0 {
		message = fmt.Sprintf("Reserva cancelada com sucesso. Crédito de R$ %s gerado", res.CreditGranted)
	}
	c.JSON(http.StatusOK, cancelReservationResponse{
		Success:           true,
		Message:           message,
		CreditGranted:     res.CreditGranted,
		CreditError:       res.CreditError,
		CancelledDate:     res.CancelledDate,
		CancelledTime:     res.CancelledTime,
		CalendarAttempted: res.CalendarAttempted,
		CalendarDeleted:   res.CalendarDeleted,
	})
}

// DELETE /api/reservas
func (s *Server) handleWipeReservations(c *gin.Context) {
	res, err := s.bookings.WipeAll(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":                   fmt.Sprintf("%d reservas removidas", res.Deleted),
		"deleted":                   res.Deleted,
		"google_calendar_deleted":   res.Calendar.Deleted,
		"google_calendar_not_found": res.Calendar.NotFound,
		"google_calendar_failed":    len(res.Calendar.Failed),
	})
}

// POST /api/seed-reservas
func (s *Server) handleSeedReservations(c *gin.Context) {
	n, err := s.bookings.SeedDemo(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	message := fmt.Sprintf("%d reservas de demonstração criadas", n)
	if n == 0 {
		message = "Reservas já existem, nada a fazer"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "total": n})
}

func monthQuery(c *gin.Context) (month, year int, ok bool) {
	month, errMonth := strconv.Atoi(c.Query("mes"))
	year, errYear := strconv.Atoi(c.Query("ano"))
	if err := errors.Join(errMonth, errYear); err != nil {
		badRequest(c, "query parameters mes and ano must be integers")
		return 0, 0, false
	}
	return month, year, true
}

func includeCancelled(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.DefaultQuery("incluir_canceladas", "false"))
	return err == nil && v
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
