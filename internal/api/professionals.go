package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"agenda/internal/models"

	"github.com/gin-gonic/gin"
)

type validateIDRequest struct {
	ProfessionalID string `json:"id_profissional"`
}

type validateIDResponse struct {
	Valid        bool                 `json:"valid"`
	Professional *professionalPayload `json:"profissional,omitempty"`
	Message      string               `json:"message"`
}

// professionalPayload leaves the credit balance out of public lookups.
type professionalPayload struct {
	ID    string `json:"id_profissional"`
	Name  string `json:"nome"`
	Title string `json:"status_tratamento"`
}

type seedProfessionalsRequest struct {
	Professionals []models.Professional `json:"profissionais"`
}

// POST /api/validate-id
func (s *Server) handleValidateID(c *gin.Context) {
	var req validateIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "expected JSON body with id_profissional")
		return
	}

	found, p, err := s.directory.Validate(c.Request.Context(), req.ProfessionalID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, validateIDResponse{Valid: false, Message: "ID não encontrada"})
		return
	}
	c.JSON(http.StatusOK, validateIDResponse{
		Valid:        true,
		Professional: &professionalPayload{ID: p.ID, Name: p.Name, Title: p.Title},
		Message:      "ID válida",
	})
}

// POST /api/seed-profissionais
// The body is optional; without one the default directory is seeded.
func (s *Server) handleSeedProfessionals(c *gin.Context) {
	var req seedProfessionalsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "expected JSON body with profissionais")
		return
	}

	n, err := s.directory.Seed(c.Request.Context(), req.Professionals)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d profissionais inseridos com sucesso", n),
		"total":   n,
	})
}

// GET /api/profissionais
// Balances are left out; use the single lookup for credit.
func (s *Server) handleListProfessionals(c *gin.Context) {
	list, err := s.directory.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]professionalPayload, 0, len(list))
	for _, p := range list {
		out = append(out, professionalPayload{ID: p.ID, Name: p.Name, Title: p.Title})
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/profissionais/:id
func (s *Server) handleGetProfessional(c *gin.Context) {
	p, err := s.directory.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
