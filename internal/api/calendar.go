package api

import (
	"io"
	"net/http"

	"agenda/internal/calendar"
	"agenda/internal/config"

	"github.com/gin-gonic/gin"
)

const maxCredentialBytes = 64 << 10

// POST /api/calendar/config
// The body is the raw service-account JSON.
func (s *Server) handleCalendarConfig(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCredentialBytes+1))
	if err != nil {
		badRequest(c, "could not read body")
		return
	}
	if len(data) > maxCredentialBytes {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse("too_large", "credential file too large"))
		return
	}

	key, err := calendar.SaveServiceAccount(s.opts.CredentialsPath, data)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.logger.Info().Str("client_email", key.ClientEmail).Str("project_id", key.ProjectID).Msg("calendar credentials updated")
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Credenciais do Google Calendar configuradas com sucesso",
		"client_email": key.ClientEmail,
		"project_id":   key.ProjectID,
	})
}

// GET /api/calendar/status
func (s *Server) handleCalendarStatus(c *gin.Context) {
	body := gin.H{
		"enabled":     s.opts.CalendarEnabled,
		"auth_mode":   s.opts.CalendarAuthMode,
		"calendar_id": s.opts.CalendarID,
		"configured":  false,
	}

	switch s.opts.CalendarAuthMode {
	case config.AuthModeOAuth:
		if s.oauth == nil {
			break
		}
		ok, err := s.oauth.Authorized(c.Request.Context())
		if err != nil {
			s.respondError(c, err)
			return
		}
		body["configured"] = ok
	default:
		key, err := calendar.ReadServiceAccount(s.opts.CredentialsPath)
		if err != nil {
			body["message"] = err.Error()
			break
		}
		body["configured"] = true
		body["client_email"] = key.ClientEmail
	}
	c.JSON(http.StatusOK, body)
}

// GET /api/calendar/oauth/login
func (s *Server) handleOAuthLogin(c *gin.Context) {
	if s.oauth == nil {
		c.JSON(http.StatusNotFound, errorResponse("oauth_disabled", "calendar is not configured for oauth"))
		return
	}
	url, err := s.oauth.LoginURL(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// GET /api/calendar/oauth/callback
func (s *Server) handleOAuthCallback(c *gin.Context) {
	if s.oauth == nil {
		c.JSON(http.StatusNotFound, errorResponse("oauth_disabled", "calendar is not configured for oauth"))
		return
	}
	if reason := c.Query("error"); reason != "" {
		c.JSON(http.StatusBadRequest, errorResponse("consent_denied", reason))
		return
	}
	if err := s.oauth.Complete(c.Request.Context(), c.Query("state"), c.Query("code")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Google Calendar autorizado com sucesso"})
}
