package calendar

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

var (
	// ErrAuth means credential material is missing, unreadable or rejected by the token endpoint.
	ErrAuth = errors.New("calendar credentials missing or invalid")
	// ErrEventNotFound is returned by DeleteEvent when the event is already gone.
	ErrEventNotFound = errors.New("calendar event not found")
	// ErrInvalidCredentials is returned when an uploaded service-account file is rejected.
	ErrInvalidCredentials = errors.New("invalid service account credentials")
	// ErrInvalidState is returned when an OAuth callback carries an unknown or expired state.
	ErrInvalidState = errors.New("invalid or expired oauth state")
)

// UpstreamError is any failed call to the calendar API.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("calendar upstream error: %s", e.Message)
	}
	return fmt.Sprintf("calendar upstream error %d: %s", e.Status, e.Message)
}

// classify maps a client error to ErrAuth or *UpstreamError.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAuth) {
		return err
	}
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		return fmt.Errorf("%w: %s", ErrAuth, retrieve.Error())
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = http.StatusText(gerr.Code)
		}
		return &UpstreamError{Status: gerr.Code, Message: msg}
	}
	return &UpstreamError{Message: err.Error()}
}

// isGone reports a 404 or 410 from the API.
func isGone(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}
