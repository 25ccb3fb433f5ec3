package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is returned when the server answers with a non-2xx status
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("openappconfig responded with [%d]: %s", e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

func IsBadRequest(err error) bool {
	return hasStatus(err, http.StatusBadRequest)
}

func hasStatus(err error, statusCode int) bool {
	var clientErr *Error
	return errors.As(err, &clientErr) && clientErr.StatusCode == statusCode
}
