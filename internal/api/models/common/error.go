package common

import "net/http"

// Body models errors as JSON in the API
type Body struct {
	Message string `json:"message" binding:"required" example:"Something went wrong :("`
}

type ApiError struct {
	StatusCode int
	Body       Body
}

func (a *ApiError) Error() string {
	return a.Body.Message
}

func NewApiError(statusCode int, err error) *ApiError {
	return &ApiError{
		StatusCode: statusCode,
		Body: Body{
			Message: err.Error(),
		},
	}
}

func NotFound(err error) *ApiError {
	return NewApiError(http.StatusNotFound, err)
}

func BadRequest(err error) *ApiError {
	return NewApiError(http.StatusBadRequest, err)
}

func Conflict(err error) *ApiError {
	return NewApiError(http.StatusConflict, err)
}

func InternalServerError(err error) *ApiError {
	return NewApiError(http.StatusInternalServerError, err)
}
