package errors

import "net/http"

var ErrInvalidQuery = &Exception{
	Message:    "invalid group or sort parameter",
	StatusCode: http.StatusBadRequest,
}
