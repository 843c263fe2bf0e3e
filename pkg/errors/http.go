package errors

import "net/http"

var httpStatus = map[Code]int{
	CodeInvalidArgument:    http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeAlreadyExists:      http.StatusConflict,
	CodePermissionDenied:   http.StatusForbidden,
	CodeUnauthenticated:    http.StatusUnauthorized,
	CodeFailedPrecondition: http.StatusPreconditionFailed,
	CodeDeadlineExceeded:   http.StatusGatewayTimeout,
	CodeUnavailable:        http.StatusServiceUnavailable,
}

// HTTPStatus maps an error code to the status the API answers with.
func HTTPStatus(code Code) int {
	if s, ok := httpStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// FromHTTPStatus is the client-side inverse of HTTPStatus.
func FromHTTPStatus(status int) Code {
	for code, s := range httpStatus {
		if s == status {
			return code
		}
	}
	if status >= 500 {
		return CodeUnavailable
	}
	return CodeUnknown
}
