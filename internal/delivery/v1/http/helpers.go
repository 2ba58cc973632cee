package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/furniture-recs/pkg/e"
)

const (
	defaultQueriesLimit = 10
	maxChatBodySize     = 1 << 20
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrInvalidTopK):
		return http.StatusBadRequest, e.ErrInvalidTopK.Error()
	case errors.Is(err, e.ErrInvalidLimit):
		return http.StatusBadRequest, e.ErrInvalidLimit.Error()
	case errors.Is(err, e.ErrMissingQuery):
		return http.StatusBadRequest, e.ErrMissingQuery.Error()
	case errors.Is(err, e.ErrEmptyMessage):
		return http.StatusBadRequest, e.ErrEmptyMessage.Error()
	case errors.Is(err, e.ErrBadRequestBody):
		return http.StatusBadRequest, e.ErrBadRequestBody.Error()
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrQuery):
		return http.StatusBadGateway, e.ErrQuery.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parseBoundedInt читает целый параметр запроса из [1, max]. Отсутствующий параметр даёт def.
func parseBoundedInt(r *http.Request, name string, def, max int, errBound error) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		return 0, e.Wrap(name+"="+raw, errBound)
	}

	return n, nil
}
