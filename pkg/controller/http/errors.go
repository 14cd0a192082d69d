package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lectio-dev/lectio/pkg/usecase"
	"github.com/lectio-dev/lectio/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

var errBadRequest = errors.New("bad request")

// statusCode maps an error kind to its HTTP status
func statusCode(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, usecase.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, usecase.ErrRetrievalUnavailable), errors.Is(err, usecase.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusCode(err))
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return goerr.Wrap(errBadRequest, "request body is empty")
		}
		return goerr.Wrap(errBadRequest, err.Error())
	}
	return nil
}
