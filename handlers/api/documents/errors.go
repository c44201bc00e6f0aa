package documents

import (
	"errors"
	"json-storage/core"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	Detail         string `json:"detail"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if e.HTTPStatusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errInvalidRequest(detail string) render.Renderer {
	return &ErrResponse{HTTPStatusCode: http.StatusUnprocessableEntity, Detail: detail}
}

// errorResponse maps a store error to its response. Unexpected errors are
// logged and reported without internal detail.
func errorResponse(r *http.Request, err error) render.Renderer {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrAlreadyExists):
		return &ErrResponse{HTTPStatusCode: http.StatusConflict, Detail: "JSON with this ID already exists"}
	case errors.Is(err, core.ErrNotFound):
		return &ErrResponse{HTTPStatusCode: http.StatusNotFound, Detail: "JSON not found"}
	case errors.Is(err, core.ErrInvalidID), errors.Is(err, core.ErrInvalidData):
		return errInvalidRequest(err.Error())
	case errors.As(err, &maxBytesErr):
		return &ErrResponse{HTTPStatusCode: http.StatusRequestEntityTooLarge, Detail: "request body too large"}
	case errors.Is(err, core.ErrLockTimeout), errors.Is(err, core.ErrConcurrentWrite):
		return &ErrResponse{HTTPStatusCode: http.StatusServiceUnavailable, Detail: "document is busy, retry later"}
	}
	logrus.WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"error":      err,
	}).Error("Document operation failed")
	return &ErrResponse{HTTPStatusCode: http.StatusInternalServerError, Detail: "internal server error"}
}
