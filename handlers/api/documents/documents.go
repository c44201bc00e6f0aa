package documents

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"json-storage/core"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type (
	// CreateRequest is the POST /json envelope. The document content lives
	// under "data"; PUT bodies carry the content unwrapped.
	CreateRequest struct {
		ID   string          `json:"id"`
		Data json.RawMessage `json:"data"`
	}

	MessageResponse struct {
		Message string `json:"message"`
		ID      string `json:"id"`
	}

	DocumentResponse struct {
		ID   string          `json:"id"`
		Data json.RawMessage `json:"data"`
	}
)

func (body *CreateRequest) Bind(r *http.Request) error {
	if body.ID == "" {
		return errors.New("field required: id")
	}
	if len(body.Data) == 0 {
		return errors.New("field required: data")
	}
	if !isObject(body.Data) {
		return errors.New("data must be a JSON object")
	}
	return nil
}

func HandleCreate(documentStore core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := &CreateRequest{}
		// Clients do not always send a JSON content type, so decode directly.
		if err := decodeJSON(r.Body, data); err != nil {
			render.Render(w, r, decodeError(r, err))
			return
		}
		if err := data.Bind(r); err != nil {
			render.Render(w, r, errInvalidRequest(err.Error()))
			return
		}

		id, err := documentStore.Create(r.Context(), &core.Document{ID: data.ID, Data: data.Data})
		if err != nil {
			render.Render(w, r, errorResponse(r, err))
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, MessageResponse{Message: "JSON created", ID: id})
	}
}

func HandleGet(documentStore core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		document, err := documentStore.FindID(r.Context(), id)
		if err != nil {
			render.Render(w, r, errorResponse(r, err))
			return
		}
		render.JSON(w, r, DocumentResponse{ID: document.ID, Data: document.Data})
	}
}

func HandleUpdate(documentStore core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var data json.RawMessage
		if err := decodeJSON(r.Body, &data); err != nil {
			render.Render(w, r, decodeError(r, err))
			return
		}
		if !isObject(data) {
			render.Render(w, r, errInvalidRequest("body must be a JSON object"))
			return
		}

		id, err := documentStore.Update(r.Context(), &core.Document{ID: id, Data: data})
		if err != nil {
			render.Render(w, r, errorResponse(r, err))
			return
		}
		render.JSON(w, r, MessageResponse{Message: "JSON updated", ID: id})
	}
}

func HandleDelete(documentStore core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := documentStore.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			render.Render(w, r, errorResponse(r, err))
			return
		}
		render.JSON(w, r, MessageResponse{Message: "JSON deleted", ID: id})
	}
}

var errTrailingData = errors.New("unexpected data after JSON value")

// decodeJSON decodes exactly one JSON value from body and rejects anything
// but whitespace after it.
func decodeJSON(body io.Reader, v interface{}) error {
	defer io.Copy(io.Discard, body)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	switch err := dec.Decode(&struct{}{}); {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil && isMaxBytes(err):
		return err
	default:
		return errTrailingData
	}
}

func isMaxBytes(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func decodeError(r *http.Request, err error) render.Renderer {
	if isMaxBytes(err) {
		return errorResponse(r, err)
	}
	if errors.Is(err, io.EOF) {
		return errInvalidRequest("request body is empty")
	}
	return errInvalidRequest("request body is not valid JSON")
}

func isObject(data json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("{"))
}
