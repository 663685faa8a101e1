package todos

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const (
	apiDateTimeFormat = "2006-01-02 15:04:05"
	maxBodyBytes      = 1 << 20
)

// todoView is the wire form of a Todo. Times are formatted here and nowhere
// else.
type todoView struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	IsDue       bool    `json:"isDue"`
	DueDate     *string `json:"dueDate"`
	CreatedAt   int64   `json:"createdAt"`
	UpdatedAt   int64   `json:"updatedAt"`
	IsDone      bool    `json:"isDone"`
}

func newTodoView(t Todo) todoView {
	v := todoView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsDue:       t.IsDue,
		CreatedAt:   t.CreatedAt.UnixMilli(),
		UpdatedAt:   t.UpdatedAt.UnixMilli(),
		IsDone:      t.IsDone,
	}
	if t.DueDate != nil {
		s := t.DueDate.UTC().Format(apiDateTimeFormat)
		v.DueDate = &s
	}
	return v
}

func newTodoViews(ts []Todo) []todoView {
	out := make([]todoView, 0, len(ts))
	for _, t := range ts {
		out = append(out, newTodoView(t))
	}
	return out
}

type errorBody struct {
	Kind    string `json:"kind"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	ID      string     `json:"id,omitempty"`
	Todo    *todoView  `json:"todo,omitempty"`
	Deleted *int       `json:"deleted,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

// listEnvelope always carries todos, even when empty.
type listEnvelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Total   int        `json:"total"`
	Todos   []todoView `json:"todos"`
}

type handler struct {
	svc    *Service
	logger *slog.Logger
}

func RegisterRoutes(r chi.Router, svc *Service, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{svc: svc, logger: logger}

	r.Route("/todos", func(r chi.Router) {
		r.Get("/", h.listAll)
		r.Post("/", h.create)
		r.Delete("/", h.deleteAll)
		r.Get("/due", h.listDue)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

// NotFoundHandler answers unmatched routes with the standard envelope.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{
			Success: false,
			Message: r.URL.Path + " not found",
		})
	}
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.svc.Create(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Todo created successfully",
		ID:      id,
	})
}

func (h *handler) listAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, "Successfully retrieved todo.", items)
}

func (h *handler) listDue(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListDue(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, "Successfully retrieved due todo list.", items)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, "Successfully retrieved todo.", items)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	t, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	v := newTodoView(t)
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Successfully updated todo.",
		Todo:    &v,
	})
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Successfully removed todo.",
	})
}

func (h *handler) deleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.DeleteAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Successfully removed all todos.",
		Deleted: &n,
	})
}

func readFields(w http.ResponseWriter, r *http.Request) (Fields, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return Fields{}, invalidFormat("", "request body too large")
	}
	return DecodeFields(body)
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "todo_request_failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	writeJSON(w, status, envelope{
		Success: false,
		Message: "Error: " + body.Message,
		Error:   &body,
	})
}

func classify(err error) (int, errorBody) {
	var ve *ValidationError
	var se *StoreError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorBody{Kind: string(ve.Kind), Field: ve.Field, Message: ve.Message}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, errorBody{Kind: "NotFound", Message: err.Error()}
	case errors.As(err, &se):
		return http.StatusInternalServerError, errorBody{Kind: "StoreError", Message: se.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Kind: "Unexpected", Message: err.Error()}
	}
}

func writeList(w http.ResponseWriter, msg string, items []Todo) {
	writeJSON(w, http.StatusOK, listEnvelope{
		Success: true,
		Message: msg,
		Total:   len(items),
		Todos:   newTodoViews(items),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
