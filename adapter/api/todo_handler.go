package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/todolist/internal/todos/application/commands"
	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/google/uuid"
)

// TodoHandler handles todo item API requests.
type TodoHandler struct {
	addItem           *commands.AddItemHandler
	updateDescription *commands.UpdateDescriptionHandler
	markDone          *commands.MarkDoneHandler
	markNotDone       *commands.MarkNotDoneHandler
	getItem           *queries.GetItemHandler
	listItems         *queries.ListItemsHandler
	paging            PagingConfig
	logger            *slog.Logger
}

// TodoHandlerConfig holds dependencies for the todo handler.
type TodoHandlerConfig struct {
	AddItem           *commands.AddItemHandler
	UpdateDescription *commands.UpdateDescriptionHandler
	MarkDone          *commands.MarkDoneHandler
	MarkNotDone       *commands.MarkNotDoneHandler
	GetItem           *queries.GetItemHandler
	ListItems         *queries.ListItemsHandler
	Paging            PagingConfig
	Logger            *slog.Logger
}

// NewTodoHandler creates a new todo handler.
func NewTodoHandler(cfg TodoHandlerConfig) *TodoHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Paging.DefaultSize <= 0 {
		cfg.Paging = DefaultPagingConfig()
	}
	return &TodoHandler{
		addItem:           cfg.AddItem,
		updateDescription: cfg.UpdateDescription,
		markDone:          cfg.MarkDone,
		markNotDone:       cfg.MarkNotDone,
		getItem:           cfg.GetItem,
		listItems:         cfg.ListItems,
		paging:            cfg.Paging,
		logger:            cfg.Logger,
	}
}

// AddItem handles POST /todos
func (h *TodoHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var body addItemRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dueDate, dueErr := parseDueDate(body.DueDate)
	cmd := commands.AddItemCommand{Description: body.Description, DueDate: dueDate}
	if err := addItemFieldErrors(cmd, dueErr); err != nil {
		h.writeFailure(w, r, err)
		return
	}

	created, err := h.addItem.Handle(r.Context(), cmd)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(queries.ToItemDTO(created)))
}

// addItemFieldErrors reports every invalid field at once. An unparseable
// due date replaces the missing-date message for that field.
func addItemFieldErrors(cmd commands.AddItemCommand, dueErr error) error {
	err := cmd.Validate()
	if dueErr == nil {
		return err
	}
	fields := map[string]string{"dueDate": dueErr.Error()}
	var validation *commands.ValidationError
	if errors.As(err, &validation) {
		for field, msg := range validation.Fields {
			if field != "dueDate" {
				fields[field] = msg
			}
		}
	}
	return &commands.ValidationError{Fields: fields}
}

// UpdateDescription handles PUT /todos/{id}
func (h *TodoHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var body updateDescriptionRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cmd := commands.UpdateDescriptionCommand{ItemID: id, Description: body.Description}
	if err := cmd.Validate(); err != nil {
		h.writeFailure(w, r, err)
		return
	}

	updated, err := h.updateDescription.Handle(r.Context(), cmd)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(queries.ToItemDTO(updated)))
}

// MarkDone handles PUT /todos/{id}/done
func (h *TodoHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	updated, err := h.markDone.Handle(r.Context(), commands.MarkDoneCommand{ItemID: id})
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(queries.ToItemDTO(updated)))
}

// MarkNotDone handles PUT /todos/{id}/not-done
func (h *TodoHandler) MarkNotDone(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	updated, err := h.markNotDone.Handle(r.Context(), commands.MarkNotDoneCommand{ItemID: id})
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(queries.ToItemDTO(updated)))
}

// GetItem handles GET /todos/{id}
func (h *TodoHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	dto, err := h.getItem.Handle(r.Context(), queries.GetItemQuery{ItemID: id})
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(*dto))
}

// ListItems handles GET /todos
func (h *TodoHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListNotDoneItems handles GET /todos/not-done
func (h *TodoHandler) ListNotDoneItems(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *TodoHandler) list(w http.ResponseWriter, r *http.Request, notDoneOnly bool) {
	req, invalid := parsePageRequest(r, h.paging)
	if invalid != nil {
		writeJSON(w, http.StatusBadRequest, invalid)
		return
	}

	page, err := h.listItems.Handle(r.Context(), queries.ListItemsQuery{NotDoneOnly: notDoneOnly, Page: req})
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page))
}

// pathID parses {id}. A malformed id cannot name an item, so it is a 404
// carrying the usual message.
func (h *TodoHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeText(w, http.StatusNotFound, "Item not found with given id: "+raw)
		return uuid.Nil, false
	}
	return id, true
}

// writeFailure maps application errors to status codes.
func (h *TodoHandler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *commands.ValidationError
		notFound   *commands.NotFoundError
		conflict   *commands.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, validation.Fields)
	case errors.As(err, &notFound):
		writeText(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		h.logger.InfoContext(r.Context(), "request refused", "reason", conflict.Err, "path", r.URL.Path)
		writeText(w, http.StatusConflict, conflict.Message)
	case errors.Is(err, item.ErrInvalidSort):
		writeJSON(w, http.StatusBadRequest, map[string]string{"sort": err.Error()})
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
