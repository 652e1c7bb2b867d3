package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
)

// MsgDueDateFormat is returned when dueDate is present but unparseable.
const MsgDueDateFormat = "the due date must be an ISO-8601 date-time"

// Accepted dueDate layouts, tried in order. Zone-less values are read as UTC.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

type addItemRequest struct {
	Description string  `json:"description"`
	DueDate     *string `json:"dueDate"`
}

type updateDescriptionRequest struct {
	Description string `json:"description"`
}

var errMalformedBody = errors.New("malformed JSON body")

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		return errMalformedBody
	}
	return nil
}

// parseDueDate returns the zero time for an absent value; the command's own
// validation reports that case.
func parseDueDate(raw *string) (time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return time.Time{}, nil
	}
	value := strings.TrimSpace(*raw)
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New(MsgDueDateFormat)
}

// PagingConfig bounds the page size clients may ask for.
type PagingConfig struct {
	DefaultSize int
	MaxSize     int
}

// DefaultPagingConfig returns the default paging bounds.
func DefaultPagingConfig() PagingConfig {
	return PagingConfig{DefaultSize: 12, MaxSize: 100}
}

// parsePageRequest reads page, size and any number of sort params. Bad page
// and size values fall back to defaults; a bad sort or a page index past
// item.MaxPage is a validation error.
func parsePageRequest(r *http.Request, cfg PagingConfig) (item.PageRequest, map[string]string) {
	q := r.URL.Query()

	page := parseIntParam(r, "page", 0)
	if page < 0 {
		page = 0
	}
	size := parseIntParam(r, "size", cfg.DefaultSize)
	if size < 1 {
		size = cfg.DefaultSize
	}
	if cfg.MaxSize > 0 && size > cfg.MaxSize {
		size = cfg.MaxSize
	}

	var orders []item.Order
	for _, raw := range q["sort"] {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		order, err := item.ParseOrder(raw)
		if err != nil {
			return item.PageRequest{}, map[string]string{"sort": err.Error()}
		}
		orders = append(orders, order)
	}

	req, err := item.NewPageRequest(page, size, orders...)
	if err != nil {
		return item.PageRequest{}, map[string]string{"page": err.Error()}
	}
	return req, nil
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
