package item

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrInvalidSort = errors.New("invalid sort")

// Direction orders a sort key.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// SortField is a sortable item property, named as it appears in the JSON
// representation.
type SortField string

const (
	SortByID           SortField = "id"
	SortByDescription  SortField = "description"
	SortByStatus       SortField = "status"
	SortByCreationDate SortField = "creationDate"
	SortByDueDate      SortField = "dueDate"
	SortByDoneDate     SortField = "doneDate"
)

var sortFields = map[SortField]struct{}{
	SortByID:           {},
	SortByDescription:  {},
	SortByStatus:       {},
	SortByCreationDate: {},
	SortByDueDate:      {},
	SortByDoneDate:     {},
}

// SortFields lists the accepted sort properties in display order.
func SortFields() []SortField {
	return []SortField{SortByID, SortByDescription, SortByStatus, SortByCreationDate, SortByDueDate, SortByDoneDate}
}

// Order is one sort key.
type Order struct {
	Field     SortField
	Direction Direction
}

func (o Order) String() string {
	return string(o.Field) + "," + string(o.Direction)
}

// ParseOrder parses "property" or "property,ASC|DESC" (direction is case
// insensitive, ASC when omitted).
func ParseOrder(value string) (Order, error) {
	parts := strings.Split(value, ",")
	if len(parts) > 2 {
		return Order{}, fmt.Errorf("%w: %q", ErrInvalidSort, value)
	}

	field := SortField(strings.TrimSpace(parts[0]))
	if _, ok := sortFields[field]; !ok {
		return Order{}, fmt.Errorf("%w: unknown property %q", ErrInvalidSort, parts[0])
	}

	dir := Asc
	if len(parts) == 2 {
		switch Direction(strings.ToUpper(strings.TrimSpace(parts[1]))) {
		case Asc:
		case Desc:
			dir = Desc
		default:
			return Order{}, fmt.Errorf("%w: unknown direction %q", ErrInvalidSort, parts[1])
		}
	}

	return Order{Field: field, Direction: dir}, nil
}

// PageRequest selects a zero-based page of a sorted listing.
type PageRequest struct {
	Page int
	Size int
	Sort []Order
}

// MaxPage is the highest page index accepted. Page and size both stay
// within int32, so the row offset always fits an int64.
const MaxPage = math.MaxInt32

// NewPageRequest validates page coordinates.
func NewPageRequest(page, size int, sort ...Order) (PageRequest, error) {
	if page < 0 {
		return PageRequest{}, errors.New("page index must not be less than zero")
	}
	if page > MaxPage {
		return PageRequest{}, fmt.Errorf("page index must not be greater than %d", MaxPage)
	}
	if size < 1 {
		return PageRequest{}, errors.New("page size must not be less than one")
	}
	if size > math.MaxInt32 {
		return PageRequest{}, fmt.Errorf("page size must not be greater than %d", math.MaxInt32)
	}
	return PageRequest{Page: page, Size: size, Sort: sort}, nil
}

// Offset is the number of rows skipped before this page.
func (p PageRequest) Offset() int64 {
	return int64(p.Page) * int64(p.Size)
}

// OrderBy returns the requested orders followed by id ascending, so rows
// with equal keys keep a stable position across pages.
func (p PageRequest) OrderBy() []Order {
	orders := make([]Order, 0, len(p.Sort)+1)
	for _, o := range p.Sort {
		orders = append(orders, o)
		if o.Field == SortByID {
			return orders
		}
	}
	return append(orders, Order{Field: SortByID, Direction: Asc})
}

// Page is one slice of a listing plus the total it was cut from.
type Page struct {
	Items   []*Item
	Request PageRequest
	Total   int64
}

// TotalPages is the number of pages of Request.Size needed to hold Total.
func (p Page) TotalPages() int {
	if p.Request.Size <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Request.Size) - 1) / int64(p.Request.Size))
}

func (p Page) IsFirst() bool { return p.Request.Page == 0 }

func (p Page) IsLast() bool { return p.Request.Page+1 >= p.TotalPages() }
