package queries

import (
	"time"

	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/google/uuid"
)

// ItemDTO is a data transfer object for items.
type ItemDTO struct {
	ID           uuid.UUID
	Description  string
	Status       string
	CreationDate time.Time
	DueDate      time.Time
	DoneDate     *time.Time
}

// PageDTO is one page of a listing.
type PageDTO struct {
	Items      []ItemDTO
	Page       int
	Size       int
	Sort       []item.Order
	Total      int64
	TotalPages int
	First      bool
	Last       bool
}

// ToItemDTO converts an item for adapters that received it from a command.
func ToItemDTO(i *item.Item) ItemDTO {
	return ItemDTO{
		ID:           i.ID(),
		Description:  i.Description(),
		Status:       i.Status().String(),
		CreationDate: i.CreationDate(),
		DueDate:      i.DueDate(),
		DoneDate:     i.DoneDate(),
	}
}

func toPageDTO(p item.Page) PageDTO {
	items := make([]ItemDTO, 0, len(p.Items))
	for _, i := range p.Items {
		items = append(items, ToItemDTO(i))
	}
	return PageDTO{
		Items:      items,
		Page:       p.Request.Page,
		Size:       p.Request.Size,
		Sort:       p.Request.Sort,
		Total:      p.Total,
		TotalPages: p.TotalPages(),
		First:      p.IsFirst(),
		Last:       p.IsLast(),
	}
}
