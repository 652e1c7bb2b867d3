package api

import (
	"time"

	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/google/uuid"
)

type itemResponse struct {
	ID           uuid.UUID  `json:"id"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	CreationDate time.Time  `json:"creationDate"`
	DueDate      time.Time  `json:"dueDate"`
	DoneDate     *time.Time `json:"doneDate"`
}

func toItemResponse(dto queries.ItemDTO) itemResponse {
	return itemResponse{
		ID:           dto.ID,
		Description:  dto.Description,
		Status:       dto.Status,
		CreationDate: dto.CreationDate,
		DueDate:      dto.DueDate,
		DoneDate:     dto.DoneDate,
	}
}

// The page body keeps the field names Spring Data clients already parse.
type pageResponse struct {
	Content          []itemResponse `json:"content"`
	Pageable         pageable       `json:"pageable"`
	TotalElements    int64          `json:"totalElements"`
	TotalPages       int            `json:"totalPages"`
	Size             int            `json:"size"`
	Number           int            `json:"number"`
	Sort             sortState      `json:"sort"`
	First            bool           `json:"first"`
	Last             bool           `json:"last"`
	NumberOfElements int            `json:"numberOfElements"`
	Empty            bool           `json:"empty"`
}

type pageable struct {
	PageNumber int       `json:"pageNumber"`
	PageSize   int       `json:"pageSize"`
	Offset     int64     `json:"offset"`
	Sort       sortState `json:"sort"`
	Paged      bool      `json:"paged"`
	Unpaged    bool      `json:"unpaged"`
}

type sortState struct {
	Empty    bool `json:"empty"`
	Sorted   bool `json:"sorted"`
	Unsorted bool `json:"unsorted"`
}

func toPageResponse(p queries.PageDTO) pageResponse {
	content := make([]itemResponse, 0, len(p.Items))
	for _, dto := range p.Items {
		content = append(content, toItemResponse(dto))
	}

	sorted := len(p.Sort) > 0
	sort := sortState{Empty: !sorted, Sorted: sorted, Unsorted: !sorted}

	return pageResponse{
		Content: content,
		Pageable: pageable{
			PageNumber: p.Page,
			PageSize:   p.Size,
			Offset:     int64(p.Page) * int64(p.Size),
			Sort:       sort,
			Paged:      true,
		},
		TotalElements:    p.Total,
		TotalPages:       p.TotalPages,
		Size:             p.Size,
		Number:           p.Page,
		Sort:             sort,
		First:            p.First,
		Last:             p.Last,
		NumberOfElements: len(content),
		Empty:            len(content) == 0,
	}
}
