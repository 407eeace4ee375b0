package response

import (
	"github.com/guregu/null/v6"

	"github.com/ArubikU/blobcraft/internal/model"
)

type PaginationResponse[T any] struct {
	Data     []T      `json:"data"`
	PageMeta PageMeta `json:"pagination"`
}

type PageMeta struct {
	Page       int32      `json:"page"`
	Limit      int32      `json:"limit"`
	Total      int64      `json:"total"`
	TotalPages int64      `json:"total_pages"`
	NextPage   null.Int32 `json:"next_page"`
}

// FromPaginate converts a service result, mapping each item with fn.
func FromPaginate[T, R any](result model.PaginateResult[T], fn func(T) R) PaginationResponse[R] {
	data := make([]R, 0, len(result.Data))
	for _, item := range result.Data {
		data = append(data, fn(item))
	}

	return PaginationResponse[R]{
		Data: data,
		PageMeta: PageMeta{
			Page:       result.PageParams.GetPage(),
			Limit:      result.PageParams.GetLimit(),
			Total:      result.Total,
			TotalPages: result.TotalPages(),
			NextPage:   result.NextPage(),
		},
	}
}
