package transport

import (
	"net/http"
	"time"

	"github.com/guregu/null/v6"
	"github.com/labstack/echo/v4"

	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/internal/service"
	"github.com/ArubikU/blobcraft/pkg/response"
)

type ListBlobsRequest struct {
	model.PaginationParams
	Search string `query:"search" validate:"omitempty,max=255"`
	Ext    string `query:"ext" validate:"omitempty,max=16"`
}

type BlobSummary struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	Public      bool      `json:"public"`
	UploadedAt  time.Time `json:"uploadedAt"`
	ExpiresAt   null.Time `json:"expiresAt"`
	URL         string    `json:"url"`
}

func toBlobSummary(info service.BlobInfo) BlobSummary {
	return BlobSummary{
		ID:          info.ID,
		Filename:    info.Filename,
		Size:        info.Size,
		ContentType: info.ContentType,
		Public:      info.Public,
		UploadedAt:  info.UploadedAt,
		ExpiresAt:   info.ExpiresAt,
		URL:         info.URL,
	}
}

func (h *Handler) ListBlobs(c echo.Context) error {
	var req ListBlobsRequest
	if err := c.Bind(&req); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, model.ErrValidation.Fmt(err.Error()))
	}
	if err := c.Validate(&req); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, err)
	}

	result, err := h.svc.List(c.Request().Context(), service.ListParams{
		PaginationParams: req.PaginationParams,
		Search:           req.Search,
		Ext:              req.Ext,
	})
	if err != nil {
		return response.FromError(c.Response(), statusOf(err), err)
	}

	return response.FromDTO(c.Response(), http.StatusOK, response.FromPaginate(result, toBlobSummary))
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return response.FromError(c.Response(), statusOf(err), err)
	}
	return response.FromDTO(c.Response(), http.StatusOK, stats)
}
