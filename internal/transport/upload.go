package transport

import (
	"net/http"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/labstack/echo/v4"

	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/internal/service"
	"github.com/ArubikU/blobcraft/pkg/response"
)

const metaFieldPrefix = "meta."

type UploadRequest struct {
	Public      bool       `form:"public"`
	TTL         null.Int64 `form:"ttl" validate:"omitnil,gte=0"`
	ContentType string     `form:"contentType" validate:"omitempty,max=255"`
	Tags        string     `form:"tags" validate:"omitempty,max=1024"`
	Category    string     `form:"category" validate:"omitempty,max=64"`
	Uploader    string     `form:"uploader" validate:"omitempty,max=128"`
	Description string     `form:"description" validate:"omitempty,max=1024"`
}

func (h *Handler) Upload(c echo.Context) error {
	var req UploadRequest
	if err := c.Bind(&req); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, model.ErrValidation.Fmt(err.Error()))
	}
	if err := c.Validate(&req); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, model.ErrValidation.Fmt("missing file: "+err.Error()))
	}
	src, err := file.Open()
	if err != nil {
		return response.FromError(c.Response(), http.StatusInternalServerError, err)
	}
	defer src.Close()

	form, err := c.FormParams()
	if err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, model.ErrValidation.Fmt(err.Error()))
	}
	metadata := map[string]string{}
	for key, values := range form {
		if name, ok := strings.CutPrefix(key, metaFieldPrefix); ok && name != "" && len(values) > 0 {
			metadata[name] = values[0]
		}
	}

	ref, err := h.svc.Upload(c.Request().Context(), service.UploadParams{
		Filename: file.Filename,
		Size:     file.Size,
		Content:  src,
		Meta: model.BlobMeta{
			Public:      req.Public,
			TTL:         req.TTL,
			ContentType: req.ContentType,
			Tags:        splitTags(req.Tags),
			Category:    req.Category,
			Uploader:    req.Uploader,
			Description: req.Description,
			Metadata:    metadata,
		},
	})
	if err != nil {
		return response.FromError(c.Response(), statusOf(err), err)
	}

	return response.FromDTO(c.Response(), http.StatusCreated, ref)
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
