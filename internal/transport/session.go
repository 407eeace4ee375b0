package transport

import (
	"io"
	"net/http"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/labstack/echo/v4"

	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/internal/service"
	"github.com/ArubikU/blobcraft/internal/session"
	"github.com/ArubikU/blobcraft/pkg/response"
)

// HeaderChunkChecksum carries the optional blake3 hex digest of a chunk body.
const HeaderChunkChecksum = "X-Chunk-Checksum"

type InitUploadRequest struct {
	Filename    string            `json:"filename" validate:"required,filename,max=255"`
	TotalSize   int64             `json:"totalSize"`
	ChunkSize   int64             `json:"chunkSize" validate:"gte=0"`
	Public      bool              `json:"public"`
	TTL         null.Int64        `json:"ttl" validate:"omitnil,gte=0"`
	ContentType string            `json:"contentType" validate:"omitempty,max=255"`
	Tags        []string          `json:"tags" validate:"omitempty,max=32,dive,max=64,tag"`
	Category    string            `json:"category" validate:"omitempty,max=64"`
	Uploader    string            `json:"uploader" validate:"omitempty,max=128"`
	Description string            `json:"description" validate:"omitempty,max=1024"`
	Metadata    map[string]string `json:"metadata" validate:"omitempty,max=64"`
}

func (h *Handler) InitUpload(c echo.Context) error {
	var req InitUploadRequest
	if err := c.Bind(&req); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, model.ErrValidation.Fmt(err.Error()))
	}
	if err := c.Validate(&req); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, err)
	}

	created, err := h.svc.InitUpload(c.Request().Context(), service.InitUploadParams{
		Filename:      req.Filename,
		TotalSize:     req.TotalSize,
		ChunkSizeHint: req.ChunkSize,
		Meta: model.BlobMeta{
			Public:      req.Public,
			TTL:         req.TTL,
			ContentType: req.ContentType,
			Tags:        req.Tags,
			Category:    req.Category,
			Uploader:    req.Uploader,
			Description: req.Description,
			Metadata:    req.Metadata,
		},
	})
	if err != nil {
		return response.FromError(c.Response(), statusOf(err), err)
	}

	return response.FromDTO(c.Response(), http.StatusCreated, created)
}

func (h *Handler) WriteChunk(c echo.Context) error {
	var (
		sessionID string
		index     int
	)
	// the body is raw chunk bytes, so only the path is bound
	if err := echo.PathParamsBinder(c).
		MustString("id", &sessionID).
		MustInt("index", &index).
		BindError(); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, model.ErrValidation.Fmt(err.Error()))
	}

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		// body limit errors render through the echo error handler
		return err
	}

	result, err := h.svc.WriteChunk(c.Request().Context(), session.WriteParams{
		SessionID: sessionID,
		Index:     index,
		Data:      data,
		Checksum:  strings.ToLower(c.Request().Header.Get(HeaderChunkChecksum)),
	})
	if err != nil {
		return response.FromError(c.Response(), statusOf(err), err)
	}

	return response.FromDTO(c.Response(), http.StatusOK, result)
}

type SessionRequest struct {
	ID string `param:"id" validate:"required"`
}

func (h *Handler) Progress(c echo.Context) error {
	var req SessionRequest
	if err := c.Bind(&req); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, model.ErrValidation.Fmt(err.Error()))
	}

	progress, err := h.svc.Progress(c.Request().Context(), req.ID)
	if err != nil {
		return response.FromError(c.Response(), statusOf(err), err)
	}

	return response.FromDTO(c.Response(), http.StatusOK, progress)
}

func (h *Handler) CancelUpload(c echo.Context) error {
	var req SessionRequest
	if err := c.Bind(&req); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, model.ErrValidation.Fmt(err.Error()))
	}

	if err := h.svc.CancelUpload(c.Request().Context(), req.ID); err != nil {
		return response.FromError(c.Response(), statusOf(err), err)
	}

	return response.FromMessage(c.Response(), http.StatusOK, "Upload cancelled")
}
