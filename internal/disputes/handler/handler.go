package handler

import (
	"net/http"

	"github.com/thimothe-das/fixeo-sub001/internal/disputes/service"
	"github.com/thimothe-das/fixeo-sub001/internal/requests/domain"
	"github.com/thimothe-das/fixeo-sub001/platform/httpkit"
	"github.com/thimothe-das/fixeo-sub001/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes dispute evidence upload and listing.
type Handler struct {
	svc *service.Service
	log *logger.Logger
}

func New(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts the evidence routes.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/disputes")
	group.POST("/:id/evidence", h.uploadEvidence)
	group.GET("/:id/evidence", h.listEvidence)
}

type evidenceResponse struct {
	ID          string `json:"id"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
	UploadedBy  string `json:"uploadedBy"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

func (h *Handler) uploadEvidence(c *gin.Context) {
	disputeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid dispute id", nil)
		return
	}

	uploadedBy := domain.Actor(c.PostForm("uploadedBy"))
	file, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}

	src, err := file.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "cannot read file", nil)
		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	evidence, err := h.svc.UploadEvidence(c.Request.Context(), disputeID, uploadedBy, file.Filename, contentType, src, file.Size)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, evidenceResponse{
		ID:          evidence.ID.String(),
		FileName:    evidence.FileName,
		ContentType: evidence.ContentType,
		SizeBytes:   evidence.SizeBytes,
		UploadedBy:  evidence.UploadedBy,
	})
}

func (h *Handler) listEvidence(c *gin.Context) {
	disputeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid dispute id", nil)
		return
	}

	evidence, urls, err := h.svc.ListEvidence(c.Request.Context(), disputeID)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]evidenceResponse, 0, len(evidence))
	for i, e := range evidence {
		out = append(out, evidenceResponse{
			ID:          e.ID.String(),
			FileName:    e.FileName,
			ContentType: e.ContentType,
			SizeBytes:   e.SizeBytes,
			UploadedBy:  e.UploadedBy,
			DownloadURL: urls[i],
		})
	}
	httpkit.OK(c, gin.H{"evidence": out})
}
