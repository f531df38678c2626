package handler

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chantierpro/chantierpro/internal/service"
	"github.com/gin-gonic/gin"
)

// DocumentHandler dépôt et restitution de fichiers
type DocumentHandler struct {
	svc *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Upload POST /api/v1/documents (multipart, champ "files")
func (h *DocumentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "formulaire multipart attendu")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		BadRequest(c, "aucun fichier dans le champ files")
		return
	}

	meta := &service.UploadMeta{
		ChantierID: c.PostForm("chantier_id"),
		Dossier:    c.PostForm("dossier"),
		Public:     c.PostForm("public") == "true",
	}
	if tags := c.PostForm("tags"); tags != "" {
		meta.Tags = strings.Split(tags, ",")
	}

	result, err := h.svc.Upload(c.Request.Context(), GetUserID(c), files, meta)
	if err != nil {
		if errors.Is(err, service.ErrStockageIndisponible) {
			Error(c, 50300, "stockage de documents indisponible")
			return
		}
		HandleError(c, err)
		return
	}
	Created(c, result)
}

// List GET /api/v1/documents
func (h *DocumentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"chantier_id": c.Query("chantier_id"),
		"type":        c.Query("type"),
		"dossier":     c.Query("dossier"),
		"search":      c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Get GET /api/v1/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, doc)
}

// Download GET /api/v1/documents/:id/download
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, reader, err := h.svc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrStockageIndisponible) {
			Error(c, 50300, "stockage de documents indisponible")
			return
		}
		HandleError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.NomOriginal))
	c.Header("Content-Type", doc.MimeType)
	c.Status(200)
	_, _ = io.Copy(c.Writer, reader)
}

// Update PUT /api/v1/documents/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	var req service.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	doc, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, doc)
}

// Delete DELETE /api/v1/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}
