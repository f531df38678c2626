package handler

import (
	"github.com/chantierpro/chantierpro/internal/service"
	"github.com/gin-gonic/gin"
)

// ChantierHandler gestion des chantiers
type ChantierHandler struct {
	svc *service.ChantierService
}

func NewChantierHandler(svc *service.ChantierService) *ChantierHandler {
	return &ChantierHandler{svc: svc}
}

// List GET /api/v1/chantiers
func (h *ChantierHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"statut":     c.Query("statut"),
		"client_id":  c.Query("client_id"),
		"assigne_id": c.Query("assigne_id"),
		"search":     c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Get GET /api/v1/chantiers/:id
func (h *ChantierHandler) Get(c *gin.Context) {
	chantier, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, chantier)
}

// Create POST /api/v1/chantiers
func (h *ChantierHandler) Create(c *gin.Context) {
	var req service.ChantierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	chantier, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, chantier)
}

// Update PUT /api/v1/chantiers/:id
func (h *ChantierHandler) Update(c *gin.Context) {
	var req service.ChantierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	chantier, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, chantier)
}

type statutRequest struct {
	Statut string `json:"statut" binding:"required"`
}

// ChangeStatut PATCH /api/v1/chantiers/:id/statut
func (h *ChantierHandler) ChangeStatut(c *gin.Context) {
	var req statutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "statut requis")
		return
	}

	chantier, err := h.svc.ChangeStatut(c.Request.Context(), c.Param("id"), req.Statut)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, chantier)
}

type avancementRequest struct {
	Avancement int `json:"avancement"`
}

// SetAvancement PATCH /api/v1/chantiers/:id/avancement
func (h *ChantierHandler) SetAvancement(c *gin.Context) {
	var req avancementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "avancement requis")
		return
	}

	chantier, err := h.svc.SetAvancement(c.Request.Context(), c.Param("id"), req.Avancement)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, chantier)
}

// Delete DELETE /api/v1/chantiers/:id
func (h *ChantierHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}
