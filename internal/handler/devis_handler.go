package handler

import (
	"fmt"
	"time"

	"github.com/chantierpro/chantierpro/internal/service"
	"github.com/gin-gonic/gin"
)

// DevisHandler devis et factures
type DevisHandler struct {
	svc *service.DevisService
}

func NewDevisHandler(svc *service.DevisService) *DevisHandler {
	return &DevisHandler{svc: svc}
}

func devisFilters(c *gin.Context) map[string]string {
	return map[string]string{
		"type":        c.Query("type"),
		"statut":      c.Query("statut"),
		"client_id":   c.Query("client_id"),
		"chantier_id": c.Query("chantier_id"),
		"search":      c.Query("search"),
	}
}

// List GET /api/v1/devis
func (h *DevisHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, devisFilters(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Get GET /api/v1/devis/:id
func (h *DevisHandler) Get(c *gin.Context) {
	devis, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, devis)
}

// Create POST /api/v1/devis
func (h *DevisHandler) Create(c *gin.Context) {
	var req service.CreateDevisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	devis, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, devis)
}

// Update PUT /api/v1/devis/:id
func (h *DevisHandler) Update(c *gin.Context) {
	var req service.UpdateDevisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	devis, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, devis)
}

// Delete DELETE /api/v1/devis/:id
func (h *DevisHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// Send POST /api/v1/devis/:id/send
func (h *DevisHandler) Send(c *gin.Context) {
	devis, err := h.svc.Send(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, devis)
}

// ChangeStatut PATCH /api/v1/devis/:id/statut
func (h *DevisHandler) ChangeStatut(c *gin.Context) {
	var req statutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "statut requis")
		return
	}

	devis, err := h.svc.ChangeStatut(c.Request.Context(), c.Param("id"), req.Statut)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, devis)
}

// Accepter POST /api/v1/devis/:id/accepter
func (h *DevisHandler) Accepter(c *gin.Context) {
	h.transition(c, "ACCEPTE")
}

// Refuser POST /api/v1/devis/:id/refuser
func (h *DevisHandler) Refuser(c *gin.Context) {
	h.transition(c, "REFUSE")
}

// Annuler POST /api/v1/devis/:id/annuler
func (h *DevisHandler) Annuler(c *gin.Context) {
	h.transition(c, "ANNULE")
}

func (h *DevisHandler) transition(c *gin.Context, statut string) {
	devis, err := h.svc.ChangeStatut(c.Request.Context(), c.Param("id"), statut)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, devis)
}

// Convert POST /api/v1/devis/:id/convert
func (h *DevisHandler) Convert(c *gin.Context) {
	facture, err := h.svc.ConvertToFacture(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, facture)
}

// CreateSituation POST /api/v1/devis/:id/situations
func (h *DevisHandler) CreateSituation(c *gin.Context) {
	var req service.CreateSituationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	situation, err := h.svc.CreateSituation(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, situation)
}

// ListSituations GET /api/v1/devis/:id/situations
func (h *DevisHandler) ListSituations(c *gin.Context) {
	items, err := h.svc.ListSituations(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, items)
}

type autoliquidationRequest struct {
	Autoliquidation bool   `json:"autoliquidation"`
	Mention         string `json:"mention"`
}

// ToggleAutoliquidation PUT /api/v1/devis/:id/autoliquidation
func (h *DevisHandler) ToggleAutoliquidation(c *gin.Context) {
	var req autoliquidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	devis, err := h.svc.ToggleAutoliquidation(c.Request.Context(), c.Param("id"), req.Autoliquidation, req.Mention)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, devis)
}

// GetTVAMultitaux GET /api/v1/devis/:id/tva-multitaux
func (h *DevisHandler) GetTVAMultitaux(c *gin.Context) {
	tva, err := h.svc.GetTVAMultitaux(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, tva)
}

// UpdateTVAMultitaux PUT /api/v1/devis/:id/tva-multitaux
func (h *DevisHandler) UpdateTVAMultitaux(c *gin.Context) {
	var req service.UpdateTVAMultitauxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	devis, err := h.svc.UpdateTVAMultitaux(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, devis)
}

// RecordPaiement POST /api/v1/devis/:id/paiements
func (h *DevisHandler) RecordPaiement(c *gin.Context) {
	var req service.PaiementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.RecordPaiement(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, result)
}

// ListPaiements GET /api/v1/devis/:id/paiements
func (h *DevisHandler) ListPaiements(c *gin.Context) {
	items, err := h.svc.ListPaiements(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, items)
}

// Stats GET /api/v1/devis/stats
func (h *DevisHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), c.Query("type"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, stats)
}

// Export GET /api/v1/devis/export?format=csv|xlsx
func (h *DevisHandler) Export(c *gin.Context) {
	filters := devisFilters(c)
	timestamp := time.Now().Format("20060102")

	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		data, err := h.svc.ExportXLSX(c.Request.Context(), filters)
		if err != nil {
			HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=devis_%s.xlsx", timestamp))
		c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	case "csv":
		data, err := h.svc.ExportCSV(c.Request.Context(), filters)
		if err != nil {
			HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=devis_%s.csv", timestamp))
		c.Data(200, "text/csv; charset=utf-8", data)
	default:
		BadRequest(c, "format inconnu (csv ou xlsx)")
	}
}
