package handler

import (
	"github.com/chantierpro/chantierpro/internal/service"
	"github.com/gin-gonic/gin"
)

// PlanningHandler événements de calendrier
type PlanningHandler struct {
	svc *service.PlanningService
}

func NewPlanningHandler(svc *service.PlanningService) *PlanningHandler {
	return &PlanningHandler{svc: svc}
}

// List GET /api/v1/planning
func (h *PlanningHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"type":            c.Query("type"),
		"chantier_id":     c.Query("chantier_id"),
		"organisateur_id": c.Query("organisateur_id"),
		"from":            c.Query("from"),
		"to":              c.Query("to"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Get GET /api/v1/planning/:id
func (h *PlanningHandler) Get(c *gin.Context) {
	event, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, event)
}

// Create POST /api/v1/planning
func (h *PlanningHandler) Create(c *gin.Context) {
	var req service.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	event, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, event)
}

// Update PUT /api/v1/planning/:id
func (h *PlanningHandler) Update(c *gin.Context) {
	var req service.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	event, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, event)
}

// Delete DELETE /api/v1/planning/:id
func (h *PlanningHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// CheckConflicts POST /api/v1/planning/conflicts
func (h *PlanningHandler) CheckConflicts(c *gin.Context) {
	var q service.ConflictQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		BadRequest(c, err.Error())
		return
	}

	conflicts, err := h.svc.CheckConflicts(c.Request.Context(), &q)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{
		"conflict":  len(conflicts) > 0,
		"conflicts": conflicts,
	})
}
