package handler

import (
	"errors"
	"strconv"

	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/chantierpro/chantierpro/internal/service"
	"github.com/chantierpro/chantierpro/internal/sse"
	"github.com/gin-gonic/gin"
)

// Handlers collection des handlers HTTP
type Handlers struct {
	Auth     *AuthHandler
	User     *UserHandler
	Chantier *ChantierHandler
	Devis    *DevisHandler
	Document *DocumentHandler
	Message  *MessageHandler
	Planning *PlanningHandler
	SSE      *SSEHandler
}

// NewHandlers crée la collection des handlers
func NewHandlers(services *service.Services, hub *sse.Hub) *Handlers {
	return &Handlers{
		Auth:     NewAuthHandler(services.Auth),
		User:     NewUserHandler(services.User),
		Chantier: NewChantierHandler(services.Chantier),
		Devis:    NewDevisHandler(services.Devis),
		Document: NewDocumentHandler(services.Document),
		Message:  NewMessageHandler(services.Message),
		Planning: NewPlanningHandler(services.Planning),
		SSE:      NewSSEHandler(hub),
	}
}

// === Enveloppe de réponse ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewPagination(page, pageSize int, total int64) *Pagination {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      int(total),
		TotalPages: totalPages,
	}
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// HandleError traduit les erreurs métier en réponse HTTP
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "ressource introuvable")
	case errors.Is(err, service.ErrTransitionInvalide):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrAccesRefuse):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrEmailPris):
		BadRequest(c, err.Error())
	case service.IsValidation(err):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
