package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pabloERSH/nutrition-service/services"
)

type EatenFoodController struct {
	Svc *services.EatenFoodService
}

func NewEatenFoodController(svc *services.EatenFoodService) *EatenFoodController {
	return &EatenFoodController{Svc: svc}
}

// POST /v1/eaten-foods
func (h *EatenFoodController) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.EatenFoodInput
	if !bindJSON(c, &in) {
		return
	}

	out, err := h.Svc.Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Food saved successfully", "data": out})
}

// GET /v1/eaten-foods
func (h *EatenFoodController) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.Svc.List(c.Request.Context(), userID, pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /v1/eaten-foods/show-by-date?date=YYYY-MM-DD
func (h *EatenFoodController) ShowByDate(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.Svc.ListByDate(c.Request.Context(), userID, c.Query("date"), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /v1/eaten-foods/:id
func (h *EatenFoodController) Show(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	out, err := h.Svc.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// PATCH /v1/eaten-foods/:id
func (h *EatenFoodController) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in services.EatenFoodInput
	if !bindJSON(c, &in) {
		return
	}

	out, err := h.Svc.Update(c.Request.Context(), userID, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Food updated successfully", "data": out})
}

// DELETE /v1/eaten-foods/:id
func (h *EatenFoodController) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Food deleted successfully"})
}
