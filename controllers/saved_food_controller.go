package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pabloERSH/nutrition-service/services"
)

type SavedFoodController struct {
	Svc *services.SavedFoodService
}

func NewSavedFoodController(svc *services.SavedFoodService) *SavedFoodController {
	return &SavedFoodController{Svc: svc}
}

// POST /v1/saved-foods
func (h *SavedFoodController) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.SavedFoodInput
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

// GET /v1/saved-foods
func (h *SavedFoodController) List(c *gin.Context) {
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

// GET /v1/saved-foods/search?food_name=
func (h *SavedFoodController) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("food_name"))
	if query == "" {
		validationFailed(c, "The food_name field is required.")
		return
	}
	out, err := h.Svc.Search(c.Request.Context(), query, pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// PATCH /v1/saved-foods/:id
func (h *SavedFoodController) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in services.SavedFoodInput
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

// DELETE /v1/saved-foods/:id
func (h *SavedFoodController) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.Svc.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Food deleted successfully"})
}
