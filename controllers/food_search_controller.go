package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pabloERSH/nutrition-service/services"
)

type FoodSearchController struct {
	Svc *services.FatSecretService
}

func NewFoodSearchController(svc *services.FatSecretService) *FoodSearchController {
	return &FoodSearchController{Svc: svc}
}

// GET /v1/nutrition-service/foods/search?query=apple&page=0&max_results=20
func (h *FoodSearchController) Search(c *gin.Context) {
	var msgs []string
	query := strings.TrimSpace(c.Query("query"))
	if len([]rune(query)) < 2 {
		msgs = append(msgs, "The query must be at least 2 characters.")
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		msgs = append(msgs, "The page must be an integer of at least 0.")
	}
	maxResults, err := strconv.Atoi(c.DefaultQuery("max_results", "20"))
	if err != nil || maxResults < 1 || maxResults > services.MaxExternalResults {
		msgs = append(msgs, "The max_results must be an integer between 1 and 50.")
	}
	if len(msgs) > 0 {
		validationFailed(c, msgs...)
		return
	}

	items, err := h.Svc.SearchFoods(c.Request.Context(), query, page, maxResults)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}
