package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	demandplandomain "github.com/smallbiznis/settlement/internal/demandplan/domain"
)

func (s *Server) GetOrderCountForecast(c *gin.Context) {
	storeID, err := parseStoreID(c.Query("store_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	term, err := parseOptionalInt(c.Query("term"), demandplandomain.PrimaryTermDays)
	if err != nil || term < 0 {
		AbortWithError(c, newValidationError("term", "invalid_period", "term must be a non-negative number of days"))
		return
	}

	count, err := s.query.GetOrderCountInTerm(c.Request.Context(), storeID, term)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"store_id":    storeID,
		"term_days":   term,
		"order_count": count,
	}})
}

func (s *Server) GetReorderRecommendation(c *gin.Context) {
	storeID, err := parseStoreID(c.Query("store_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	current, err := parseNonNegativeInt64("current_stock", c.Query("current_stock"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	minimum, err := parseNonNegativeInt64("minimum_stock", c.Query("minimum_stock"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rec, err := s.demandPlan.Recommend(c.Request.Context(), storeID, current, minimum)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rec})
}
