package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/settlement/internal/receipt"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
)

type generateSettlementRequest struct {
	StoreID int64  `json:"store_id"`
	Date    string `json:"date"`
}

type generateSettlementsRequest struct {
	Date     string  `json:"date"`
	StoreIDs []int64 `json:"store_ids"`
}

type bulkSkip struct {
	StoreID int64  `json:"store_id"`
	Reason  string `json:"reason"`
}

type bulkExportFailure struct {
	SettlementID string `json:"settlement_id"`
	Reason       string `json:"reason"`
}

type generateSettlementsResponse struct {
	Created        []settlementdomain.Settlement `json:"created"`
	Skipped        []bulkSkip                    `json:"skipped"`
	ExportFailures []bulkExportFailure           `json:"export_failures"`
}

type markPaidRequest struct {
	PayoutDate string `json:"payout_date"`
}

func (s *Server) GetDailySettlement(c *gin.Context) {
	storeID, err := parseStoreID(c.Query("store_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	date, err := s.parsePastDate("date", c.Query("date"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.query.GetDaily(c.Request.Context(), storeID, date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) GetMonthlySettlement(c *gin.Context) {
	view, ok := s.monthlyView(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) DownloadMonthlyStatement(c *gin.Context) {
	s.writeStatement(c, receipt.FormatPDF)
}

func (s *Server) ExportMonthlyStatement(c *gin.Context) {
	s.writeStatement(c, receipt.FormatXLSX)
}

func (s *Server) writeStatement(c *gin.Context, format string) {
	if s.statements == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	view, ok := s.monthlyView(c)
	if !ok {
		return
	}

	var (
		data        []byte
		err         error
		contentType string
	)
	switch format {
	case receipt.FormatXLSX:
		data, err = s.statements.MonthlyXLSX(*view)
		contentType = receipt.ContentTypeXLSX
	default:
		data, err = s.statements.MonthlyPDF(*view)
		contentType = receipt.ContentTypePDF
	}
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", settlementdomain.ErrExportFailure, err))
		return
	}

	fileName := fmt.Sprintf("settlement-%d-%s.%s", view.StoreID, view.Period, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, contentType, data)
}

func (s *Server) monthlyView(c *gin.Context) (*settlementdomain.MonthlyView, bool) {
	storeID, err := parseStoreID(c.Query("store_id"))
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	period := strings.TrimSpace(c.Query("period"))
	if period == "" {
		AbortWithError(c, newValidationError("period", "required", "period is required"))
		return nil, false
	}

	view, err := s.query.GetMonthly(c.Request.Context(), storeID, period)
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	return view, true
}

func (s *Server) GetSettlementStats(c *gin.Context) {
	storeID, err := parseStoreID(c.Query("store_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	from, err := parseDate("from", c.Query("from"), s.loc)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	to, err := parseDate("to", c.Query("to"), s.loc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items, err := s.query.GetStats(c.Request.Context(), storeID, from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) ListSettlements(c *gin.Context) {
	storeID, err := parseStoreID(c.Query("store_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items, err := s.query.GetList(c.Request.Context(), storeID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) ListSettlementOrders(c *gin.Context) {
	storeID, err := parseStoreID(c.Query("store_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	date, err := s.parsePastDate("date", c.Query("date"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	orders, err := s.query.GetOrdersBySettlementDate(c.Request.Context(), storeID, date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders})
}

func (s *Server) GetSettlementByID(c *gin.Context) {
	id, err := parseSettlementID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.query.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DownloadReceipt(c *gin.Context) {
	id, err := parseSettlementID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data, name, err := s.query.OpenReceipt(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, receipt.ContentTypePDF, data)
}

func (s *Server) RegenerateReceipt(c *gin.Context) {
	id, err := parseSettlementID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.generator.RegenerateReceipt(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) GenerateSettlement(c *gin.Context) {
	var req generateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.StoreID <= 0 {
		AbortWithError(c, newValidationError("store_id", "invalid_store", "store_id must be a positive integer"))
		return
	}
	date, err := s.parsePastDate("date", req.Date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.generator.CreateSettlement(c.Request.Context(), req.StoreID, date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) GenerateSettlements(c *gin.Context) {
	var req generateSettlementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.StoreIDs) == 0 {
		AbortWithError(c, newValidationError("store_ids", "required", "store_ids is required"))
		return
	}
	date, err := s.parsePastDate("date", req.Date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.generator.CreateSettlements(c.Request.Context(), date, req.StoreIDs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newGenerateSettlementsResponse(result)})
}

func newGenerateSettlementsResponse(result *settlementdomain.BulkResult) generateSettlementsResponse {
	resp := generateSettlementsResponse{
		Created:        result.Created,
		Skipped:        make([]bulkSkip, 0, len(result.Skipped)),
		ExportFailures: make([]bulkExportFailure, 0, len(result.ExportFailures)),
	}
	if resp.Created == nil {
		resp.Created = []settlementdomain.Settlement{}
	}
	for storeID, err := range result.Skipped {
		resp.Skipped = append(resp.Skipped, bulkSkip{StoreID: storeID, Reason: err.Error()})
	}
	slices.SortFunc(resp.Skipped, func(a, b bulkSkip) int {
		switch {
		case a.StoreID < b.StoreID:
			return -1
		case a.StoreID > b.StoreID:
			return 1
		default:
			return 0
		}
	})
	for id, err := range result.ExportFailures {
		resp.ExportFailures = append(resp.ExportFailures, bulkExportFailure{SettlementID: id.String(), Reason: err.Error()})
	}
	slices.SortFunc(resp.ExportFailures, func(a, b bulkExportFailure) int {
		return strings.Compare(a.SettlementID, b.SettlementID)
	})
	return resp
}

func (s *Server) MarkSettlementPaid(c *gin.Context) {
	id, err := parseSettlementID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req markPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return
	}
	payoutDate, err := parseOptionalDate("payout_date", req.PayoutDate, s.loc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.lifecycle.MarkPaid(c.Request.Context(), id, payoutDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) MarkSettlementCompleted(c *gin.Context) {
	id, err := parseSettlementID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.lifecycle.MarkCompleted(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) MarkSettlementFailed(c *gin.Context) {
	id, err := parseSettlementID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.lifecycle.MarkFailed(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}
