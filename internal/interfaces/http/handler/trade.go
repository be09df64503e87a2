package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	barterapp "github.com/swapmarket/backend/internal/application/barter"
)

// TradeHandler handles barter trade API endpoints
type TradeHandler struct {
	BaseHandler
	tradeService *barterapp.TradeService
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(tradeService *barterapp.TradeService) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
	}
}

// Initiate godoc
// @Summary      Propose a new barter trade
// @Description  Propose a trade offering one product line in exchange for another
// @Tags         trades
// @Accept       json
// @Produce      json
// @Param        request body barterapp.ProposeTradeRequest true "Trade proposal"
// @Success      201 {object} dto.Response{data=barterapp.TradeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /trades/initiate [post]
func (h *TradeHandler) Initiate(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req barterapp.ProposeTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trade, err := h.tradeService.Propose(c.Request.Context(), callerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, trade)
}

// Update godoc
// @Summary      Revise trade quantities
// @Description  Revise the offered and requested quantities of a pending trade (proposer only)
// @Tags         trades
// @Accept       json
// @Produce      json
// @Param        request body barterapp.UpdateTradeRequest true "Trade revision"
// @Success      200 {object} dto.Response{data=barterapp.TradeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /trades/update [post]
func (h *TradeHandler) Update(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req barterapp.UpdateTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trade, err := h.tradeService.Update(c.Request.Context(), callerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, trade)
}

// Accept godoc
// @Summary      Accept a trade
// @Description  Accept a pending trade (counterpart only)
// @Tags         trades
// @Accept       json
// @Produce      json
// @Param        request body barterapp.AcceptTradeRequest true "Trade acceptance"
// @Success      200 {object} dto.Response{data=barterapp.TradeResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /trades/accept [post]
func (h *TradeHandler) Accept(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req barterapp.AcceptTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trade, err := h.tradeService.Accept(c.Request.Context(), callerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, trade)
}

// Reject godoc
// @Summary      Reject a trade
// @Description  Reject a pending trade with a reason (counterpart only)
// @Tags         trades
// @Accept       json
// @Produce      json
// @Param        request body barterapp.RejectTradeRequest true "Trade rejection"
// @Success      200 {object} dto.Response{data=barterapp.TradeResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /trades/reject [post]
func (h *TradeHandler) Reject(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req barterapp.RejectTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trade, err := h.tradeService.Reject(c.Request.Context(), callerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, trade)
}

// Cancel godoc
// @Summary      Cancel a trade
// @Description  Withdraw a pending trade (proposer only)
// @Tags         trades
// @Accept       json
// @Produce      json
// @Param        request body barterapp.CancelTradeRequest true "Trade cancellation"
// @Success      200 {object} dto.Response{data=barterapp.TradeResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /trades/cancel [post]
func (h *TradeHandler) Cancel(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req barterapp.CancelTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trade, err := h.tradeService.Cancel(c.Request.Context(), callerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, trade)
}

// UpdateShipping godoc
// @Summary      Update shipping progress
// @Description  Advance the shipping status of an accepted trade
// @Tags         trades
// @Accept       json
// @Produce      json
// @Param        request body barterapp.UpdateShippingRequest true "Shipping update"
// @Success      200 {object} dto.Response{data=barterapp.TradeResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /trades/shipping/update [post]
func (h *TradeHandler) UpdateShipping(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req barterapp.UpdateShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trade, err := h.tradeService.UpdateShipping(c.Request.Context(), callerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, trade)
}

// ConfirmDelivery godoc
// @Summary      Confirm delivery
// @Description  Acknowledge receipt of the traded goods; when both parties have confirmed the trade settles
// @Tags         trades
// @Accept       json
// @Produce      json
// @Param        request body barterapp.ConfirmDeliveryRequest true "Delivery confirmation"
// @Success      200 {object} dto.Response{data=barterapp.TradeResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /trades/confirm-delivery [post]
func (h *TradeHandler) ConfirmDelivery(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req barterapp.ConfirmDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trade, err := h.tradeService.ConfirmDelivery(c.Request.Context(), callerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, trade)
}

// Complete godoc
// @Summary      Complete a trade
// @Description  Trigger settlement of a dual-confirmed trade; idempotent for already-completed trades
// @Tags         trades
// @Accept       json
// @Produce      json
// @Param        request body barterapp.CompleteTradeRequest true "Trade completion"
// @Success      200 {object} dto.Response{data=barterapp.TradeResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /trades/complete [post]
func (h *TradeHandler) Complete(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req barterapp.CompleteTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trade, err := h.tradeService.Complete(c.Request.Context(), callerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, trade)
}

// GetByID godoc
// @Summary      Get a trade by ID
// @Tags         trades
// @Produce      json
// @Param        id path string true "Trade ID" format(uuid)
// @Success      200 {object} dto.Response{data=barterapp.TradeResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /trades/{id} [get]
func (h *TradeHandler) GetByID(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	tradeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid trade ID format")
		return
	}

	trade, err := h.tradeService.GetByID(c.Request.Context(), callerID, tradeID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, trade)
}

// List godoc
// @Summary      List trades for the caller
// @Description  Paginated list of trades where the caller is proposer or counterpart
// @Tags         trades
// @Produce      json
// @Param        status query string false "Trade status" Enums(PENDING, ACCEPTED, REJECTED, CANCELLED, COMPLETED)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]barterapp.TradeResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /trades [get]
func (h *TradeHandler) List(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	trades, total, err := h.tradeService.ListForParty(c.Request.Context(), callerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, trades, total, filter.Page, filter.PageSize)
}

// ListLogistics godoc
// @Summary      List trades in the logistics phase
// @Description  Accepted trades awaiting shipment or delivery confirmation
// @Tags         trades
// @Produce      json
// @Success      200 {object} dto.Response{data=[]barterapp.TradeResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /trades/logistics [get]
func (h *TradeHandler) ListLogistics(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	trades, total, err := h.tradeService.ListLogistics(c.Request.Context(), callerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, trades, total, filter.Page, filter.PageSize)
}

// ListCompleted godoc
// @Summary      List completed trades
// @Tags         trades
// @Produce      json
// @Success      200 {object} dto.Response{data=[]barterapp.TradeResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /trades/completed [get]
func (h *TradeHandler) ListCompleted(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	trades, total, err := h.tradeService.ListCompleted(c.Request.Context(), callerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, trades, total, filter.Page, filter.PageSize)
}

// ListReceivedProducts godoc
// @Summary      List products received through trades
// @Description  Inventory the caller acquired through completed trades, with provenance
// @Tags         trades
// @Produce      json
// @Success      200 {object} dto.Response{data=[]barterapp.ReceivedProductResponse}
// @Security     BearerAuth
// @Router       /trades/received-products [get]
func (h *TradeHandler) ListReceivedProducts(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	products, err := h.tradeService.ListReceivedProducts(c.Request.Context(), callerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, products)
}

func (h *TradeHandler) bindListFilter(c *gin.Context) (barterapp.TradeListFilter, bool) {
	var filter barterapp.TradeListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return filter, false
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return filter, true
}
