package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	orderapp "github.com/swapmarket/backend/internal/application/order"
)

// OrderHandler handles order fulfillment API endpoints
type OrderHandler struct {
	BaseHandler
	fulfillmentService *orderapp.FulfillmentService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(fulfillmentService *orderapp.FulfillmentService) *OrderHandler {
	return &OrderHandler{
		fulfillmentService: fulfillmentService,
	}
}

// Create godoc
// @Summary      Place a new order
// @Description  Place an order from a buyer against a seller's listed inventory
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body orderapp.CreateOrderRequest true "Order creation request"
// @Success      201 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /order [post]
func (h *OrderHandler) Create(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req orderapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	o, err := h.fulfillmentService.Create(c.Request.Context(), callerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, o)
}

// GetByID godoc
// @Summary      Get an order by ID
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /order/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	o, err := h.fulfillmentService.GetByID(c.Request.Context(), callerID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, o)
}

// ListForSeller godoc
// @Summary      List orders addressed to the caller as seller
// @Tags         orders
// @Produce      json
// @Param        status query string false "Order status" Enums(PENDING, CONFIRMED, REJECTED, PARTIALLY_FULFILLED)
// @Success      200 {object} dto.Response{data=[]orderapp.OrderResponse}
// @Security     BearerAuth
// @Router       /order/incoming [get]
func (h *OrderHandler) ListForSeller(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	orders, err := h.fulfillmentService.ListForSeller(c.Request.Context(), callerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, orders)
}

// ListForBuyer godoc
// @Summary      List orders placed by the caller as buyer
// @Tags         orders
// @Produce      json
// @Param        status query string false "Order status" Enums(PENDING, CONFIRMED, REJECTED, PARTIALLY_FULFILLED)
// @Success      200 {object} dto.Response{data=[]orderapp.OrderResponse}
// @Security     BearerAuth
// @Router       /order/outgoing [get]
func (h *OrderHandler) ListForBuyer(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	orders, err := h.fulfillmentService.ListForBuyer(c.Request.Context(), callerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, orders)
}

// ConfirmOrReject godoc
// @Summary      Decide a pending order
// @Description  Seller confirms the full order (decrementing stock) or rejects it with a reason
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body orderapp.ConfirmOrRejectRequest true "Whole-order decision"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /order/confirm-reject [post]
func (h *OrderHandler) ConfirmOrReject(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req orderapp.ConfirmOrRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	o, err := h.fulfillmentService.ConfirmOrReject(c.Request.Context(), callerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, o)
}

// ProcessPartial godoc
// @Summary      Process line-by-line fulfillment
// @Description  Seller decides each line individually; confirmed quantities are capped at current stock. Idempotent per order.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body orderapp.ProcessPartialRequest true "Per-line decisions"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /order/process-partial [post]
func (h *OrderHandler) ProcessPartial(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req orderapp.ProcessPartialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	o, err := h.fulfillmentService.ProcessPartial(c.Request.Context(), callerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, o)
}

func (h *OrderHandler) bindListFilter(c *gin.Context) (orderapp.OrderListFilter, bool) {
	var filter orderapp.OrderListFilter
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
