package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/govalues/decimal"
	"github.com/shopengine/order-service/internal/entities"
	"github.com/shopengine/order-service/internal/middleware"
	"github.com/shopengine/order-service/internal/service"
	"github.com/shopengine/order-service/pkg/utils"
)

type OrderService interface {
	CreateOrder(ctx context.Context, requester entities.Requester, items []service.NewOrderItem, total decimal.Decimal) (string, error)
	ListOrders(ctx context.Context, requester entities.Requester) ([]entities.OrderSummary, error)
	GetOrderByID(ctx context.Context, requester entities.Requester, orderID string) (entities.Order, error)
	ChangeStatus(ctx context.Context, requester entities.Requester, orderID string, status string) (entities.Order, error)
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewHTTPHandler(logger *slog.Logger, svc OrderService) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.Get("/{order_id}", h.GetOrderByID)
		r.Patch("/{order_id}", h.ChangeStatus)
	})
}

// CreateOrder persists a submitted cart as an order.
// @Summary      Create an order
// @Description  Validates the submitted items and total and persists the order atomically
// @Tags         orders
// @Accept       json
// @Param        order  body  CreateOrderRequest  true  "Order payload"
// @Success      201  {object}  CreateOrderResponse
// @Failure      400  {object}  utils.ErrorResponse "Validation or total mismatch"
// @Failure      401  {object}  utils.ErrorResponse "Missing or invalid credentials"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders [post]
func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requester, ok := middleware.RequesterFromContext(ctx)
	if !ok {
		utils.WriteError(w, "requester is not authenticated", http.StatusUnauthorized)
		return
	}

	var req CreateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	items, err := ItemsToInput(req.Items)
	if err != nil {
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}

	total, err := decimal.NewFromFloat64(req.Total)
	if err != nil {
		utils.WriteError(w, entities.ErrInvalidTotal.Error(), http.StatusBadRequest)
		return
	}

	orderID, err := h.svc.CreateOrder(ctx, requester, items, total)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	ordersCreated.Inc()
	utils.WriteJSON(w, CreateOrderResponse{OrderID: orderID}, http.StatusCreated)
}

// ListOrders returns the orders visible to the requester.
// @Summary      List orders
// @Description  Admins see every order annotated with owner names; everyone else sees only their own
// @Tags         orders
// @Success      200  {array}   OrderSummary
// @Failure      401  {object}  utils.ErrorResponse "Missing or invalid credentials"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders [get]
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requester, ok := middleware.RequesterFromContext(ctx)
	if !ok {
		utils.WriteError(w, "requester is not authenticated", http.StatusUnauthorized)
		return
	}

	orders, err := h.svc.ListOrders(ctx, requester)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	result := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		result = append(result, SummaryEntityToJSON(o))
	}

	utils.WriteJSON(w, result, http.StatusOK)
}

// GetOrderByID returns one order with its lines.
// @Summary      Get an order
// @Tags         orders
// @Param        order_id  path  string  true  "Order identifier"
// @Success      200  {object}  Order
// @Failure      404  {object}  utils.ErrorResponse "Order not found or not visible"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders/{order_id} [get]
func (h *HTTPHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requester, ok := middleware.RequesterFromContext(ctx)
	if !ok {
		utils.WriteError(w, "requester is not authenticated", http.StatusUnauthorized)
		return
	}

	orderID := chi.URLParam(r, "order_id")
	if err := h.validate.Var(orderID, "required,uuid"); err != nil {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}

	order, err := h.svc.GetOrderByID(ctx, requester, orderID)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// ChangeStatus applies an admin-initiated status transition.
// @Summary      Change order status
// @Tags         orders
// @Accept       json
// @Param        order_id  path  string               true  "Order identifier"
// @Param        status    body  ChangeStatusRequest  true  "New status"
// @Success      200  {object}  Order
// @Failure      400  {object}  utils.ErrorResponse "Invalid status"
// @Failure      403  {object}  utils.ErrorResponse "Requester is not an admin"
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders/{order_id} [patch]
func (h *HTTPHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requester, ok := middleware.RequesterFromContext(ctx)
	if !ok {
		utils.WriteError(w, "requester is not authenticated", http.StatusUnauthorized)
		return
	}

	orderID := chi.URLParam(r, "order_id")
	if err := h.validate.Var(orderID, "required,uuid"); err != nil {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}

	var req ChangeStatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.ChangeStatus(ctx, requester, orderID, req.Status)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	statusChanges.Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// writeServiceError maps engine errors to response categories. The
// taxonomy errors keep their messages; store internals never leak.
func (h *HTTPHandler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var lineErr *entities.LineItemError
	var mismatchErr *entities.TotalMismatchError

	switch {
	case errors.Is(err, entities.ErrMissingRequester):
		utils.WriteError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, entities.ErrEmptyItems),
		errors.Is(err, entities.ErrInvalidTotal),
		errors.Is(err, entities.ErrInvalidStatus),
		errors.As(err, &lineErr),
		errors.As(err, &mismatchErr):
		ordersRejected.Inc()
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, entities.ErrForbidden):
		utils.WriteError(w, "only admins may change order status", http.StatusForbidden)
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
	default:
		ordersFailed.Inc()
		h.logger.ErrorContext(ctx, "order operation failed", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
