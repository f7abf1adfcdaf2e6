package handle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"urban-bites/internal/cart"
	"urban-bites/internal/domain/dto"
	"urban-bites/internal/domain/models"
	"urban-bites/internal/gateway"
	"urban-bites/internal/lifecycle"
	xerrors "urban-bites/internal/xpkg/errors"
	"urban-bites/internal/xpkg/logger"

	"github.com/gorilla/mux"
)

const maxItemQuantity = 50

type OrderHandler struct {
	gw    *gateway.Gateway
	mylog logger.Logger
}

func NewOrderHandler(gw *gateway.Gateway, mylog logger.Logger) *OrderHandler {
	return &OrderHandler{gw: gw, mylog: mylog}
}

// Create places an order for a table session. The table is resolved from the
// QR token, the cart is rebuilt server-side from menu snapshots, and the call
// succeeds or fails on the local write alone.
func (oh *OrderHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			oh.mylog.Action("parse_failed").Error("Failed to parse order request", err)
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		table, err := oh.gw.ResolveTable(r.Context(), req.Token)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, xerrors.ErrTableNotFound) {
				status = http.StatusNotFound
			}
			jsonError(w, status, err)
			return
		}

		cartItems, err := oh.buildCart(r.Context(), req.Items)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		order, items, err := oh.gw.NewOrder(r.Context(), table, cartItems, req.CustomerName, req.SpecialInstructions)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, err)
			return
		}

		if err := oh.gw.CreateOrder(r.Context(), order, items); err != nil {
			oh.mylog.Action("create_failed").Error("Order creation failed", err)
			jsonError(w, http.StatusInternalServerError, errors.New("failed to place order"))
			return
		}

		jsonResponse(w, http.StatusCreated, dto.OrderResponse{Order: order, Items: items})
	}
}

// buildCart validates request lines against the live menu and prices them
// from the menu snapshot, never from the client.
func (oh *OrderHandler) buildCart(ctx context.Context, lines []dto.OrderLine) ([]models.CartItem, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: items", xerrors.ErrFieldIsEmpty)
	}

	menu := oh.gw.FetchMenu(ctx)
	byID := make(map[string]models.MenuItem, len(menu.Items))
	for _, item := range menu.Items {
		byID[item.ID] = item
	}

	c := cart.New()
	for i, line := range lines {
		menuItem, ok := byID[line.MenuItemID]
		if !ok || !menuItem.IsAvailable {
			return nil, fmt.Errorf("item %d: unknown menu item %q", i+1, line.MenuItemID)
		}
		if line.Quantity < 1 || line.Quantity > maxItemQuantity {
			return nil, fmt.Errorf("item %d: quantity %d must be in range [1, %d]", i+1, line.Quantity, maxItemQuantity)
		}
		c.Add(menuItem, line.Quantity, line.SpecialInstructions)
	}
	return c.Items(), nil
}

// List returns all orders, optionally filtered by ?status=.
func (oh *OrderHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			orders []models.Order
			err    error
		)
		if raw := r.URL.Query().Get("status"); raw != "" {
			status := models.OrderStatus(raw)
			if !lifecycle.IsValidStatus(status) {
				jsonError(w, http.StatusBadRequest, fmt.Errorf("unknown status %q", raw))
				return
			}
			orders, err = oh.gw.OrdersByStatus(r.Context(), status)
		} else {
			orders, err = oh.gw.Orders(r.Context())
		}
		if err != nil {
			oh.mylog.Action("list_failed").Error("Failed to list orders", err)
			jsonError(w, http.StatusServiceUnavailable, errors.New("order store unavailable"))
			return
		}

		lifecycle.SortFIFO(orders)
		jsonResponse(w, http.StatusOK, orders)
	}
}

func (oh *OrderHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := oh.gw.Order(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeStoreError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, order)
	}
}

func (oh *OrderHandler) Items() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := oh.gw.OrderItems(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeStoreError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, items)
	}
}

// UpdateStatus applies one lifecycle transition.
func (oh *OrderHandler) UpdateStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}
		if !lifecycle.IsValidStatus(req.Status) {
			jsonError(w, http.StatusBadRequest, fmt.Errorf("unknown status %q", req.Status))
			return
		}

		order, err := oh.gw.UpdateOrderStatus(r.Context(), mux.Vars(r)["id"], req.Status)
		if err != nil {
			if errors.Is(err, xerrors.ErrInvalidTransition) {
				jsonError(w, http.StatusConflict, err)
				return
			}
			writeStoreError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, dto.OrderResponse{Order: order})
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrOrderNotFound):
		jsonError(w, http.StatusNotFound, err)
	case errors.Is(err, xerrors.ErrStorageUnavailable):
		jsonError(w, http.StatusServiceUnavailable, err)
	default:
		jsonError(w, http.StatusInternalServerError, err)
	}
}
