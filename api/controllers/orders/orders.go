package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tableside/pos-backend/api/responses"
	"github.com/tableside/pos-backend/api/validators"
	internalorders "github.com/tableside/pos-backend/internal/orders"
	"github.com/tableside/pos-backend/pkg/enums"
	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
	"github.com/tableside/pos-backend/pkg/logger"
	"github.com/tableside/pos-backend/pkg/pagination"
)

type itemRequest struct {
	DishID   string `json:"dish_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gt=0,max=999"`
}

type createOrderRequest struct {
	Tag   string        `json:"tag" validate:"required,max=64"`
	Items []itemRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

type addItemsRequest struct {
	Items []itemRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

type serveRequest struct {
	Served *bool `json:"served"`
}

// Create opens an order and snapshots the requested dishes.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := toItemInputs(payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateOrder(r.Context(), internalorders.CreateOrderInput{
			Tag:   validators.SanitizeString(payload.Tag, 64),
			Items: items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Detail returns one order with its items.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// List pages through orders newest first, optionally filtered by status.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.ListOrdersInput{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseOrderStatus(strings.ToLower(raw))
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status"))
				return
			}
			input.Status = &status
		}

		list, err := svc.ListOrders(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AddItems appends snapshotted items to an open order.
func AddItems(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := toItemInputs(payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.AddItems(r.Context(), orderID, items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Serve marks an item served or unserved. An empty body toggles.
func Serve(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, itemID, err := parseItemPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload serveRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SetItemServed(r.Context(), internalorders.SetServedInput{
			OrderID: orderID,
			ItemID:  itemID,
			Served:  payload.Served,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CancelItem(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, itemID, err := parseItemPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CancelItem(r.Context(), orderID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func RemoveItem(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, itemID, err := parseItemPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.RemoveItem(r.Context(), orderID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Close finalizes an order and returns its receipt summary.
func Close(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(logg, func(r *http.Request, orderID uuid.UUID) (any, error) {
		return svc.CloseOrder(r.Context(), orderID)
	})
}

func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(logg, func(r *http.Request, orderID uuid.UUID) (any, error) {
		return svc.CancelOrder(r.Context(), orderID)
	})
}

func TogglePayment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(logg, func(r *http.Request, orderID uuid.UUID) (any, error) {
		return svc.TogglePayment(r.Context(), orderID)
	})
}

func orderAction(logg *logger.Logger, fn func(r *http.Request, orderID uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := fn(r, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseItemPath(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	orderID, err := validators.ParseURLUUID(r, "orderId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	itemID, err := validators.ParseURLUUID(r, "itemId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return orderID, itemID, nil
}

func toItemInputs(items []itemRequest) ([]internalorders.ItemInput, error) {
	out := make([]internalorders.ItemInput, 0, len(items))
	for i, item := range items {
		dishID, err := uuid.Parse(strings.TrimSpace(item.DishID))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dish id").
				WithDetails(map[string]any{"field": "items", "index": i})
		}
		out = append(out, internalorders.ItemInput{DishID: dishID, Quantity: item.Quantity})
	}
	return out, nil
}
