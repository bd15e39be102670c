package inventory

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tableside/pos-backend/api/responses"
	"github.com/tableside/pos-backend/api/validators"
	internalinventory "github.com/tableside/pos-backend/internal/inventory"
	"github.com/tableside/pos-backend/pkg/logger"
)

const (
	defaultMovementLimit = 100
	maxMovementLimit     = 500
)

type restockRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// ListStock returns every ingredient's stock level. low_stock=true keeps only
// rows at or below the configured threshold.
func ListStock(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lowOnly, err := validators.ParseQueryBool(r, "low_stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListStock(r.Context(), lowOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func Restock(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ingredientID, err := validators.ParseURLUUID(r, "ingredientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload restockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stock, err := svc.Restock(r.Context(), ingredientID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stock)
	}
}

// Movements lists the stock audit trail, newest first.
func Movements(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", defaultMovementLimit, 1, maxMovementLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ingredientID, err := validators.ParseQueryUUID(r, "ingredient_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderItemID, err := validators.ParseQueryUUID(r, "order_item_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListMovements(r.Context(), internalinventory.MovementFilters{
			IngredientID: ingredientID,
			OrderItemID:  orderItemID,
			Limit:        limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
