package orders

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
)

// recalculateTotal rewrites order_total from the billable items. It must run
// on a repository bound to the transaction that changed those items.
func recalculateTotal(ctx context.Context, repo Repository, orderID uuid.UUID) (int, error) {
	total, err := repo.SumBillableItems(ctx, orderID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum order items")
	}
	if err := repo.UpdateOrder(ctx, orderID, map[string]any{"order_total": total}); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order total")
	}
	return total, nil
}
