package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tableside/pos-backend/internal/inventory"
	"github.com/tableside/pos-backend/pkg/db/models"
	"github.com/tableside/pos-backend/pkg/enums"
	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
	"github.com/tableside/pos-backend/pkg/logger"
	"github.com/tableside/pos-backend/pkg/metrics"
	"github.com/tableside/pos-backend/pkg/outbox"
	"github.com/tableside/pos-backend/pkg/outbox/payloads"
	"github.com/tableside/pos-backend/pkg/pagination"
)

const (
	maxTagLength    = 64
	maxItemsPerCall = 100
	maxItemQuantity = 999
)

// Service runs every order mutation as one transaction: item status change,
// stock movement and total recalculation commit or roll back together.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	AddItems(ctx context.Context, orderID uuid.UUID, items []ItemInput) (*OrderDTO, error)
	SetItemServed(ctx context.Context, input SetServedInput) (*ItemStatusDTO, error)
	CancelItem(ctx context.Context, orderID, itemID uuid.UUID) (*ItemStatusDTO, error)
	RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*OrderDTO, error)
	CloseOrder(ctx context.Context, orderID uuid.UUID) (*OrderSummaryDTO, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	TogglePayment(ctx context.Context, orderID uuid.UUID) (*PaymentDTO, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, input ListOrdersInput) (*OrderList, error)
}

// CreateOrderInput holds the validated payload to open an order.
type CreateOrderInput struct {
	Tag   string
	Items []ItemInput
}

// ItemInput is one requested line. Repeated dish ids become separate items.
type ItemInput struct {
	DishID   uuid.UUID
	Quantity int
}

// SetServedInput marks an item served or unserved. A nil Served toggles.
type SetServedInput struct {
	OrderID uuid.UUID
	ItemID  uuid.UUID
	Served  *bool
}

// ListOrdersInput carries list filters and cursor pagination.
type ListOrdersInput struct {
	Status *enums.OrderStatus
	Limit  int
	Cursor string
}

type service struct {
	repo    Repository
	tx      txRunner
	catalog DishCatalog
	stock   StockAdjuster
	outbox  outbox.Emitter
	metrics *metrics.POSMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// Option customises the order service.
type Option func(*service)

func WithMetrics(m *metrics.POSMetrics) Option {
	return func(s *service) { s.metrics = m }
}

func WithLogger(logg *logger.Logger) Option {
	return func(s *service) { s.logg = logg }
}

// WithClock replaces the UTC wall clock used for order and item timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner, catalog DishCatalog, stock StockAdjuster, emitter outbox.Emitter, opts ...Option) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("dish catalog required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	s := &service{
		repo:    repo,
		tx:      tx,
		catalog: catalog,
		stock:   stock,
		outbox:  emitter,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	tag := strings.TrimSpace(input.Tag)
	if tag == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tag is required")
	}
	if utf8.RuneCountInString(tag) > maxTagLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "tag must be at most %d characters", maxTagLength)
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:        uuid.New(),
		Tag:       tag,
		Status:    enums.OrderStatusOpen,
		CreatedAt: now,
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		dishes, err := s.catalog.ActiveDishes(ctx, tx, dishIDs(input.Items))
		if err != nil {
			return err
		}
		if err := txRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
		}
		items := snapshotItems(order.ID, input.Items, dishes, now)
		if err := txRepo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order items")
		}
		total, err := recalculateTotal(ctx, txRepo, order.ID)
		if err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			OccurredAt:    now,
			Data: payloads.OrderCreatedEvent{
				OrderID:    order.ID,
				Tag:        tag,
				TotalCents: total,
				Items:      itemSnapshots(items),
				CreatedAt:  now,
			},
		})
	}); err != nil {
		return nil, wrapTxError(err, "create order")
	}

	s.metrics.IncOrderCreated()
	s.logInfo(ctx, order.ID, uuid.Nil, "order.created")
	return s.GetOrder(ctx, order.ID)
}

func (s *service) AddItems(ctx context.Context, orderID uuid.UUID, items []ItemInput) (*OrderDTO, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := s.lockOpenOrder(ctx, txRepo, orderID); err != nil {
			return err
		}

		dishes, err := s.catalog.ActiveDishes(ctx, tx, dishIDs(items))
		if err != nil {
			return err
		}
		rows := snapshotItems(orderID, items, dishes, now)
		if err := txRepo.CreateItems(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order items")
		}
		total, err := recalculateTotal(ctx, txRepo, orderID)
		if err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderItemsAdded,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			OccurredAt:    now,
			Data: payloads.OrderItemsAddedEvent{
				OrderID:    orderID,
				TotalCents: total,
				Items:      itemSnapshots(rows),
			},
		})
	}); err != nil {
		return nil, wrapTxError(err, "add order items")
	}

	s.logInfo(ctx, orderID, uuid.Nil, "order.items_added")
	return s.GetOrder(ctx, orderID)
}

// SetItemServed drives the PENDING <-> SERVED edge. Entering SERVED deducts
// the recipe from stock; leaving it returns the recorded deduction. Requests
// that do not change the status are no-ops and touch neither stock nor total.
func (s *service) SetItemServed(ctx context.Context, input SetServedInput) (*ItemStatusDTO, error) {
	var result ItemStatusDTO
	changed := false

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := s.lockOpenOrder(ctx, txRepo, input.OrderID)
		if err != nil {
			return err
		}
		item, err := findItem(ctx, txRepo, input.OrderID, input.ItemID)
		if err != nil {
			return err
		}

		target, err := servedTarget(item.Status, input.Served)
		if err != nil {
			return err
		}
		result = ItemStatusDTO{OrderID: order.ID, ItemID: item.ID, Status: item.Status, OrderTotal: order.OrderTotalCents}
		if target == item.Status {
			return nil
		}
		if !item.Status.CanTransitionTo(target) {
			return transitionConflict(item.Status, target)
		}

		now := s.now()
		updates := map[string]any{"status": target, "updated_at": now}
		if target == enums.OrderItemStatusServed {
			updates["served_at"] = now
		} else {
			updates["served_at"] = nil
		}
		if err := txRepo.UpdateItem(ctx, item.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order item")
		}

		ref := inventory.ItemRef{ItemID: item.ID, DishID: item.DishID, Quantity: item.Quantity}
		var stockChanges []payloads.StockChange
		if target == enums.OrderItemStatusServed {
			stockChanges, err = s.stock.Deduct(ctx, tx, ref)
		} else {
			stockChanges, err = s.stock.Reverse(ctx, tx, ref)
		}
		if err != nil {
			return err
		}

		total, err := recalculateTotal(ctx, txRepo, order.ID)
		if err != nil {
			return err
		}

		statusEvent := payloads.OrderItemStatusEvent{
			OrderID:    order.ID,
			ItemID:     item.ID,
			DishID:     item.DishID,
			Quantity:   item.Quantity,
			From:       item.Status,
			To:         target,
			TotalCents: total,
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderItemUnserved,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			OccurredAt:    now,
			Data:          payloads.OrderItemServedEvent{OrderItemStatusEvent: statusEvent, StockChanges: stockChanges},
		}
		if target == enums.OrderItemStatusServed {
			event.EventType = enums.EventOrderItemServed
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		result.Status = target
		result.OrderTotal = total
		changed = true
		return nil
	}); err != nil {
		return nil, wrapTxError(err, "update order item")
	}

	if changed {
		s.metrics.IncItemTransition(result.Status.String())
		s.logInfo(ctx, result.OrderID, result.ItemID, "order_item."+result.Status.String())
	}
	return &result, nil
}

func (s *service) CancelItem(ctx context.Context, orderID, itemID uuid.UUID) (*ItemStatusDTO, error) {
	var result ItemStatusDTO
	changed := false

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := s.lockOpenOrder(ctx, txRepo, orderID)
		if err != nil {
			return err
		}
		item, err := findItem(ctx, txRepo, orderID, itemID)
		if err != nil {
			return err
		}

		result = ItemStatusDTO{OrderID: order.ID, ItemID: item.ID, Status: item.Status, OrderTotal: order.OrderTotalCents}
		if item.Status == enums.OrderItemStatusCancelled {
			return nil
		}
		if !item.Status.CanTransitionTo(enums.OrderItemStatusCancelled) {
			return transitionConflict(item.Status, enums.OrderItemStatusCancelled)
		}

		now := s.now()
		if err := txRepo.UpdateItem(ctx, item.ID, map[string]any{"status": enums.OrderItemStatusCancelled, "updated_at": now}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order item")
		}
		total, err := recalculateTotal(ctx, txRepo, order.ID)
		if err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderItemCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			OccurredAt:    now,
			Data: payloads.OrderItemStatusEvent{
				OrderID:    order.ID,
				ItemID:     item.ID,
				DishID:     item.DishID,
				Quantity:   item.Quantity,
				From:       item.Status,
				To:         enums.OrderItemStatusCancelled,
				TotalCents: total,
			},
		}); err != nil {
			return err
		}

		result.Status = enums.OrderItemStatusCancelled
		result.OrderTotal = total
		changed = true
		return nil
	}); err != nil {
		return nil, wrapTxError(err, "cancel order item")
	}

	if changed {
		s.metrics.IncItemTransition(result.Status.String())
		s.logInfo(ctx, orderID, itemID, "order_item.cancelled")
	}
	return &result, nil
}

// RemoveItem deletes a pending or cancelled item. Served items hold consumed
// stock and must be unserved first.
func (s *service) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*OrderDTO, error) {
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := s.lockOpenOrder(ctx, txRepo, orderID)
		if err != nil {
			return err
		}
		item, err := findItem(ctx, txRepo, orderID, itemID)
		if err != nil {
			return err
		}
		if item.Status == enums.OrderItemStatusServed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "served items cannot be removed").
				WithDetails(map[string]any{"item_id": item.ID.String(), "status": item.Status})
		}

		if err := txRepo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete order item")
		}
		total, err := recalculateTotal(ctx, txRepo, order.ID)
		if err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderItemRemoved,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			OccurredAt:    s.now(),
			Data: payloads.OrderItemStatusEvent{
				OrderID:    order.ID,
				ItemID:     item.ID,
				DishID:     item.DishID,
				Quantity:   item.Quantity,
				From:       item.Status,
				TotalCents: total,
			},
		})
	}); err != nil {
		return nil, wrapTxError(err, "remove order item")
	}

	s.logInfo(ctx, orderID, itemID, "order_item.removed")
	return s.GetOrder(ctx, orderID)
}

// CloseOrder settles the bill: the order becomes CLOSED and paid.
func (s *service) CloseOrder(ctx context.Context, orderID uuid.UUID) (*OrderSummaryDTO, error) {
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := s.lockOpenOrder(ctx, txRepo, orderID); err != nil {
			return err
		}
		total, err := recalculateTotal(ctx, txRepo, orderID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := txRepo.UpdateOrder(ctx, orderID, map[string]any{
			"status":          enums.OrderStatusClosed,
			"is_payment_done": true,
			"closed_at":       now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: close order")
		}

		order, err := txRepo.FindOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderClosed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			OccurredAt:    now,
			Data: payloads.OrderClosedEvent{
				OrderID:    orderID,
				TotalCents: total,
				ItemCount:  len(order.Items),
				ClosedAt:   now,
			},
		})
	}); err != nil {
		return nil, wrapTxError(err, "close order")
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}
	s.logInfo(ctx, orderID, uuid.Nil, "order.closed")
	return newOrderSummary(order), nil
}

// CancelOrder abandons an open order. Pending items are cancelled; served
// items keep their status and the stock they consumed.
func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := s.lockOpenOrder(ctx, txRepo, orderID); err != nil {
			return err
		}

		now := s.now()
		cancelled, err := txRepo.CancelPendingItems(ctx, orderID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: cancel order items")
		}
		if _, err := recalculateTotal(ctx, txRepo, orderID); err != nil {
			return err
		}
		if err := txRepo.UpdateOrder(ctx, orderID, map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: cancel order")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			OccurredAt:    now,
			Data: payloads.OrderCancelledEvent{
				OrderID:        orderID,
				CancelledItems: int(cancelled),
				CancelledAt:    now,
			},
		})
	}); err != nil {
		return nil, wrapTxError(err, "cancel order")
	}

	s.logInfo(ctx, orderID, uuid.Nil, "order.cancelled")
	return s.GetOrder(ctx, orderID)
}

func (s *service) TogglePayment(ctx context.Context, orderID uuid.UUID) (*PaymentDTO, error) {
	var result PaymentDTO
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := s.lockOpenOrder(ctx, txRepo, orderID)
		if err != nil {
			return err
		}

		next := !order.IsPaymentDone
		if err := txRepo.UpdateOrder(ctx, orderID, map[string]any{"is_payment_done": next}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update payment flag")
		}
		result = PaymentDTO{OrderID: orderID, IsPaymentDone: next}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentToggled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			OccurredAt:    s.now(),
			Data:          payloads.OrderPaymentToggledEvent{OrderID: orderID, IsPaymentDone: next},
		})
	}); err != nil {
		return nil, wrapTxError(err, "toggle payment")
	}
	return &result, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}
	return NewOrderDTO(order), nil
}

func (s *service) ListOrders(ctx context.Context, input ListOrdersInput) (*OrderList, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if _, err := pagination.ParseCursor(input.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := s.repo.ListOrders(ctx, pagination.Params{Limit: input.Limit, Cursor: input.Cursor}, OrderFilters{Status: input.Status})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	list := &OrderList{Orders: make([]OrderDTO, 0, len(rows))}
	for i := range rows {
		list.Orders = append(list.Orders, *NewOrderDTO(&rows[i]))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) lockOpenOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.LockOrder(ctx, orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}
	if order.Status != enums.OrderStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not open").
			WithDetails(map[string]any{"order_id": order.ID.String(), "status": order.Status})
	}
	return order, nil
}

func (s *service) logInfo(ctx context.Context, orderID, itemID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	if itemID != uuid.Nil {
		logCtx = s.logg.WithItemID(logCtx, itemID.String())
	}
	s.logg.Info(logCtx, msg)
}

func findItem(ctx context.Context, repo Repository, orderID, itemID uuid.UUID) (*models.OrderItem, error) {
	item, err := repo.FindItem(ctx, orderID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order item")
	}
	return item, nil
}

// servedTarget resolves the requested served flag against the current status.
func servedTarget(current enums.OrderItemStatus, served *bool) (enums.OrderItemStatus, error) {
	if served == nil {
		switch current {
		case enums.OrderItemStatusPending:
			return enums.OrderItemStatusServed, nil
		case enums.OrderItemStatusServed:
			return enums.OrderItemStatusPending, nil
		default:
			return "", transitionConflict(current, enums.OrderItemStatusServed)
		}
	}
	if *served {
		return enums.OrderItemStatusServed, nil
	}
	if current == enums.OrderItemStatusCancelled {
		return "", transitionConflict(current, enums.OrderItemStatusPending)
	}
	return enums.OrderItemStatusPending, nil
}

func transitionConflict(from, to enums.OrderItemStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move item from %s to %s", from, to).
		WithDetails(map[string]any{"from": from, "to": to})
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "items are required")
	}
	if len(items) > maxItemsPerCall {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d items per request", maxItemsPerCall)
	}
	for _, item := range items {
		if item.DishID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "dish_id is required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if item.Quantity > maxItemQuantity {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be at most %d", maxItemQuantity)
		}
	}
	return nil
}

func dishIDs(items []ItemInput) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.DishID)
	}
	return ids
}

// snapshotItems freezes the dish name and price onto new items. Items are
// stamped a microsecond apart so they list back in request order.
func snapshotItems(orderID uuid.UUID, inputs []ItemInput, dishes map[uuid.UUID]models.Dish, now time.Time) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(inputs))
	for i, input := range inputs {
		dish := dishes[input.DishID]
		items = append(items, models.OrderItem{
			ID:                 uuid.New(),
			OrderID:            orderID,
			DishID:             dish.ID,
			Quantity:           input.Quantity,
			Status:             enums.OrderItemStatusPending,
			DishNameSnapshot:   dish.Name,
			PriceSnapshotCents: dish.PriceCents,
			CreatedAt:          now.Add(time.Duration(i) * time.Microsecond),
		})
	}
	return items
}

func itemSnapshots(items []models.OrderItem) []payloads.OrderItemSnapshot {
	out := make([]payloads.OrderItemSnapshot, 0, len(items))
	for _, item := range items {
		out = append(out, payloads.OrderItemSnapshot{
			ItemID:     item.ID,
			DishID:     item.DishID,
			DishName:   item.DishNameSnapshot,
			Quantity:   item.Quantity,
			PriceCents: item.PriceSnapshotCents,
		})
	}
	return out
}

func orderLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
}

func wrapTxError(err error, op string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
