package registry

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/tableside/pos-backend/pkg/config"
	"github.com/tableside/pos-backend/pkg/db/models"
	"github.com/tableside/pos-backend/pkg/enums"
	"github.com/tableside/pos-backend/pkg/outbox"
	"github.com/tableside/pos-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" {
		return nil, fmt.Errorf("orders topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	topic := cfg.OrdersTopic

	orderEvents := map[enums.OutboxEventType]func() interface{}{
		enums.EventOrderCreated:        func() interface{} { return &payloads.OrderCreatedEvent{} },
		enums.EventOrderItemsAdded:     func() interface{} { return &payloads.OrderItemsAddedEvent{} },
		enums.EventOrderItemServed:     func() interface{} { return &payloads.OrderItemServedEvent{} },
		enums.EventOrderItemUnserved:   func() interface{} { return &payloads.OrderItemServedEvent{} },
		enums.EventOrderItemCancelled:  func() interface{} { return &payloads.OrderItemStatusEvent{} },
		enums.EventOrderItemRemoved:    func() interface{} { return &payloads.OrderItemStatusEvent{} },
		enums.EventOrderPaymentToggled: func() interface{} { return &payloads.OrderPaymentToggledEvent{} },
		enums.EventOrderClosed:         func() interface{} { return &payloads.OrderClosedEvent{} },
		enums.EventOrderCancelled:      func() interface{} { return &payloads.OrderCancelledEvent{} },
	}
	for eventType, factory := range orderEvents {
		reg.register(EventDescriptor{
			EventType:      eventType,
			AggregateType:  enums.AggregateOrder,
			Topic:          topic,
			PayloadFactory: factory,
		})
	}
	reg.register(EventDescriptor{
		EventType:      enums.EventInventoryRestocked,
		AggregateType:  enums.AggregateIngredient,
		Topic:          topic,
		PayloadFactory: func() interface{} { return &payloads.InventoryRestockedEvent{} },
	})
	reg.register(EventDescriptor{
		EventType:      enums.EventDishPriceChanged,
		AggregateType:  enums.AggregateDish,
		Topic:          topic,
		PayloadFactory: func() interface{} { return &payloads.DishPriceChangedEvent{} },
	})

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("%s: %w", event.EventType, err))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
