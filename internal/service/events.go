package service

import (
	"context"
	"encoding/json"

	"pharmacy/pkg/logger"

	"github.com/google/uuid"
)

const (
	EventStockUpdated = "stock_updated"
	EventLowStock     = "low_stock"
)

// Publisher fans a serialized event out to connected clients.
// Implementations must not block.
type Publisher interface {
	Publish(message []byte)
}

// InventoryEvent is the websocket payload
type InventoryEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

type stockChange struct {
	MedicineID uuid.UUID
	Name       string
	Delta      int
	StockAfter int
	Threshold  int
	Reason     string
}

// stockNotifier broadcasts stock changes once the transaction that made them has committed.
type stockNotifier struct {
	publisher      Publisher
	lowStockAlerts bool
}

func newStockNotifier(publisher Publisher, lowStockAlerts bool) *stockNotifier {
	return &stockNotifier{publisher: publisher, lowStockAlerts: lowStockAlerts}
}

func (n *stockNotifier) notify(ctx context.Context, changes []stockChange) {
	if n == nil || n.publisher == nil {
		return
	}

	// keep only the final state per medicine, in first-seen order
	latest := make(map[uuid.UUID]stockChange, len(changes))
	order := make([]uuid.UUID, 0, len(changes))
	for _, c := range changes {
		prev, seen := latest[c.MedicineID]
		if !seen {
			order = append(order, c.MedicineID)
		} else {
			c.Delta += prev.Delta
		}
		latest[c.MedicineID] = c
	}

	for _, id := range order {
		c := latest[id]
		n.send(ctx, InventoryEvent{
			Event: EventStockUpdated,
			Data: map[string]interface{}{
				"medicine_id": c.MedicineID.String(),
				"brand_name":  c.Name,
				"delta":       c.Delta,
				"stock":       c.StockAfter,
				"reason":      c.Reason,
			},
		})
		if n.lowStockAlerts && c.Delta < 0 && c.StockAfter <= c.Threshold {
			n.send(ctx, InventoryEvent{
				Event: EventLowStock,
				Data: map[string]interface{}{
					"medicine_id": c.MedicineID.String(),
					"brand_name":  c.Name,
					"stock":       c.StockAfter,
					"threshold":   c.Threshold,
				},
			})
		}
	}
}

func (n *stockNotifier) send(ctx context.Context, event InventoryEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error(ctx, "failed to encode inventory event", "event", event.Event, "error", err)
		return
	}
	n.publisher.Publish(payload)
}
