package amqp

import (
	"encoding/json"
	"time"
)

// Routing keys for ledger events. Consumers fetch the full entity from the
// API; the event carries only the type, the entity id and when it happened.
const (
	EventInvoiceCreated    = "invoice.created"
	EventInvoicePaid       = "invoice.paid"
	EventBudgetCreated     = "budget.created"
	EventExpenseApproved   = "expense.approved"
	EventExpenseRejected   = "expense.rejected"
	EventTransactionPosted = "transaction.posted"
)

type Event struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(kind, entityID string) Event {
	return Event{
		Type:       kind,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}
