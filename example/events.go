package example

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	"github.com/terraskye/eventstorage"
)

// Register sets the invoice events as the registered types of registry.
func Register(registry *eventstorage.Registry) {
	registry.Register(Types()...)
}

// Types returns the event types of the invoice aggregate.
func Types() []eventstorage.EventType {
	return []eventstorage.EventType{
		eventstorage.Type(InvoiceWasCreatedFromPayload),
		eventstorage.Type(PaymentTransactionWasStartedFromPayload),
		eventstorage.Type(PaymentTransactionWasCompletedFromPayload),
	}
}

// Item is a line of an invoice. Tax is a percentage.
type Item struct {
	Reference   *string `mapstructure:"reference"`
	Description string  `mapstructure:"description"`
	Quantity    int     `mapstructure:"quantity"`
	Price       float64 `mapstructure:"price"`
	Tax         float64 `mapstructure:"tax"`
}

// NewItem creates an item. An empty reference is stored as null.
func NewItem(reference, description string, quantity int, price, tax float64) Item {
	item := Item{
		Description: description,
		Quantity:    quantity,
		Price:       price,
		Tax:         tax,
	}
	if reference != "" {
		item.Reference = &reference
	}
	return item
}

func (i Item) payload() map[string]any {
	var reference any
	if i.Reference != nil {
		reference = *i.Reference
	}
	return map[string]any{
		"reference":   reference,
		"description": i.Description,
		"quantity":    i.Quantity,
		"price":       i.Price,
		"tax":         i.Tax,
	}
}

type InvoiceWasCreated struct {
	InvoiceID string    `mapstructure:"-"`
	At        time.Time `mapstructure:"-"`
	Number    string    `mapstructure:"number"`
	Items     []Item    `mapstructure:"items"`
}

func (e InvoiceWasCreated) RecordedAt() time.Time { return e.At }

func (e InvoiceWasCreated) Payload() map[string]any {
	items := make([]any, 0, len(e.Items))
	for _, item := range e.Items {
		items = append(items, item.payload())
	}
	return map[string]any{
		"number": e.Number,
		"items":  items,
	}
}

func InvoiceWasCreatedFromPayload(id string, payload map[string]any, at time.Time) (InvoiceWasCreated, error) {
	e := InvoiceWasCreated{InvoiceID: id, At: at}
	return e, decode(payload, &e)
}

type PaymentTransactionWasStarted struct {
	InvoiceID     string    `mapstructure:"-"`
	At            time.Time `mapstructure:"-"`
	TransactionID uuid.UUID `mapstructure:"id"`
	PaymentMethod string    `mapstructure:"paymentMethod"`
	Amount        float64   `mapstructure:"amount"`
}

func (e PaymentTransactionWasStarted) RecordedAt() time.Time { return e.At }

func (e PaymentTransactionWasStarted) Payload() map[string]any {
	return map[string]any{
		"id":            e.TransactionID.String(),
		"paymentMethod": e.PaymentMethod,
		"amount":        e.Amount,
	}
}

func PaymentTransactionWasStartedFromPayload(id string, payload map[string]any, at time.Time) (PaymentTransactionWasStarted, error) {
	e := PaymentTransactionWasStarted{InvoiceID: id, At: at}
	return e, decode(payload, &e)
}

type PaymentTransactionWasCompleted struct {
	InvoiceID     string    `mapstructure:"-"`
	At            time.Time `mapstructure:"-"`
	TransactionID uuid.UUID `mapstructure:"id"`
}

func (e PaymentTransactionWasCompleted) RecordedAt() time.Time { return e.At }

func (e PaymentTransactionWasCompleted) Payload() map[string]any {
	return map[string]any{
		"id": e.TransactionID.String(),
	}
}

func PaymentTransactionWasCompletedFromPayload(id string, payload map[string]any, at time.Time) (PaymentTransactionWasCompleted, error) {
	e := PaymentTransactionWasCompleted{InvoiceID: id, At: at}
	return e, decode(payload, &e)
}

// decode copies a stored payload into target. Backends hand back numbers as
// int32, int64 or float64 depending on their encoding, so conversions are
// weakly typed.
func decode(payload map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(payload)
}
