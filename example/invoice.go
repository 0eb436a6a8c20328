// Package example holds a small invoicing domain used to exercise the event
// store end to end.
package example

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/terraskye/eventstorage"
)

var now = time.Now

var (
	ErrPaymentTransactionNotFound  = errors.New("payment transaction not found")
	ErrPaymentTransactionCompleted = errors.New("payment transaction already completed")
)

// PaymentTransaction is a payment made against an invoice.
type PaymentTransaction struct {
	ID            uuid.UUID
	PaymentMethod string
	Amount        float64
	Completed     bool
}

// Invoice is an event sourced invoice aggregate.
type Invoice struct {
	*eventstorage.AggregateBase

	Number              string
	CreatedAt           time.Time
	Items               []Item
	PaymentTransactions []PaymentTransaction

	apply func(eventstorage.Event)
}

var _ eventstorage.Aggregate = (*Invoice)(nil)

// Init returns an empty invoice with the given identity, ready to be loaded.
func Init(id string) *Invoice {
	i := &Invoice{
		AggregateBase: eventstorage.NewAggregateBase(id),
	}
	i.apply = eventstorage.Hydrate(
		eventstorage.On(i.whenCreated),
		eventstorage.On(i.whenPaymentTransactionStarted),
		eventstorage.On(i.whenPaymentTransactionCompleted),
	)
	return i
}

// Create records a new invoice with a fresh identity.
func Create(number string, items ...Item) *Invoice {
	invoice := Init(uuid.NewString())
	invoice.recordThat(InvoiceWasCreated{
		InvoiceID: invoice.AggregateRootID(),
		At:        now(),
		Number:    number,
		Items:     items,
	})
	return invoice
}

// StartPaymentTransaction records a new, not yet completed, payment.
func (i *Invoice) StartPaymentTransaction(paymentMethod string, amount float64) PaymentTransaction {
	e := PaymentTransactionWasStarted{
		InvoiceID:     i.AggregateRootID(),
		At:            now(),
		TransactionID: uuid.New(),
		PaymentMethod: paymentMethod,
		Amount:        amount,
	}
	i.recordThat(e)

	tx, _ := i.transaction(e.TransactionID)
	return *tx
}

// CompletePaymentTransaction marks a started payment as completed.
func (i *Invoice) CompletePaymentTransaction(id uuid.UUID) error {
	tx, ok := i.transaction(id)
	if !ok {
		return fmt.Errorf("complete %s: %w", id, ErrPaymentTransactionNotFound)
	}
	if tx.Completed {
		return fmt.Errorf("complete %s: %w", id, ErrPaymentTransactionCompleted)
	}

	i.recordThat(PaymentTransactionWasCompleted{
		InvoiceID:     i.AggregateRootID(),
		At:            now(),
		TransactionID: id,
	})
	return nil
}

// SubTotal is the sum of all item lines, excluding tax.
func (i *Invoice) SubTotal() float64 {
	var sum float64
	for _, item := range i.Items {
		sum += float64(item.Quantity) * item.Price
	}
	return round(sum)
}

// Tax is the sum of the tax of all item lines.
func (i *Invoice) Tax() float64 {
	var sum float64
	for _, item := range i.Items {
		sum += float64(item.Quantity) * item.Price * item.Tax / 100
	}
	return round(sum)
}

// Total is the amount still due: subtotal plus tax minus completed payments.
func (i *Invoice) Total() float64 {
	total := i.SubTotal() + i.Tax()
	for _, tx := range i.PaymentTransactions {
		if tx.Completed {
			total -= tx.Amount
		}
	}
	return round(total)
}

// Apply implements the Apply method of the eventstorage.Aggregate interface.
func (i *Invoice) Apply(event eventstorage.Event) {
	i.apply(event)
}

func (i *Invoice) whenCreated(e InvoiceWasCreated) {
	i.Number = e.Number
	i.CreatedAt = e.At
	i.Items = append([]Item(nil), e.Items...)
}

func (i *Invoice) whenPaymentTransactionStarted(e PaymentTransactionWasStarted) {
	i.PaymentTransactions = append(i.PaymentTransactions, PaymentTransaction{
		ID:            e.TransactionID,
		PaymentMethod: e.PaymentMethod,
		Amount:        e.Amount,
	})
}

func (i *Invoice) whenPaymentTransactionCompleted(e PaymentTransactionWasCompleted) {
	if tx, ok := i.transaction(e.TransactionID); ok {
		tx.Completed = true
	}
}

func (i *Invoice) recordThat(event eventstorage.Event) {
	i.Apply(event)
	i.Record(event)
}

func (i *Invoice) transaction(id uuid.UUID) (*PaymentTransaction, bool) {
	for idx := range i.PaymentTransactions {
		if i.PaymentTransactions[idx].ID == id {
			return &i.PaymentTransactions[idx], true
		}
	}
	return nil, false
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
