package events

// Billing event types emitted by the settlement and sync services.
const (
	EventInvoiceSettled      = "invoice.settled"
	EventInvoiceSettleFailed = "invoice.settle_failed"
	EventAccountSynchronized = "account.synchronized"
	EventAccountLinkRepaired = "account.link_repaired"
)

// InvoiceSettledPayload captures the minimal data downstream consumers
// need to react to a settled invoice.
type InvoiceSettledPayload struct {
	InvoiceID string `json:"invoice_id"`
	AccountID string `json:"account_id"`
	Number    string `json:"number,omitempty"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p InvoiceSettledPayload) ToMap() map[string]any {
	payload := map[string]any{
		"invoice_id": p.InvoiceID,
		"account_id": p.AccountID,
		"status":     p.Status,
		"amount":     p.Amount,
		"currency":   p.Currency,
	}
	if p.Number != "" {
		payload["number"] = p.Number
	}
	return payload
}

// AccountSynchronizedPayload records the outcome of an account sync.
type AccountSynchronizedPayload struct {
	AccountID  string `json:"account_id"`
	CustomerID string `json:"customer_id"`
	Repaired   bool   `json:"repaired,omitempty"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p AccountSynchronizedPayload) ToMap() map[string]any {
	payload := map[string]any{
		"account_id":  p.AccountID,
		"customer_id": p.CustomerID,
	}
	if p.Repaired {
		payload["repaired"] = true
	}
	return payload
}
