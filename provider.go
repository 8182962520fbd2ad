package verusconnect

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider is the extension-style wallet provider a host shell injects
// when the browser extension is present.
type Provider interface {
	// RequestLogin asks the extension to open its approval popup for the
	// delivery URI. Its settlement is advisory only: the authoritative
	// outcome arrives via the result poll.
	RequestLogin(ctx context.Context, uri string) error

	// SendTransaction performs a single request/response asset transfer
	// and returns the transaction id.
	SendTransaction(ctx context.Context, params SendParams) (string, error)
}

// SendParams are the wire parameters for an extension send
type SendParams struct {
	To       string          `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

// SendOptions configures a send operation
type SendOptions struct {
	// To is the receiving address (R-address or i-address)
	To string

	// Amount is in coins, not satoshis
	Amount decimal.Decimal

	// Currency defaults to VRSC
	Currency string
}

// SendResult is the outcome of a send operation
type SendResult struct {
	TxID   string
	Method LoginMethod
}
