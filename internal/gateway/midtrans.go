// Package gateway wraps the Midtrans Snap API and decodes its HTTP
// notifications.
package gateway

import (
	"context"
	"fmt"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// EnabledPayments are the Snap payment channels offered to customers.
var EnabledPayments = []snap.SnapPaymentType{
	snap.SnapPaymentType("qris"),
	snap.SnapPaymentType("gopay"),
	snap.SnapPaymentType("shopeepay"),
	snap.SnapPaymentType("spaylater"),
	snap.SnapPaymentType("bank_transfer"),
	snap.SnapPaymentType("credit_card"),
}

// TransactionRequest describes a Snap transaction for one order.
type TransactionRequest struct {
	OrderID      string
	Amount       int64
	CustomerName string
	FinishURL    string
}

// Transaction is the Snap redirect handle returned to the browser.
type Transaction struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// Midtrans creates Snap transactions.
type Midtrans struct {
	client    snap.Client
	serverKey string
}

// NewMidtrans configures a Snap client for the sandbox or production environment
func NewMidtrans(serverKey string, isProduction bool) *Midtrans {
	env := midtrans.Sandbox
	if isProduction {
		env = midtrans.Production
	}

	m := &Midtrans{serverKey: serverKey}
	m.client.New(serverKey, env)
	return m
}

// ServerKey returns the key notifications are signed with
func (m *Midtrans) ServerKey() string {
	return m.serverKey
}

// CreateTransaction creates a Snap transaction charging the full order amount
// as a single line item.
func (m *Midtrans) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.Amount,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    req.OrderID,
			Name:  "Restaurant Payment",
			Price: req.Amount,
			Qty:   1,
		}},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.CustomerName,
		},
		EnabledPayments: EnabledPayments,
	}
	if req.FinishURL != "" {
		snapReq.Callbacks = &snap.Callbacks{Finish: req.FinishURL}
	}

	resp, merr := m.client.CreateTransaction(snapReq)
	if merr != nil {
		return nil, fmt.Errorf("midtrans create transaction: %w", merr)
	}
	if resp == nil || resp.Token == "" {
		return nil, fmt.Errorf("midtrans create transaction: empty token")
	}

	return &Transaction{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}
