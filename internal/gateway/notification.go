package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"
)

// Notification is the HTTP notification body Midtrans posts on status changes.
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	TransactionTime   string `json:"transaction_time"`
	PaymentType       string `json:"payment_type"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	FraudStatus       string `json:"fraud_status"`
}

// Gateway transaction statuses
const (
	StatusSettlement = "settlement"
	StatusCapture    = "capture"
	StatusPending    = "pending"
	StatusExpire     = "expire"
	StatusCancel     = "cancel"
	StatusDeny       = "deny"
)

// PaidStatus is the local status stored for money-received notifications.
const PaidStatus = "Paid"

var methodNames = map[string]string{
	"shopeepay":     "Shopee Pay",
	"gopay":         "GoPay",
	"qris":          "QRIS",
	"spaylater":     "Spaylater",
	"bank_transfer": "Bank Transfer",
	"credit_card":   "Credit Card",
}

// MethodName maps a Midtrans payment_type to the payment method display name.
// Unknown types map to "Other".
func MethodName(paymentType string) string {
	if name, ok := methodNames[paymentType]; ok {
		return name
	}
	return "Other"
}

// NormalizeStatus turns settlement and capture into Paid and passes any other
// status through unchanged.
func NormalizeStatus(transactionStatus string) string {
	switch transactionStatus {
	case StatusSettlement, StatusCapture:
		return PaidStatus
	}
	return transactionStatus
}

// IsSettled reports whether the notification means money was received.
func (n Notification) IsSettled() bool {
	return NormalizeStatus(n.TransactionStatus) == PaidStatus
}

// EventID identifies one delivery of a status for an order, so re-deliveries
// of the same notification share an id.
func (n Notification) EventID() string {
	id := n.OrderID + ":" + n.TransactionStatus
	if n.TransactionID != "" {
		id += ":" + n.TransactionID
	}
	return id
}

var jakarta = time.FixedZone("WIB", 7*60*60)

// PaidAt parses transaction_time, which Midtrans sends in Jakarta local time.
// It returns nil when the field is empty or malformed.
func (n Notification) PaidAt() *time.Time {
	raw := strings.TrimSpace(n.TransactionTime)
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", raw, jakarta)
	if err != nil {
		return nil
	}
	return &t
}

// Signature computes the notification signature:
// SHA512(order_id + status_code + gross_amount + server_key), hex encoded.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature checks signature_key against the server key.
func (n Notification) VerifySignature(serverKey string) bool {
	want := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(n.SignatureKey)), []byte(want)) == 1
}
