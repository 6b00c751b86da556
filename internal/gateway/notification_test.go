package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodName(t *testing.T) {
	cases := map[string]string{
		"shopeepay":     "Shopee Pay",
		"gopay":         "GoPay",
		"qris":          "QRIS",
		"spaylater":     "Spaylater",
		"bank_transfer": "Bank Transfer",
		"credit_card":   "Credit Card",
		"cstore":        "Other",
		"":              "Other",
	}
	for in, want := range cases {
		assert.Equal(t, want, MethodName(in), in)
	}
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, "Paid", NormalizeStatus("settlement"))
	assert.Equal(t, "Paid", NormalizeStatus("capture"))
	assert.Equal(t, "pending", NormalizeStatus("pending"))
	assert.Equal(t, "expire", NormalizeStatus("expire"))
	assert.Equal(t, "deny", NormalizeStatus("deny"))
}

func TestVerifySignature(t *testing.T) {
	n := Notification{
		OrderID:     "order-1",
		StatusCode:  "200",
		GrossAmount: "45000.00",
	}
	n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, "server-key")

	assert.True(t, n.VerifySignature("server-key"))
	assert.False(t, n.VerifySignature("other-key"))

	n.GrossAmount = "1.00"
	assert.False(t, n.VerifySignature("server-key"))
}

func TestPaidAt(t *testing.T) {
	n := Notification{TransactionTime: "2024-05-01 12:30:00"}
	paidAt := n.PaidAt()
	require.NotNil(t, paidAt)
	assert.Equal(t, time.Date(2024, 5, 1, 5, 30, 0, 0, time.UTC), paidAt.UTC())

	assert.Nil(t, Notification{}.PaidAt())
	assert.Nil(t, Notification{TransactionTime: "yesterday"}.PaidAt())
}

func TestEventID(t *testing.T) {
	a := Notification{OrderID: "o1", TransactionStatus: "settlement", TransactionID: "tx"}
	b := a
	assert.Equal(t, a.EventID(), b.EventID())
	assert.Equal(t, "o1:settlement:tx", a.EventID())
	assert.Equal(t, "o1:pending", Notification{OrderID: "o1", TransactionStatus: "pending"}.EventID())
}
