package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

type PaymentMethod string

const (
	MethodCard   PaymentMethod = "CARD"
	MethodPayPal PaymentMethod = "PAYPAL"
	MethodWallet PaymentMethod = "WALLET"
)

// PaymentMethods lists the methods offered on the payment view, in display order.
var PaymentMethods = []PaymentMethodOption{
	{ID: MethodCard, Label: "Credit Card", Description: "Visa, Mastercard, Amex"},
	{ID: MethodPayPal, Label: "PayPal", Description: "Fast and secure checkout"},
	{ID: MethodWallet, Label: "E-Wallet", Description: "Apple Pay, Google Pay, etc."},
}

type PaymentMethodOption struct {
	ID          PaymentMethod `json:"id"`
	Label       string        `json:"label"`
	Description string        `json:"description"`
}

// ParsePaymentMethod maps user input to a method. Empty input selects CARD.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	if strings.TrimSpace(raw) == "" {
		return MethodCard, true
	}
	method := PaymentMethod(strings.ToUpper(strings.TrimSpace(raw)))
	for _, option := range PaymentMethods {
		if option.ID == method {
			return method, true
		}
	}
	return "", false
}

type Payment struct {
	ID            int64           `json:"id,omitempty"`
	ReservationID int64           `json:"reservation_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	Status        PaymentStatus   `json:"status"`
}
