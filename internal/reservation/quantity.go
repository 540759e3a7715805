package reservation

import "github.com/shopspring/decimal"

// Quantity is the seat count picked on the event view. It stays within
// [1, max] and sticks at 1 when nothing is left to reserve.
type Quantity struct {
	value int64
	max   int64
}

func NewQuantity(availableSeats int64) Quantity {
	return Quantity{value: 1, max: availableSeats}
}

func (q Quantity) Value() int64 {
	return q.value
}

func (q Quantity) CanIncrement() bool {
	return q.value < q.max
}

func (q Quantity) CanDecrement() bool {
	return q.value > 1
}

func (q *Quantity) Increment() {
	if q.CanIncrement() {
		q.value++
	}
}

func (q *Quantity) Decrement() {
	if q.CanDecrement() {
		q.value--
	}
}

// Set clamps n into [1, max].
func (q *Quantity) Set(n int64) {
	if n > q.max {
		n = q.max
	}
	if n < 1 {
		n = 1
	}
	q.value = n
}

// Total is priceBase times quantity rounded half-up to cents.
func Total(priceBase decimal.Decimal, quantity int64) decimal.Decimal {
	return priceBase.Mul(decimal.NewFromInt(quantity)).Round(2)
}

// TotalPrice renders Total with exactly two fraction digits, e.g. "149.97".
func TotalPrice(priceBase decimal.Decimal, quantity int64) string {
	return Total(priceBase, quantity).StringFixed(2)
}
