package entity

import "time"

// Balance is the derived view of a user's points. It is never stored.
type Balance struct {
	Earned    int64
	Spent     int64
	Available int64
}

// NewBalance keeps Available == Earned - Spent.
func NewBalance(earned, spent int64) Balance {
	return Balance{Earned: earned, Spent: spent, Available: earned - spent}
}

// Redemption records one successful debit against a user's balance.
type Redemption struct {
	ID         string
	UserID     string
	Amount     int64
	SpentAfter int64
	CreatedAt  time.Time
}
