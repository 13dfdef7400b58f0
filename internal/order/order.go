// Package order persists purchase orders and their payment lifecycle.
package order

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Order is one purchase attempt. A row is created when the buyer picks a plan
// and flips to paid once the matching transfer is confirmed on chain.
type Order struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	PlanID    string    `db:"plan_id"`
	Amount    float64   `db:"amount"`
	Memo      string    `db:"memo"`
	Paid      bool      `db:"paid"`
	EsimURL   string    `db:"esim_url"`
	CreatedAt time.Time `db:"created_at"`
}

// Stats summarizes completed sales for the admin report.
type Stats struct {
	PaidCount int     `db:"paid_count"`
	Revenue   float64 `db:"revenue"`
	Buyers    int     `db:"buyers"`
}

const memoAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// MemoLength is the length of generated payment memos.
const MemoLength = 8

// NewMemo returns a random payment memo. The alphabet omits easily confused
// characters (0/O, 1/I) because buyers type the memo by hand.
func NewMemo() (string, error) {
	buf := make([]byte, MemoLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("order: memo entropy: %w", err)
	}
	for i, b := range buf {
		buf[i] = memoAlphabet[int(b)%len(memoAlphabet)]
	}
	return string(buf), nil
}
