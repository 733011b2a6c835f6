package ledger

import (
	"math/rand"
	"time"
)

// payStep is the granularity of randomized payments (four decimal
// places of a tez).
const payStep Amount = 100

// Ledger tracks the customer balance left in a channel during one
// scenario. It never goes negative.
type Ledger struct {
	deposit   Amount
	remaining Amount
	rng       *rand.Rand
}

// New returns a ledger for a channel opened with deposit. A nil rng is
// replaced by a time seeded source.
func New(deposit Amount, rng *rand.Rand) *Ledger {
	if deposit < 0 {
		deposit = 0
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Ledger{
		deposit:   deposit,
		remaining: deposit,
		rng:       rng,
	}
}

func (l *Ledger) Deposit() Amount {
	return l.deposit
}

func (l *Ledger) Remaining() Amount {
	return l.remaining
}

// Pay draws a random payment of at most half the remaining balance,
// rounded down to payStep, and books it. A positive balance stays
// positive.
func (l *Ledger) Pay() Amount {
	steps := int64(l.remaining / 2 / payStep)
	amount := Amount(l.rng.Int63n(steps+1)) * payStep
	l.remaining -= amount
	return amount
}

// PayAll books the whole remaining balance and returns it. Calling it
// on an empty ledger pays zero.
func (l *Ledger) PayAll() Amount {
	amount := l.remaining
	l.remaining = 0
	return amount
}
