// Package storage provides the unit-of-work runners shared by the in-memory and
// Postgres store backends.
//
// Services never see a transaction handle. They call RunInTx and pass the
// context it yields to every store; stores find the open unit of work in that
// context.
package storage

import "context"

// TxRunner runs fn as one atomic unit of work. If fn returns an error every
// write performed through the yielded context is discarded.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
