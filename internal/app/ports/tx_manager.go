package ports

import "context"

// TxManager is the single serialization boundary for state mutations.
// RunInTx called with a context already inside a transaction joins it.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
