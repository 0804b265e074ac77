package memory

import (
	"context"

	"emergencyworldwide/internal/app/ports"
)

type txKey struct{}

type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) TxManager {
	return TxManager{store: store}
}

// RunInTx holds the store lock for the whole callback and restores the
// state it started from when fn returns an error.
func (m TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if held, _ := ctx.Value(txKey{}).(*Store); held == m.store {
		return fn(ctx)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, m.store)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

var _ ports.TxManager = TxManager{}
