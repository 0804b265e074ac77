package gormrepo

import (
	"context"
	"sync"

	"emergencyworldwide/internal/app/ports"

	"gorm.io/gorm"
)

// TxManager runs use cases in a database transaction. A call made with a
// context that already carries a transaction joins it.
type TxManager struct {
	db *gorm.DB
	mu *sync.Mutex
}

func NewTxManager(db *gorm.DB) TxManager {
	return TxManager{db: db, mu: &sync.Mutex{}}
}

func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromCtx(ctx); ok {
		return fn(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(ctx, tx))
	})
}

var _ ports.TxManager = TxManager{}
