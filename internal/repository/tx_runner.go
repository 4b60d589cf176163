package repository

import (
	"context"

	"github.com/botforge-ai/botforge/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner hands the service layer transaction-bound repositories. All
// multi-row knowledge writes (source plus children) go through it so a
// failure anywhere leaves no partial rows behind.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// WithTx begins a transaction, runs fn against repositories bound to it,
// and commits iff fn returns nil. The deferred rollback is a no-op after
// a successful commit and covers panics inside fn.
func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&txRepos{tx: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type txRepos struct {
	tx pgx.Tx
}

func (r *txRepos) KnowledgeBases() service.KnowledgeBaseRepositoryInterface {
	return NewKnowledgeBaseRepositoryWithTx(r.tx)
}
