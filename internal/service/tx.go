package service

import "context"

// TxRepositories exposes repositories bound to one open transaction.
// Only the knowledge base needs transactional writes; single-row tables
// go through their plain repositories.
type TxRepositories interface {
	KnowledgeBases() KnowledgeBaseRepositoryInterface
}

// TxRunner runs fn inside a transaction, committing when fn returns nil
// and rolling back otherwise.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
