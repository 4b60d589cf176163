package repository

import (
	"context"
	"errors"
	"time"

	"github.com/botforge-ai/botforge/internal/domain"
	"github.com/botforge-ai/botforge/internal/pagination"
	"github.com/botforge-ai/botforge/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// KnowledgeBaseRepository is the only reader/writer of knowledge_sources and
// its two child tables. Child rows are only ever touched through it, so a
// transaction around its methods is the full consistency boundary.
type KnowledgeBaseRepository struct {
	db dbtx
}

func NewKnowledgeBaseRepository(pool *pgxpool.Pool) *KnowledgeBaseRepository {
	return &KnowledgeBaseRepository{db: pool}
}

func NewKnowledgeBaseRepositoryWithTx(tx pgx.Tx) *KnowledgeBaseRepository {
	return &KnowledgeBaseRepository{db: tx}
}

func (r *KnowledgeBaseRepository) CreateSource(ctx context.Context, s *domain.KnowledgeSource) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO knowledge_sources (id, chatbot_id, name, type, status, content, file_path, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.ChatbotID, s.Name, s.Type, s.Status, nullableString(s.Content), nullableString(s.FilePath), s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *KnowledgeBaseRepository) GetSourceByID(ctx context.Context, id string) (*domain.KnowledgeSource, error) {
	var s domain.KnowledgeSource
	var content, filePath *string
	err := r.db.QueryRow(ctx,
		`SELECT id, chatbot_id, name, type, status, content, file_path, created_at, updated_at
		 FROM knowledge_sources WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.ChatbotID, &s.Name, &s.Type, &s.Status, &content, &filePath, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrKnowledgeSourceNotFound
		}
		return nil, err
	}
	if content != nil {
		s.Content = *content
	}
	if filePath != nil {
		s.FilePath = *filePath
	}

	if err := r.attachChildren(ctx, []*domain.KnowledgeSource{&s}); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByChatbot returns all sources for a chatbot, hydrated with their
// children, in creation order.
func (r *KnowledgeBaseRepository) ListByChatbot(ctx context.Context, chatbotID string) ([]*domain.KnowledgeSource, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, chatbot_id, name, type, status, content, file_path, created_at, updated_at
		 FROM knowledge_sources WHERE chatbot_id = $1 ORDER BY created_at ASC, id ASC`,
		chatbotID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources, err := scanSourceRows(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachChildren(ctx, sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// ListByChatbotWithCursor pages sources in creation order for the dashboard.
func (r *KnowledgeBaseRepository) ListByChatbotWithCursor(ctx context.Context, chatbotID string, cursor *pagination.Cursor, limit int) (*service.SourcePageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, chatbot_id, name, type, status, content, file_path, created_at, updated_at
			 FROM knowledge_sources
			 WHERE chatbot_id = $1 AND (created_at, id) > ($2, $3)
			 ORDER BY created_at ASC, id ASC
			 LIMIT $4`,
			chatbotID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, chatbot_id, name, type, status, content, file_path, created_at, updated_at
			 FROM knowledge_sources
			 WHERE chatbot_id = $1
			 ORDER BY created_at ASC, id ASC
			 LIMIT $2`,
			chatbotID, limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanSourceRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	if err := r.attachChildren(ctx, items); err != nil {
		return nil, err
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.CreatedAt)
	}

	return &service.SourcePageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// UpdateSource writes all scalar columns of the source and refreshes
// updated_at. The partial-update merge happens in the service layer.
func (r *KnowledgeBaseRepository) UpdateSource(ctx context.Context, s *domain.KnowledgeSource) error {
	s.UpdatedAt = time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE knowledge_sources SET name = $1, status = $2, content = $3, file_path = $4, updated_at = $5
		 WHERE id = $6`,
		s.Name, s.Status, nullableString(s.Content), nullableString(s.FilePath), s.UpdatedAt, s.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrKnowledgeSourceNotFound
	}
	return nil
}

// DeleteSource deletes the parent row only. Callers must remove children
// first, inside the same transaction.
func (r *KnowledgeBaseRepository) DeleteSource(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM knowledge_sources WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrKnowledgeSourceNotFound
	}
	return nil
}

func (r *KnowledgeBaseRepository) InsertURLs(ctx context.Context, sourceID string, urls []domain.KnowledgeBaseURL) error {
	for i := range urls {
		u := &urls[i]
		_, err := r.db.Exec(ctx,
			`INSERT INTO knowledge_base_urls (id, knowledge_base_id, url, status, last_crawled, error_message, position, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			u.ID, sourceID, u.URL, u.Status, u.LastCrawled, u.ErrorMessage, u.Position, u.CreatedAt, u.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *KnowledgeBaseRepository) InsertFAQs(ctx context.Context, sourceID string, faqs []domain.KnowledgeBaseFAQ) error {
	for i := range faqs {
		f := &faqs[i]
		_, err := r.db.Exec(ctx,
			`INSERT INTO knowledge_base_faqs (id, knowledge_base_id, question, answer, position, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			f.ID, sourceID, f.Question, f.Answer, f.Position, f.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *KnowledgeBaseRepository) DeleteURLsBySource(ctx context.Context, sourceID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM knowledge_base_urls WHERE knowledge_base_id = $1`, sourceID)
	return err
}

func (r *KnowledgeBaseRepository) DeleteFAQsBySource(ctx context.Context, sourceID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM knowledge_base_faqs WHERE knowledge_base_id = $1`, sourceID)
	return err
}

func (r *KnowledgeBaseRepository) ListURLsBySource(ctx context.Context, sourceID string) ([]domain.KnowledgeBaseURL, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, knowledge_base_id, url, status, last_crawled, error_message, position, created_at, updated_at
		 FROM knowledge_base_urls WHERE knowledge_base_id = $1 ORDER BY position ASC, id ASC`,
		sourceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanURLRows(rows)
}

func (r *KnowledgeBaseRepository) ListFAQsBySource(ctx context.Context, sourceID string) ([]domain.KnowledgeBaseFAQ, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, knowledge_base_id, question, answer, position, created_at
		 FROM knowledge_base_faqs WHERE knowledge_base_id = $1 ORDER BY position ASC, id ASC`,
		sourceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFAQRows(rows)
}

func (r *KnowledgeBaseRepository) GetURLByID(ctx context.Context, id string) (*domain.KnowledgeBaseURL, error) {
	var u domain.KnowledgeBaseURL
	err := r.db.QueryRow(ctx,
		`SELECT id, knowledge_base_id, url, status, last_crawled, error_message, position, created_at, updated_at
		 FROM knowledge_base_urls WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.KnowledgeBaseID, &u.URL, &u.Status, &u.LastCrawled, &u.ErrorMessage, &u.Position, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrURLNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateURLStatus writes a crawl transition. Last write wins on concurrent
// transitions for the same row; there is no optimistic locking.
func (r *KnowledgeBaseRepository) UpdateURLStatus(ctx context.Context, u *domain.KnowledgeBaseURL) error {
	u.UpdatedAt = time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE knowledge_base_urls SET status = $1, last_crawled = $2, error_message = $3, updated_at = $4
		 WHERE id = $5`,
		u.Status, u.LastCrawled, u.ErrorMessage, u.UpdatedAt, u.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrURLNotFound
	}
	return nil
}

// ListPendingURLs returns URLs awaiting a crawl attempt, oldest first.
func (r *KnowledgeBaseRepository) ListPendingURLs(ctx context.Context, limit int) ([]domain.KnowledgeBaseURL, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, knowledge_base_id, url, status, last_crawled, error_message, position, created_at, updated_at
		 FROM knowledge_base_urls WHERE status = $1 ORDER BY updated_at ASC LIMIT $2`,
		domain.CrawlStatusPending, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanURLRows(rows)
}

// attachChildren loads URL and FAQ children for the given sources in two
// queries and distributes them by knowledge_base_id.
func (r *KnowledgeBaseRepository) attachChildren(ctx context.Context, sources []*domain.KnowledgeSource) error {
	if len(sources) == 0 {
		return nil
	}

	ids := make([]string, len(sources))
	byID := make(map[string]*domain.KnowledgeSource, len(sources))
	for i, s := range sources {
		ids[i] = s.ID
		byID[s.ID] = s
	}

	urlRows, err := r.db.Query(ctx,
		`SELECT id, knowledge_base_id, url, status, last_crawled, error_message, position, created_at, updated_at
		 FROM knowledge_base_urls WHERE knowledge_base_id = ANY($1) ORDER BY knowledge_base_id, position ASC, id ASC`,
		ids,
	)
	if err != nil {
		return err
	}
	urls, err := scanURLRows(urlRows)
	urlRows.Close()
	if err != nil {
		return err
	}
	for _, u := range urls {
		if parent, ok := byID[u.KnowledgeBaseID]; ok {
			parent.URLs = append(parent.URLs, u)
		}
	}

	faqRows, err := r.db.Query(ctx,
		`SELECT id, knowledge_base_id, question, answer, position, created_at
		 FROM knowledge_base_faqs WHERE knowledge_base_id = ANY($1) ORDER BY knowledge_base_id, position ASC, id ASC`,
		ids,
	)
	if err != nil {
		return err
	}
	faqs, err := scanFAQRows(faqRows)
	faqRows.Close()
	if err != nil {
		return err
	}
	for _, f := range faqs {
		if parent, ok := byID[f.KnowledgeBaseID]; ok {
			parent.FAQs = append(parent.FAQs, f)
		}
	}

	return nil
}

func scanSourceRows(rows pgx.Rows) ([]*domain.KnowledgeSource, error) {
	var results []*domain.KnowledgeSource
	for rows.Next() {
		var s domain.KnowledgeSource
		var content, filePath *string
		if err := rows.Scan(&s.ID, &s.ChatbotID, &s.Name, &s.Type, &s.Status, &content, &filePath, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if content != nil {
			s.Content = *content
		}
		if filePath != nil {
			s.FilePath = *filePath
		}
		results = append(results, &s)
	}
	return results, rows.Err()
}

func scanURLRows(rows pgx.Rows) ([]domain.KnowledgeBaseURL, error) {
	var results []domain.KnowledgeBaseURL
	for rows.Next() {
		var u domain.KnowledgeBaseURL
		if err := rows.Scan(&u.ID, &u.KnowledgeBaseID, &u.URL, &u.Status, &u.LastCrawled, &u.ErrorMessage, &u.Position, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

func scanFAQRows(rows pgx.Rows) ([]domain.KnowledgeBaseFAQ, error) {
	var results []domain.KnowledgeBaseFAQ
	for rows.Next() {
		var f domain.KnowledgeBaseFAQ
		if err := rows.Scan(&f.ID, &f.KnowledgeBaseID, &f.Question, &f.Answer, &f.Position, &f.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, f)
	}
	return results, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
