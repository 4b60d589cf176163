package repository

import (
	"context"
	"errors"
	"time"

	"github.com/botforge-ai/botforge/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatbotRepository struct {
	pool *pgxpool.Pool
}

func NewChatbotRepository(pool *pgxpool.Pool) *ChatbotRepository {
	return &ChatbotRepository{pool: pool}
}

func (r *ChatbotRepository) Create(ctx context.Context, c *domain.Chatbot) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chatbots (id, tenant_id, name, instructions, model, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.TenantID, c.Name, c.Instructions, c.Model, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *ChatbotRepository) GetByID(ctx context.Context, id string) (*domain.Chatbot, error) {
	var c domain.Chatbot
	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, name, instructions, model, created_at, updated_at
		 FROM chatbots WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.TenantID, &c.Name, &c.Instructions, &c.Model, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChatbotNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ChatbotRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.Chatbot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, name, instructions, model, created_at, updated_at
		 FROM chatbots WHERE tenant_id = $1 ORDER BY created_at ASC, id ASC`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.Chatbot
	for rows.Next() {
		var c domain.Chatbot
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Instructions, &c.Model, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, &c)
	}
	return results, rows.Err()
}

func (r *ChatbotRepository) Update(ctx context.Context, c *domain.Chatbot) error {
	c.UpdatedAt = time.Now().UTC()
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE chatbots SET name = $1, instructions = $2, model = $3, updated_at = $4 WHERE id = $5`,
		c.Name, c.Instructions, c.Model, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrChatbotNotFound
	}
	return nil
}
