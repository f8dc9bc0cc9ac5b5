package repository

import "context"

// SubscriptionRepository persists the agent_categories join table.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, agentID, categoryID int64) error
	Delete(ctx context.Context, agentID, categoryID int64) error
}

type subscriptionRepository struct {
	db DB
}

// NewSubscriptionRepository instantiates the repository.
func NewSubscriptionRepository(db DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Upsert inserts the join row unless it already exists.
func (r *subscriptionRepository) Upsert(ctx context.Context, agentID, categoryID int64) error {
	const query = `
        INSERT INTO agent_categories (agent_id, category_id)
        VALUES ($1,$2)
        ON CONFLICT (agent_id, category_id) DO NOTHING`
	_, err := r.db.Exec(ctx, query, agentID, categoryID)
	return err
}

// Delete removes the join row. A missing row is not an error.
func (r *subscriptionRepository) Delete(ctx context.Context, agentID, categoryID int64) error {
	const query = `DELETE FROM agent_categories WHERE agent_id=$1 AND category_id=$2`
	_, err := r.db.Exec(ctx, query, agentID, categoryID)
	return err
}
