package repository

import (
	"context"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
)

// AgentRepository reads the agent roster.
type AgentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Agent, error)
	FindActiveWithSubscriptions(ctx context.Context) ([]domain.AgentSubscriptions, error)
	FindActiveIDs(ctx context.Context) ([]int64, error)
	FilterActiveIDs(ctx context.Context, agentIDs []int64) ([]int64, error)
}

type agentRepository struct {
	db DB
}

// NewAgentRepository instantiates the repository.
func NewAgentRepository(db DB) AgentRepository {
	return &agentRepository{db: db}
}

func (r *agentRepository) GetByID(ctx context.Context, id int64) (*domain.Agent, error) {
	const query = `
        SELECT id, name, email, status, is_super_agent, created_at, updated_at
        FROM agents WHERE id=$1`

	var agent domain.Agent
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&agent.ID,
		&agent.Name,
		&agent.Email,
		&agent.Status,
		&agent.IsSuperAgent,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &agent, nil
}

// FindActiveWithSubscriptions lists active agents with their subscriptions to active categories.
func (r *agentRepository) FindActiveWithSubscriptions(ctx context.Context) ([]domain.AgentSubscriptions, error) {
	const query = `
        SELECT a.id,
               COALESCE(array_agg(ac.category_id ORDER BY ac.created_at)
                        FILTER (WHERE c.id IS NOT NULL), '{}')::bigint[]
        FROM agents a
        LEFT JOIN agent_categories ac ON ac.agent_id = a.id
        LEFT JOIN categories c ON c.id = ac.category_id AND c.is_active
        WHERE a.status = $1
        GROUP BY a.id
        ORDER BY a.id`

	rows, err := r.db.Query(ctx, query, domain.AgentStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AgentSubscriptions
	for rows.Next() {
		var row domain.AgentSubscriptions
		if err := rows.Scan(&row.AgentID, &row.CategoryIDs); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *agentRepository) FindActiveIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT id FROM agents WHERE status=$1 ORDER BY id`
	return r.queryIDs(ctx, query, domain.AgentStatusActive)
}

// FilterActiveIDs returns the active subset of agentIDs.
func (r *agentRepository) FilterActiveIDs(ctx context.Context, agentIDs []int64) ([]int64, error) {
	if len(agentIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id FROM agents WHERE id = ANY($1) AND status=$2`
	return r.queryIDs(ctx, query, agentIDs, domain.AgentStatusActive)
}

func (r *agentRepository) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
