package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ashita-ai/shinrai/internal/model"
)

// CreateAgent inserts an agent with a pre-hashed API key.
func (db *DB) CreateAgent(ctx context.Context, agentID, name string, role model.AgentRole, apiKeyHash string) (model.Agent, error) {
	a := model.Agent{
		ID:         uuid.New(),
		AgentID:    agentID,
		Name:       name,
		Role:       role,
		APIKeyHash: apiKeyHash,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO agents (id, agent_id, name, role, api_key_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.AgentID, a.Name, string(a.Role), a.APIKeyHash, a.CreatedAt,
	)
	if err != nil {
		return model.Agent{}, fmt.Errorf("storage: create agent: %w", err)
	}
	return a, nil
}

// GetAgentByAgentID retrieves an agent by its external identifier.
// Returns ErrNotFound when absent.
func (db *DB) GetAgentByAgentID(ctx context.Context, agentID string) (model.Agent, error) {
	var a model.Agent
	err := db.pool.QueryRow(ctx,
		`SELECT id, agent_id, name, role, api_key_hash, created_at
		 FROM agents WHERE agent_id = $1`, agentID,
	).Scan(&a.ID, &a.AgentID, &a.Name, &a.Role, &a.APIKeyHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Agent{}, ErrNotFound
		}
		return model.Agent{}, fmt.Errorf("storage: get agent: %w", err)
	}
	return a, nil
}

// SeedAdmin creates the bootstrap admin agent if no agent with that ID
// exists yet. Idempotent across restarts.
func (db *DB) SeedAdmin(ctx context.Context, apiKeyHash string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO agents (id, agent_id, name, role, api_key_hash, created_at)
		 VALUES ($1, 'admin', 'Bootstrap Admin', 'admin', $2, $3)
		 ON CONFLICT (agent_id) DO NOTHING`,
		uuid.New(), apiKeyHash, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage: seed admin: %w", err)
	}
	return nil
}
