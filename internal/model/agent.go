package model

import (
	"time"

	"github.com/google/uuid"
)

// AgentRole controls what a collaborating system or user may do.
type AgentRole string

const (
	// RoleReader may read intelligence and export audit trails.
	RoleReader AgentRole = "reader"
	// RoleOperator may additionally force recomputation.
	RoleOperator AgentRole = "operator"
	// RoleAdmin may additionally write case and signal intake data.
	RoleAdmin AgentRole = "admin"
)

// roleRank orders roles for minimum-role checks.
var roleRank = map[AgentRole]int{
	RoleReader:   1,
	RoleOperator: 2,
	RoleAdmin:    3,
}

// RoleAtLeast reports whether role meets or exceeds min.
// Unknown roles never satisfy any minimum.
func RoleAtLeast(role, min AgentRole) bool {
	r, ok := roleRank[role]
	if !ok {
		return false
	}
	m, ok := roleRank[min]
	if !ok {
		return false
	}
	return r >= m
}

// ValidRole reports whether the role is one of the known values.
func ValidRole(role AgentRole) bool {
	_, ok := roleRank[role]
	return ok
}

// Agent is an authenticated collaborator (a workflow service or an
// operator's tooling) with an API key credential.
type Agent struct {
	ID         uuid.UUID `json:"id"`
	AgentID    string    `json:"agent_id"`
	Name       string    `json:"name"`
	Role       AgentRole `json:"role"`
	APIKeyHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
