package transfer

import (
	"context"
	"fmt"
	"strings"
)

// Guard validates that a requester may submit a transfer request: the
// requester must currently hold the free agent role and the target must be
// one of the allow-listed team roles. Pure read, no side effects.
type Guard struct {
	directory       Directory
	freeAgentRoleID string
	allowedTargets  map[string]bool
}

// NewGuard creates a membership guard.
func NewGuard(directory Directory, freeAgentRoleID string, allowedTeamRoleIDs []string) *Guard {
	allowed := make(map[string]bool, len(allowedTeamRoleIDs))
	for _, id := range allowedTeamRoleIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			allowed[id] = true
		}
	}
	return &Guard{
		directory:       directory,
		freeAgentRoleID: strings.TrimSpace(freeAgentRoleID),
		allowedTargets:  allowed,
	}
}

// Validate reports ErrNotEligible when the requester lacks the free agent
// role and ErrInvalidTarget when the target role is not allow-listed.
func (g *Guard) Validate(ctx context.Context, requesterID, targetRoleID string) error {
	eligible, err := g.directory.HasRole(ctx, requesterID, g.freeAgentRoleID)
	if err != nil {
		return fmt.Errorf("check free agent role: %w", err)
	}
	if !eligible {
		return ErrNotEligible
	}

	if !g.allowedTargets[strings.TrimSpace(targetRoleID)] {
		return ErrInvalidTarget
	}
	return nil
}
