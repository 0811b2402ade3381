package transfer

import (
	"context"
	"errors"
	"testing"
)

func TestGuard_Validate(t *testing.T) {
	directory := newFakeDirectory()
	directory.grant("player-1", testFreeAgentRole)

	guard := NewGuard(directory, testFreeAgentRole, []string{testTeamRole, "team-blue-role"})

	if err := guard.Validate(context.Background(), "player-1", testTeamRole); err != nil {
		t.Fatalf("expected eligible requester with allowed target, got %v", err)
	}

	if err := guard.Validate(context.Background(), "player-2", testTeamRole); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible for non free agent, got %v", err)
	}

	if err := guard.Validate(context.Background(), "player-1", "celebrity-role"); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget for unlisted role, got %v", err)
	}
}

func TestGuard_EligibilityCheckedBeforeTarget(t *testing.T) {
	directory := newFakeDirectory()
	guard := NewGuard(directory, testFreeAgentRole, []string{testTeamRole})

	// Requester is not a free agent and the target is also invalid; the
	// eligibility failure is reported first.
	err := guard.Validate(context.Background(), "player-9", "celebrity-role")
	if !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
}
