package transfer

import (
	"context"
	"sync"
	"testing"
	"time"
)

func qualifyingDecision(choice Choice) Decision {
	return Decision{
		ActorID:        "staff-1",
		ActorName:      "staff",
		SurfaceID:      "msg-1",
		CanManageRoles: true,
		Choice:         choice,
	}
}

func TestCollector_FirstQualifyingDecisionWins(t *testing.T) {
	collector := NewCollector("msg-1", time.Minute)

	const attempts = 16
	var wg sync.WaitGroup
	accepted := make(chan Decision, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		choice := ChoiceAccept
		if i%2 == 1 {
			choice = ChoiceReject
		}
		go func(c Choice) {
			defer wg.Done()
			d := qualifyingDecision(c)
			if collector.Offer(d) {
				accepted <- d
			}
		}(choice)
	}
	wg.Wait()
	close(accepted)

	winners := make([]Decision, 0, 1)
	for d := range accepted {
		winners = append(winners, d)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly 1 accepted decision, got %d", len(winners))
	}

	outcome := collector.Await(context.Background())
	if outcome.Expired {
		t.Fatal("expected decision outcome, got expiry")
	}
	if outcome.Decision.Choice != winners[0].Choice {
		t.Fatalf("expected winning choice %q, got %q", winners[0].Choice, outcome.Decision.Choice)
	}
}

func TestCollector_FilterRejectsUnqualifiedEvents(t *testing.T) {
	collector := NewCollector("msg-1", time.Minute)

	wrongSurface := qualifyingDecision(ChoiceAccept)
	wrongSurface.SurfaceID = "msg-2"
	if collector.Offer(wrongSurface) {
		t.Fatal("expected decision for another surface to be rejected")
	}

	noAuthority := qualifyingDecision(ChoiceAccept)
	noAuthority.CanManageRoles = false
	if collector.Offer(noAuthority) {
		t.Fatal("expected decision without role authority to be rejected")
	}

	if !collector.Offer(qualifyingDecision(ChoiceAccept)) {
		t.Fatal("expected qualifying decision to be accepted")
	}
}

func TestCollector_AwaitExpiresWithoutDecision(t *testing.T) {
	collector := NewCollector("msg-1", 20*time.Millisecond)

	outcome := collector.Await(context.Background())
	if !outcome.Expired {
		t.Fatalf("expected expiry outcome, got %+v", outcome)
	}

	if collector.Offer(qualifyingDecision(ChoiceAccept)) {
		t.Fatal("expected offers after expiry to be inert")
	}
}

func TestCollector_DecisionBeatsLateDeadline(t *testing.T) {
	// The window elapses before Await runs, but the decision already won
	// the resolution swap: the deadline must be a no-op.
	collector := NewCollector("msg-1", time.Nanosecond)
	if !collector.Offer(qualifyingDecision(ChoiceReject)) {
		t.Fatal("expected qualifying decision to be accepted")
	}
	time.Sleep(5 * time.Millisecond)

	outcome := collector.Await(context.Background())
	if outcome.Expired {
		t.Fatal("expected decision to take precedence over deadline")
	}
	if outcome.Decision.Choice != ChoiceReject {
		t.Fatalf("expected reject choice, got %q", outcome.Decision.Choice)
	}
}

func TestCollector_OfferAfterResolutionIsInert(t *testing.T) {
	collector := NewCollector("msg-1", time.Minute)

	if !collector.Offer(qualifyingDecision(ChoiceAccept)) {
		t.Fatal("expected first decision to be accepted")
	}
	if collector.Offer(qualifyingDecision(ChoiceReject)) {
		t.Fatal("expected second decision to be rejected")
	}

	outcome := collector.Await(context.Background())
	if outcome.Expired || outcome.Decision.Choice != ChoiceAccept {
		t.Fatalf("expected first accepted decision, got %+v", outcome)
	}
}

func TestCollector_ContextCancellationResolvesAsExpiry(t *testing.T) {
	collector := NewCollector("msg-1", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := collector.Await(ctx)
	if !outcome.Expired {
		t.Fatalf("expected expiry on cancellation, got %+v", outcome)
	}
}
