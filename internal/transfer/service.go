package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitsfc/rosterbot/internal/audit"
	"github.com/ebitsfc/rosterbot/internal/config"
	"github.com/ebitsfc/rosterbot/internal/metrics"
	"github.com/google/uuid"
)

const (
	minSeasons = 1
	maxSeasons = 5

	// Budget for the terminal side effects of one request (role mutations,
	// audit record, surface rewrites) after the decision window resolves.
	sideEffectTimeout = 30 * time.Second
)

type pendingRequest struct {
	request   *Request
	collector *Collector
}

// Service orchestrates the transfer approval lifecycle: it validates
// inbound confirm actions, posts the requester and approver notices, arms a
// decision collector per request, and applies the terminal side effects
// exactly once per request. Pending requests live only in memory and are
// lost on process restart.
type Service struct {
	cfg       config.TransferConfig
	messenger Messenger
	directory Directory
	guard     *Guard
	auditSink AuditSink
	recorder  *metrics.RuntimeMetrics
	window    time.Duration
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	pending map[string]*pendingRequest
}

// NewService creates a transfer service.
func NewService(cfg config.TransferConfig, messenger Messenger, directory Directory, auditSink AuditSink, recorder *metrics.RuntimeMetrics) *Service {
	window := time.Duration(cfg.DecisionWindowSeconds) * time.Second
	if window <= 0 {
		window = 60 * time.Second
	}
	return &Service{
		cfg:       cfg,
		messenger: messenger,
		directory: directory,
		guard:     NewGuard(directory, cfg.FreeAgentRoleID, cfg.AllowedTeamRoleIDs),
		auditSink: auditSink,
		recorder:  recorder,
		window:    window,
		now:       time.Now,
		newID:     uuid.NewString,
		pending:   make(map[string]*pendingRequest),
	}
}

// Submit validates and registers one transfer request. Validation order:
// origin channel, seasons bounds, free agent eligibility, target allow-list.
// A validation error means no request was created and nothing was posted.
func (s *Service) Submit(ctx context.Context, input SubmitInput) error {
	if input.OriginChannelID != s.cfg.ConfirmChannelID {
		return ErrWrongChannel
	}
	if input.Seasons < minSeasons || input.Seasons > maxSeasons {
		return ErrSeasonsOutOfRange
	}
	if err := s.guard.Validate(ctx, input.RequesterID, input.TargetRoleID); err != nil {
		return err
	}

	req := &Request{
		ID:            s.newID(),
		RequesterID:   input.RequesterID,
		RequesterName: input.RequesterName,
		TargetRoleID:  input.TargetRoleID,
		Seasons:       input.Seasons,
		CreatedAt:     s.now().UTC(),
	}

	requesterMsgID, err := s.post(ctx, s.cfg.ConfirmChannelID, requestNotice(req), false)
	if err != nil {
		return fmt.Errorf("post requester notice: %w", err)
	}
	req.requesterSurface = Surface{ChannelID: s.cfg.ConfirmChannelID, MessageID: requesterMsgID}

	approverMsgID, err := s.post(ctx, s.cfg.ApprovalChannelID, approvalNotice(req), true)
	if err != nil {
		return fmt.Errorf("post approver notice: %w", err)
	}
	req.approverSurface = Surface{ChannelID: s.cfg.ApprovalChannelID, MessageID: approverMsgID}

	collector := NewCollector(approverMsgID, s.window)

	s.mu.Lock()
	s.pending[approverMsgID] = &pendingRequest{request: req, collector: collector}
	s.mu.Unlock()

	s.record(func() (metrics.RuntimeSnapshot, error) { return s.recorder.RecordSubmitted() })
	slog.Info("transfer request submitted",
		"request_id", req.ID,
		"status", string(StatusPending),
		"requester_id", req.RequesterID,
		"target_role_id", req.TargetRoleID,
		"seasons", req.Seasons,
	)

	go s.awaitResolution(req, collector)
	return nil
}

// HandleDecision routes one candidate decision event to the collector that
// owns its approver surface. It returns true only when the event resolved a
// pending request; unmatched or late events are inert.
func (s *Service) HandleDecision(decision Decision) bool {
	s.mu.Lock()
	entry, ok := s.pending[decision.SurfaceID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return entry.collector.Offer(decision)
}

// PendingCount returns the number of requests awaiting resolution.
func (s *Service) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Service) awaitResolution(req *Request, collector *Collector) {
	outcome := collector.Await(context.Background())

	defer func() {
		s.mu.Lock()
		delete(s.pending, req.approverSurface.MessageID)
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	switch {
	case outcome.Expired:
		s.finalizeExpired(ctx, req)
	case outcome.Decision.Choice == ChoiceAccept:
		s.finalizeApproved(ctx, req, outcome.Decision)
	default:
		s.finalizeDenied(ctx, req, outcome.Decision)
	}
}

func (s *Service) finalizeApproved(ctx context.Context, req *Request, decision Decision) {
	// Role mutation failures are logged and counted but never retried and
	// never abort the transition: the request still resolves as approved.
	roleFailures := 0
	if err := s.directory.RemoveRole(ctx, req.RequesterID, s.cfg.FreeAgentRoleID); err != nil {
		roleFailures++
		slog.Error("remove free agent role failed", "request_id", req.ID, "requester_id", req.RequesterID, "error", err)
	}
	if err := s.directory.AddRole(ctx, req.RequesterID, req.TargetRoleID); err != nil {
		roleFailures++
		slog.Error("add team role failed", "request_id", req.ID, "requester_id", req.RequesterID, "role_id", req.TargetRoleID, "error", err)
	}

	auditFailed := false
	if s.auditSink != nil {
		if err := s.auditSink.Record(ctx, audit.Event{
			Time:         s.now().UTC(),
			RequestID:    req.ID,
			RequesterID:  req.RequesterID,
			TargetRoleID: req.TargetRoleID,
			Seasons:      req.Seasons,
			ApproverID:   decision.ActorID,
		}); err != nil {
			auditFailed = true
		}
	}

	s.edit(ctx, req.approverSurface, approvedApproverNotice(req, decision))
	s.edit(ctx, req.requesterSurface, approvedRequesterNotice(req))

	s.record(func() (metrics.RuntimeSnapshot, error) { return s.recorder.RecordApproved(roleFailures, auditFailed) })
	slog.Info("transfer request approved",
		"request_id", req.ID,
		"status", string(StatusApproved),
		"requester_id", req.RequesterID,
		"target_role_id", req.TargetRoleID,
		"approver_id", decision.ActorID,
		"role_update_failures", roleFailures,
	)
}

func (s *Service) finalizeDenied(ctx context.Context, req *Request, decision Decision) {
	s.edit(ctx, req.approverSurface, deniedApproverNotice(req, decision))
	s.edit(ctx, req.requesterSurface, deniedRequesterNotice(req))

	s.record(func() (metrics.RuntimeSnapshot, error) { return s.recorder.RecordDenied() })
	slog.Info("transfer request denied",
		"request_id", req.ID,
		"status", string(StatusDenied),
		"requester_id", req.RequesterID,
		"target_role_id", req.TargetRoleID,
		"approver_id", decision.ActorID,
	)
}

func (s *Service) finalizeExpired(ctx context.Context, req *Request) {
	s.edit(ctx, req.approverSurface, "The confirmation request has timed out.")
	s.edit(ctx, req.requesterSurface, "Your confirmation request has timed out.")

	s.record(func() (metrics.RuntimeSnapshot, error) { return s.recorder.RecordExpired() })
	slog.Info("transfer request expired", "request_id", req.ID, "status", string(StatusExpired), "requester_id", req.RequesterID)
}

func (s *Service) post(ctx context.Context, channelID, content string, withControls bool) (string, error) {
	messageID, err := s.messenger.Post(ctx, channelID, content, withControls)
	s.record(func() (metrics.RuntimeSnapshot, error) { return s.recorder.RecordChannelSend(err == nil) })
	return messageID, err
}

func (s *Service) edit(ctx context.Context, surface Surface, content string) {
	err := s.messenger.Edit(ctx, surface.ChannelID, surface.MessageID, content, true)
	s.record(func() (metrics.RuntimeSnapshot, error) { return s.recorder.RecordChannelSend(err == nil) })
	if err != nil {
		slog.Error("edit notice failed", "channel_id", surface.ChannelID, "message_id", surface.MessageID, "error", err)
	}
}

func (s *Service) record(update func() (metrics.RuntimeSnapshot, error)) {
	if s.recorder == nil {
		return
	}
	if _, err := update(); err != nil {
		slog.Warn("record runtime metrics failed", "scope", "transfer", "error", err)
	}
}

func requestNotice(req *Request) string {
	return fmt.Sprintf("<@%s> requests to join <@&%s> for %d season(s).", req.RequesterID, req.TargetRoleID, req.Seasons)
}

func approvalNotice(req *Request) string {
	return fmt.Sprintf("<@%s> has requested to join <@&%s> for %d season(s).", req.RequesterID, req.TargetRoleID, req.Seasons)
}

func approvedApproverNotice(req *Request, decision Decision) string {
	return fmt.Sprintf("<@%s> approved to join <@&%s> for %d season(s) by <@%s>.", req.RequesterID, req.TargetRoleID, req.Seasons, decision.ActorID)
}

func approvedRequesterNotice(req *Request) string {
	return fmt.Sprintf("<@%s> has been approved to join <@&%s> for %d season(s).", req.RequesterID, req.TargetRoleID, req.Seasons)
}

func deniedApproverNotice(req *Request, decision Decision) string {
	return fmt.Sprintf("<@%s>'s request to join <@&%s> for %d season(s) denied by <@%s>.", req.RequesterID, req.TargetRoleID, req.Seasons, decision.ActorID)
}

func deniedRequesterNotice(req *Request) string {
	return fmt.Sprintf("<@%s>'s request to join <@&%s> for %d season(s) has been denied.", req.RequesterID, req.TargetRoleID, req.Seasons)
}
