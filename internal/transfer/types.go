package transfer

import (
	"context"
	"errors"
	"time"

	"github.com/ebitsfc/rosterbot/internal/audit"
)

// Status is the lifecycle state of a transfer request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusExpired  Status = "expired"
)

// Choice is the approver's decision on a pending request.
type Choice string

const (
	ChoiceAccept Choice = "accept"
	ChoiceReject Choice = "reject"
)

// Validation failures reported privately to the requester. No request is
// created when any of these fire.
var (
	ErrWrongChannel      = errors.New("confirm used outside the designated confirmation channel")
	ErrSeasonsOutOfRange = errors.New("seasons must be between 1 and 5")
	ErrNotEligible       = errors.New("requester is not a free agent")
	ErrInvalidTarget     = errors.New("target role is not a designated team role")
)

// Surface identifies one posted notice that is edited on every transition.
type Surface struct {
	ChannelID string
	MessageID string
}

// Request is one in-flight transfer confirmation. It lives in memory for
// the duration of the decision window and is discarded after resolution.
type Request struct {
	ID            string
	RequesterID   string
	RequesterName string
	TargetRoleID  string
	Seasons       int
	CreatedAt     time.Time

	requesterSurface Surface
	approverSurface  Surface
}

// Decision is one candidate approver action delivered by the gateway.
type Decision struct {
	ActorID        string
	ActorName      string
	SurfaceID      string
	CanManageRoles bool
	Choice         Choice
}

// SubmitInput carries one inbound confirm action.
type SubmitInput struct {
	RequesterID     string
	RequesterName   string
	TargetRoleID    string
	Seasons         int
	OriginChannelID string
}

// Messenger posts and edits notices on the chat platform. Posting with
// controls attaches the accept/reject decision buttons; editing with
// clearControls renders any attached controls inert.
type Messenger interface {
	Post(ctx context.Context, channelID, content string, withControls bool) (messageID string, err error)
	Edit(ctx context.Context, channelID, messageID, content string, clearControls bool) error
}

// Directory exposes role membership reads and mutations for the guild.
type Directory interface {
	HasRole(ctx context.Context, userID, roleID string) (bool, error)
	AddRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
}

// AuditSink records completed transfers, best-effort.
type AuditSink interface {
	Record(ctx context.Context, event audit.Event) error
}
