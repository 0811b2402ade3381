package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/ebitsfc/rosterbot/internal/config"
	"github.com/ebitsfc/rosterbot/internal/roster"
	"github.com/ebitsfc/rosterbot/internal/transfer"
)

const interactionTimeout = 15 * time.Second

// Bot owns the Discord session. It feeds slash commands and button presses
// into the transfer and roster services, and implements transfer.Messenger
// and transfer.Directory on top of the session.
type Bot struct {
	cfg       *config.Config
	roster    *roster.Service
	transfers *transfer.Service

	mu      sync.RWMutex
	session *discordgo.Session
	running bool
}

// New creates a Discord bot.
func New(cfg *config.Config, rosterSvc *roster.Service) *Bot {
	return &Bot{
		cfg:    cfg,
		roster: rosterSvc,
	}
}

// AttachTransfers wires the transfer service. The service needs the bot as
// its messenger and directory, so it is attached after construction.
func (b *Bot) AttachTransfers(svc *transfer.Service) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transfers = svc
}

func (b *Bot) Start(ctx context.Context) error {
	if b.cfg == nil {
		return fmt.Errorf("missing config")
	}
	token := strings.TrimSpace(b.cfg.Discord.Token)
	if token == "" {
		return fmt.Errorf("discord token is empty")
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	s.AddHandler(b.handleInteraction)

	if err := s.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	b.mu.Lock()
	b.session = s
	b.running = true
	b.mu.Unlock()

	if me, err := s.User("@me"); err == nil {
		slog.Info("discord bot connected", "username", me.Username, "id", me.ID)
	}

	if err := b.registerCommands(s); err != nil {
		_ = b.Stop(ctx)
		return fmt.Errorf("register commands: %w", err)
	}
	slog.Info("slash commands registered", "guild_id", b.cfg.Discord.GuildID)
	return nil
}

func (b *Bot) Stop(ctx context.Context) error {
	b.mu.Lock()
	s := b.session
	b.session = nil
	b.running = false
	b.mu.Unlock()
	if s != nil {
		_ = s.Close()
	}
	return nil
}

func (b *Bot) registerCommands(s *discordgo.Session) error {
	appID := ""
	if s.State != nil && s.State.User != nil {
		appID = s.State.User.ID
	}
	if appID == "" {
		return fmt.Errorf("session has no application user")
	}
	_, err := s.ApplicationCommandBulkOverwrite(appID, b.cfg.Discord.GuildID, commandDefinitions())
	return err
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	minSeasons := float64(1)
	return []*discordgo.ApplicationCommand{
		{
			Name:        "confirm",
			Description: "Request to join a team role for a number of seasons.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "The role you want to join",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "seasons",
					Description: "Number of seasons (1-5)",
					Required:    true,
					MinValue:    &minSeasons,
					MaxValue:    5,
				},
			},
		},
		{
			Name:        "register",
			Description: "Register yourself in the system.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "steamlink",
					Description: "Link to your Steam account.",
					Required:    true,
				},
			},
		},
	}
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil {
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		switch data.Name {
		case "confirm":
			b.handleConfirm(s, i)
		case "register":
			b.handleRegister(s, i)
		}
	case discordgo.InteractionMessageComponent:
		b.handleDecision(s, i)
	}
}

func (b *Bot) handleConfirm(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.mu.RLock()
	transfers := b.transfers
	b.mu.RUnlock()
	if transfers == nil {
		b.replyEphemeral(s, i, "Transfers are not available right now.")
		return
	}

	input, err := confirmInput(i)
	if err != nil {
		slog.Warn("malformed confirm interaction", "error", err)
		b.replyEphemeral(s, i, "Failed to submit your request. Please try again later.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	if err := transfers.Submit(ctx, input); err != nil {
		b.replyEphemeral(s, i, submitErrorMessage(err))
		return
	}
	b.replyEphemeral(s, i, "Your transfer request has been submitted for approval.")
}

func (b *Bot) handleRegister(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if b.roster == nil {
		b.replyEphemeral(s, i, "Registration is not available right now.")
		return
	}

	user := interactionUser(i)
	if user == nil {
		return
	}
	steamLink := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt != nil && opt.Name == "steamlink" {
			steamLink = opt.StringValue()
		}
	}

	_, err := b.roster.Register(user.ID, user.Username, steamLink)
	switch {
	case errors.Is(err, roster.ErrAlreadyRegistered):
		b.replyEphemeral(s, i, "You are already registered!")
	case err != nil:
		slog.Error("register player failed", "user_id", user.ID, "error", err)
		b.replyEphemeral(s, i, "Failed to register you. Please try again later.")
	default:
		b.replyEphemeral(s, i, "You have been registered successfully!")
	}
}

func (b *Bot) handleDecision(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.mu.RLock()
	transfers := b.transfers
	b.mu.RUnlock()
	if transfers == nil {
		return
	}

	decision, ok := decisionFromInteraction(i)
	if !ok {
		return
	}

	// Ack first so the button press never shows as failed; the service
	// rewrites the message content when the request resolves.
	if s != nil {
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		}); err != nil {
			slog.Warn("ack decision interaction failed", "error", err)
		}
	}

	if !transfers.HandleDecision(decision) {
		slog.Debug("decision event not matched",
			"surface_id", decision.SurfaceID,
			"actor_id", decision.ActorID,
			"can_manage_roles", decision.CanManageRoles,
		)
	}
}

// confirmInput extracts a transfer submission from a confirm interaction.
func confirmInput(i *discordgo.InteractionCreate) (transfer.SubmitInput, error) {
	user := interactionUser(i)
	if user == nil {
		return transfer.SubmitInput{}, fmt.Errorf("interaction has no member user")
	}

	var roleID string
	var seasons int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt == nil {
			continue
		}
		switch opt.Name {
		case "role":
			roleID, _ = opt.Value.(string)
		case "seasons":
			seasons = int(opt.IntValue())
		}
	}
	if roleID == "" {
		return transfer.SubmitInput{}, fmt.Errorf("confirm interaction has no role option")
	}

	return transfer.SubmitInput{
		RequesterID:     user.ID,
		RequesterName:   user.Username,
		TargetRoleID:    roleID,
		Seasons:         seasons,
		OriginChannelID: i.ChannelID,
	}, nil
}

// decisionFromInteraction maps a button press to a decision event. Only the
// approve/deny custom IDs qualify.
func decisionFromInteraction(i *discordgo.InteractionCreate) (transfer.Decision, bool) {
	if i.Message == nil {
		return transfer.Decision{}, false
	}
	user := interactionUser(i)
	if user == nil {
		return transfer.Decision{}, false
	}

	var choice transfer.Choice
	switch i.MessageComponentData().CustomID {
	case "approve":
		choice = transfer.ChoiceAccept
	case "deny":
		choice = transfer.ChoiceReject
	default:
		return transfer.Decision{}, false
	}

	canManage := i.Member != nil && i.Member.Permissions&discordgo.PermissionManageRoles != 0
	return transfer.Decision{
		ActorID:        user.ID,
		ActorName:      user.Username,
		SurfaceID:      i.Message.ID,
		CanManageRoles: canManage,
		Choice:         choice,
	}, true
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func submitErrorMessage(err error) string {
	switch {
	case errors.Is(err, transfer.ErrWrongChannel):
		return "This command can only be used in the designated confirmation channel."
	case errors.Is(err, transfer.ErrNotEligible):
		return "You can only confirm if you are a Free Agent."
	case errors.Is(err, transfer.ErrInvalidTarget):
		return "You can only confirm to a designated team role."
	case errors.Is(err, transfer.ErrSeasonsOutOfRange):
		return "Seasons must be between 1 and 5."
	default:
		return "Failed to submit your request. Please try again later."
	}
}

func (b *Bot) replyEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if s == nil {
		return
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Warn("ephemeral reply failed", "error", err)
	}
}
