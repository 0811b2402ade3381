package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ebitsfc/rosterbot/internal/config"
	"github.com/ebitsfc/rosterbot/internal/metrics"
	"github.com/spf13/cobra"
)

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show rosterbot configuration status",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("=== Rosterbot Status ===")
	fmt.Println()

	fmt.Printf("Config: %s\n", config.ConfigPath())
	if _, err := os.Stat(config.ConfigPath()); err == nil {
		fmt.Println("  Status: OK")
	} else {
		fmt.Println("  Status: Not found (run 'rosterbot init')")
	}

	fmt.Println("\nDiscord:")
	fmt.Printf("  Token: %s\n", maskSecret(cfg.Discord.Token))
	fmt.Printf("  Guild: %s\n", orUnset(cfg.Discord.GuildID))

	fmt.Println("\nTransfer workflow:")
	fmt.Printf("  Confirmation channel: %s\n", orUnset(cfg.Transfer.ConfirmChannelID))
	fmt.Printf("  Approval channel: %s\n", orUnset(cfg.Transfer.ApprovalChannelID))
	fmt.Printf("  Transfer log channel: %s\n", orUnset(cfg.Transfer.TransferLogChannelID))
	fmt.Printf("  Free agent role: %s\n", orUnset(cfg.Transfer.FreeAgentRoleID))
	fmt.Printf("  Allowed team roles: %d\n", len(cfg.Transfer.AllowedTeamRoleIDs))
	fmt.Printf("  Decision window: %ds\n", cfg.Transfer.DecisionWindowSeconds)

	fmt.Println("\nRegistry:")
	fmt.Printf("  Players file: %s\n", cfg.Registry.PlayersFile)
	fmt.Printf("  Teams file: %s\n", cfg.Registry.TeamsFile)

	fmt.Printf("\nExport server: %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)

	snap, err := metrics.ReadRuntimeSnapshot(filepath.Dir(cfg.Registry.PlayersFile))
	if err != nil {
		fmt.Printf("\nRuntime metrics: unavailable (%v)\n", err)
		return nil
	}
	if !snap.HasData() {
		fmt.Println("\nRuntime metrics: no data yet")
		return nil
	}

	fmt.Println("\nRuntime metrics:")
	fmt.Printf("  Submitted: %d\n", snap.Transfer.Submitted)
	fmt.Printf("  Approved: %d  Denied: %d  Expired: %d\n", snap.Transfer.Approved, snap.Transfer.Denied, snap.Transfer.Expired)
	if snap.Transfer.Resolved() > 0 {
		fmt.Printf("  Approval ratio: %.0f%%\n", snap.Transfer.ApprovalRatio()*100)
	}
	if snap.Transfer.RoleUpdateFailures > 0 {
		fmt.Printf("  Role update failures: %d\n", snap.Transfer.RoleUpdateFailures)
	}
	if snap.Channel.SendAttempts > 0 {
		fmt.Printf("  Sends: %d (%.0f%% failed)\n", snap.Channel.SendAttempts, snap.Channel.FailureRatio()*100)
	}
	return nil
}

func maskSecret(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "(unset)"
	}
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}

func orUnset(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(unset)"
	}
	return value
}
