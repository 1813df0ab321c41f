package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [provider...]",
	Short: "Show stored login state",
	Long: `Show the stored login state for the given providers, or for every
configured provider when none are named.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc, err := requireService()
	if err != nil {
		return err
	}

	ids := args
	if len(ids) == 0 {
		ids = svc.Providers()
	}
	if len(ids) == 0 {
		cmd.Println("No configured providers.")
		cmd.Println("Add one with: sociallogin providers add")
		return nil
	}

	st := newStyles(cmd.OutOrStdout())
	for i, id := range ids {
		status, err := svc.Status(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("status for %s: %w", id, err)
		}
		if i > 0 {
			cmd.Println()
		}
		printStatus(cmd, st, status)
	}
	return nil
}

func printStatus(cmd *cobra.Command, st styles, status *domain.AuthStatus) {
	cmd.Println(st.Title.Render(status.ProviderID))

	switch {
	case status.LoggedIn:
		cmd.Println(st.row("Status:", st.Success.Render("logged in")))
	case status.ExpiresAt.IsZero():
		cmd.Println(st.row("Status:", st.Muted.Render("not logged in")))
		return
	case status.HasRefreshToken:
		cmd.Println(st.row("Status:", st.Warning.Render("expired (refreshable)")))
	default:
		cmd.Println(st.row("Status:", st.Error.Render("expired")))
	}

	cmd.Println(st.row("Expires:", formatExpiry(status.ExpiresAt)))
	cmd.Println(st.row("Refresh:", yesNo(status.HasRefreshToken)))
	if len(status.Scopes) > 0 {
		cmd.Println(st.row("Scopes:", strings.Join(status.Scopes, " ")))
	}
	if status.Subject != "" {
		cmd.Println(st.row("Subject:", status.Subject))
	}
	if status.Email != "" {
		cmd.Println(st.row("Email:", status.Email))
	}
}
