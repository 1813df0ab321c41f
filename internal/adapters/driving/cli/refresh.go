package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [provider]",
	Short: "Refresh the stored tokens for a provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runRefresh,
}

// Flags for refresh.
var (
	refreshToken  string
	refreshParams map[string]string
)

func init() {
	refreshCmd.Flags().StringVar(&refreshToken, "refresh-token", "", "Use this refresh token instead of the stored one")
	refreshCmd.Flags().StringToStringVar(&refreshParams, "param", nil, "Extra token request parameter (key=value, repeatable)")

	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	svc, err := requireService()
	if err != nil {
		return err
	}

	result, err := svc.Refresh(cmd.Context(), domain.RefreshRequest{
		ProviderID:       args[0],
		RefreshToken:     refreshToken,
		AdditionalParams: refreshParams,
	})
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Success.Render("Refreshed " + result.ProviderID))
	printTokenSummary(cmd, st, &result.Tokens)
	return nil
}
