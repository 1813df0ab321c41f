package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout [provider]",
	Short: "Delete stored tokens and end the provider session",
	Long: `Delete the stored tokens for a provider. When the provider publishes an
end-session endpoint, it is opened in the browser to end the provider session too.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	svc, err := requireService()
	if err != nil {
		return err
	}

	if err := svc.Logout(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	cmd.Printf("Logged out of %s\n", args[0])
	return nil
}
