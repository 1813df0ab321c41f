package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

var tokenCmd = &cobra.Command{
	Use:   "token [provider]",
	Short: "Print the stored access token",
	Long: `Print the stored access token for a provider, for use in scripts:

  curl -H "Authorization: Bearer $(sociallogin token google)" https://...`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

// Flags for token.
var (
	tokenIDToken bool
	tokenJSON    bool
)

func init() {
	tokenCmd.Flags().BoolVar(&tokenIDToken, "id-token", false, "Print the ID token instead")
	tokenCmd.Flags().BoolVar(&tokenJSON, "json", false, "Print the whole stored token set as JSON")

	rootCmd.AddCommand(tokenCmd)
}

type tokenOutput struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresAt    string   `json:"expires_at"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	IDToken      string   `json:"id_token,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
}

func runToken(cmd *cobra.Command, args []string) error {
	svc, err := requireService()
	if err != nil {
		return err
	}

	tokens, err := svc.Tokens(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if tokens == nil {
		return fmt.Errorf("%s: %w", args[0], domain.ErrNotLoggedIn)
	}

	switch {
	case tokenJSON:
		data, err := json.MarshalIndent(tokenOutput{
			AccessToken:  tokens.AccessToken,
			TokenType:    tokens.TokenType,
			ExpiresAt:    tokens.ExpiresAt.UTC().Format(time.RFC3339),
			RefreshToken: tokens.RefreshToken,
			IDToken:      tokens.IDToken,
			Scopes:       tokens.Scopes,
		}, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
	case tokenIDToken:
		if tokens.IDToken == "" {
			return errors.New("no id token stored")
		}
		cmd.Println(tokens.IDToken)
	default:
		cmd.Println(tokens.AccessToken)
	}
	return nil
}
