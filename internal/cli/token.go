package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhoicas/rescuebox-api/internal/application/auth"
	"github.com/jhoicas/rescuebox-api/pkg/jwt"
)

// NewHashPasswordCommand imprime el hash bcrypt de una contraseña.
func NewHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <contraseña>",
		Short: "Genera el hash bcrypt de una contraseña",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// tokenInfo salida de check-token.
type tokenInfo struct {
	Valid     bool   `json:"valid"`
	UserID    int64  `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	StoreID   *int64 `json:"store_id,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewCheckTokenCommand verifica un JWT con el secreto configurado e imprime sus claims.
func NewCheckTokenCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-token <jwt>",
		Short: "Verifica un token y muestra sus claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := opts.jwtSecret()
			if err != nil {
				return err
			}
			tok := strings.TrimSpace(strings.TrimPrefix(args[0], "Bearer "))

			var info tokenInfo
			claims, err := jwt.Parse(secret, tok)
			if err != nil {
				info.Error = err.Error()
			} else {
				info = tokenInfo{Valid: true, UserID: claims.UserID, Email: claims.Email, Role: claims.Role, StoreID: claims.StoreID}
				if claims.ExpiresAt != nil {
					info.ExpiresAt = claims.ExpiresAt.Time.UTC().Format("2006-01-02T15:04:05Z")
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(info); err != nil {
				return err
			}
			if !info.Valid {
				return fmt.Errorf("token inválido")
			}
			return nil
		},
	}
}
