// Package linkedaccounts persists external provider credentials against
// application users once a link flow completes.
package linkedaccounts

import "time"

// Account is one external provider account linked to an application
// user. A user has at most one linked account per provider; relinking
// replaces the stored credential.
type Account struct {
	UserID       string    `json:"user_id"`
	Provider     string    `json:"provider"`
	AccountID    string    `json:"account_id,omitempty"` // Provider-side account identifier
	AccessToken  string    `json:"-"`                    // Never serialize credential material
	RefreshToken string    `json:"-"`
	TokenExpiry  time.Time `json:"token_expiry,omitempty"`
	LinkedAt     time.Time `json:"linked_at"`
}
