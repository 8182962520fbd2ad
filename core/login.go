package core

import "time"

// Challenge represents a pending login request awaiting wallet approval
type Challenge struct {
	ID                   string    // Check-encoded challenge identifier (i-address format)
	CreatedAt            time.Time // When the challenge was issued
	URI                  string    // Wallet-addressable deep link carrying the signed request
	RequestedPermissions []string  // VDXF keys of the permissions the app asks for
}

// Age returns how long ago the challenge was issued
func (c *Challenge) Age(now time.Time) time.Duration {
	return now.Sub(c.CreatedAt)
}

// Result represents the verified outcome of a challenge
type Result struct {
	ChallengeID  string         // Identifier of the challenge this result answers
	IAddress     string         // The signer's i-address
	FriendlyName string         // Human-friendly VerusID name (e.g. "player3@")
	Data         map[string]any // Opaque passthrough data from the completion hook
}

// VerifiedLogin is handed to the application's completion hook once a
// wallet response passes signature verification
type VerifiedLogin struct {
	IAddress     string `json:"iAddress"`
	FriendlyName string `json:"friendlyName"`
	ChallengeID  string `json:"challengeId"`
}

// PollStatus is the tri-state resolution of a challenge
type PollStatus string

const (
	StatusPending  PollStatus = "pending"
	StatusVerified PollStatus = "verified"
	StatusError    PollStatus = "error"
)

// PollResponse is the result of a single poll query. It is computed from
// current store contents on each read and never persisted.
type PollResponse struct {
	Status       PollStatus     `json:"status"`
	IAddress     string         `json:"iAddress,omitempty"`
	FriendlyName string         `json:"friendlyName,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// ChallengeResponse is what a challenge fetch returns to the client
type ChallengeResponse struct {
	ChallengeID string `json:"challengeId"`
	URI         string `json:"uri"`
}
