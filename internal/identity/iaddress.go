// Package identity generates and validates i-address style identifiers.
//
// Challenge identifiers share the VerusID i-address format: a 20-byte random
// payload check-encoded under version byte 102, which yields the familiar
// "i" prefix. The reserved version byte keeps identifiers distinguishable
// from payload data on the wire.
package identity

import (
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// IAddressVersion is the base58check version byte for i-addresses
const IAddressVersion byte = 102

const payloadLen = 20

// NewChallengeID generates a fresh challenge identifier. The 160 bits of
// entropy make collisions a non-concern, but the store still rejects
// duplicate identifiers.
func NewChallengeID() (string, error) {
	payload := make([]byte, payloadLen)
	if _, err := rand.Read(payload); err != nil {
		return "", fmt.Errorf("failed to generate challenge id: %w", err)
	}
	return base58.CheckEncode(payload, IAddressVersion), nil
}

// NewSalt generates a random i-address used as a request salt
func NewSalt() (string, error) {
	return NewChallengeID()
}

// IsIAddress reports whether s is a well-formed i-address
func IsIAddress(s string) bool {
	payload, version, err := base58.CheckDecode(s)
	if err != nil {
		return false
	}
	return version == IAddressVersion && len(payload) == payloadLen
}
