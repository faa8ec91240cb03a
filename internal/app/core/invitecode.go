package core

import (
	"errors"

	"github.com/gorilla/securecookie"
)

const (
	inviteCodeLength   = 6
	inviteCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	inviteCodeAttempts = 5

	// Bytes at or above this are dropped so every symbol is equally likely
	// (252 = 7 * 36).
	inviteCodeCutoff = 252
	inviteCodeDraws  = 8
)

// NewInvitationCode returns a random six-character upper-case base36 code.
func NewInvitationCode() (string, error) {
	return invitationCode(securecookie.GenerateRandomKey)
}

// invitationCode builds a code from random by rejection sampling.
func invitationCode(random func(n int) []byte) (string, error) {
	out := make([]byte, 0, inviteCodeLength)
	for draws := 0; len(out) < inviteCodeLength; draws++ {
		if draws == inviteCodeDraws {
			return "", errors.New("random source kept returning out-of-range bytes")
		}
		raw := random(2 * inviteCodeLength)
		if raw == nil {
			return "", errors.New("random source unavailable")
		}
		for _, b := range raw {
			if b >= inviteCodeCutoff {
				continue
			}
			out = append(out, inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)])
			if len(out) == inviteCodeLength {
				break
			}
		}
	}
	return string(out), nil
}
