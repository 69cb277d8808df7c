package token

import "time"

// Maker creates and verifies auth tokens. Keeping it behind an interface
// lets tests substitute a stub and keeps the PASETO dependency local.
type Maker interface {
	CreateToken(email string, duration time.Duration) (string, error)

	VerifyToken(token string) (*Payload, error)
}
