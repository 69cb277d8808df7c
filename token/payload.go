package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrExpired = errors.New("token has expired")

type Payload struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiredAt time.Time `json:"expired_at"`
}

func NewPayload(email string, duration time.Duration) (*Payload, error) {
	if email == "" {
		return nil, errors.New("email cannot be empty")
	}
	if duration <= 0 {
		return nil, errors.New("duration must be positive")
	}

	tokenID, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	issuedAt := time.Now().UTC()
	payload := &Payload{
		ID:        tokenID,
		Email:     email,
		IssuedAt:  issuedAt,
		ExpiredAt: issuedAt.Add(duration),
	}
	return payload, nil
}

func (payload *Payload) Valid() error {
	if time.Now().UTC().After(payload.ExpiredAt) {
		return ErrExpired
	}
	return nil
}

func (p *Payload) String() string {
	return fmt.Sprintf("ID: %s, Email: %s, IssuedAt: %s, ExpiredAt: %s", p.ID, p.Email, p.IssuedAt, p.ExpiredAt)
}
