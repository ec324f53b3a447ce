package auth

import (
	"fmt"

	"aidanwoods.dev/go-paseto"
	"github.com/shopengine/order-service/internal/entities"
)

// TokenPayload is the claim set the identity service embeds in each
// bearer token.
type TokenPayload struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
}

// PasetoVerifier checks v4.local bearer tokens issued by the identity
// service. This service only verifies; issuance lives elsewhere.
type PasetoVerifier struct {
	parser paseto.Parser
	key    paseto.V4SymmetricKey
}

func NewPasetoVerifier(hexKey string) (*PasetoVerifier, error) {
	key, err := paseto.V4SymmetricKeyFromHex(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid paseto key: %w", err)
	}

	return &PasetoVerifier{
		parser: paseto.NewParser(),
		key:    key,
	}, nil
}

// VerifyToken parses and validates a bearer token and returns the
// requester identity carried by it.
func (v *PasetoVerifier) VerifyToken(token string) (entities.Requester, error) {
	parsed, err := v.parser.ParseV4Local(v.key, token, nil)
	if err != nil {
		return entities.Requester{}, fmt.Errorf("invalid token: %w", err)
	}

	var payload TokenPayload
	if err := parsed.Get("payload", &payload); err != nil {
		return entities.Requester{}, fmt.Errorf("invalid token payload: %w", err)
	}
	if payload.UserID == "" {
		return entities.Requester{}, entities.ErrMissingRequester
	}

	return entities.Requester{ID: payload.UserID, IsAdmin: payload.IsAdmin}, nil
}
