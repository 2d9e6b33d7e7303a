package app

import (
	"context"
	"strings"

	"civil-quiz/internal/domain"
	"go.uber.org/zap"
)

// AuthClient talks to the external code-verification endpoint.
// It returns nil on success, *domain.AuthenticationError on rejection and
// *domain.NetworkError on transport or decoding failure.
type AuthClient interface {
	Verify(ctx context.Context, name, qualification, code string) error
}

// Authenticator validates login input, verifies it remotely and persists
// the identity on success.
type Authenticator struct {
	client     AuthClient
	identities *IdentityStore
	log        *zap.Logger
}

func NewAuthenticator(client AuthClient, identities *IdentityStore, log *zap.Logger) *Authenticator {
	return &Authenticator{client: client, identities: identities, log: log}
}

// VerifyAndLogin makes exactly one verification request for non-empty
// name and code, and none otherwise.
func (a *Authenticator) VerifyAndLogin(ctx context.Context, name, qualification, code string) (domain.UserIdentity, error) {
	user, err := validateLogin(name, qualification, code)
	if err != nil {
		return domain.UserIdentity{}, err
	}

	if err := a.client.Verify(ctx, user.Name, user.Qualification, user.Code); err != nil {
		a.log.Info("verification failed", zap.String("name", user.Name), zap.Error(err))
		return domain.UserIdentity{}, err
	}

	if err := a.identities.Save(ctx, user); err != nil {
		return domain.UserIdentity{}, err
	}
	a.log.Info("user verified", zap.String("name", user.Name))
	return user, nil
}

func validateLogin(name, qualification, code string) (domain.UserIdentity, error) {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" {
		return domain.UserIdentity{}, &domain.ValidationError{Field: "name"}
	}
	if code == "" {
		return domain.UserIdentity{}, &domain.ValidationError{Field: "code"}
	}
	return domain.UserIdentity{Name: name, Qualification: qualification, Code: code}, nil
}
