package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/covault/covault"
	"github.com/covault/covault/internal/domain"
	"github.com/covault/covault/jwt"
)

var tracer = otel.Tracer("auth")

type AuthService struct {
	config *domain.Config
}

func NewAuthService(config *domain.Config) *AuthService {
	return &AuthService{
		config: config,
	}
}

type AuthResult struct {
	Principal string
}

// AuthJwt verifies a bearer token and returns the identity that signed it.
// Users authenticate with their own key (cvu...), the transfer pipeline with
// its service key (cvs...).
func (s *AuthService) AuthJwt(ctx context.Context, token string) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthJwt")
	defer span.End()

	header, claims, err := jwt.Validate(token)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, err
	}

	if claims.Audience != s.config.FQDN {
		err := fmt.Errorf("jwt audience mismatch: expected %s, got %s", s.config.FQDN, claims.Audience)
		span.RecordError(err)
		return nil, err
	}

	if claims.Subject != "covault" {
		err := fmt.Errorf("invalid subject")
		span.RecordError(err)
		return nil, err
	}

	keyID := header.KeyID
	if keyID == "" {
		keyID = claims.Issuer
	}

	if covault.IsUserID(keyID) || covault.IsServiceID(keyID) {
		return &AuthResult{Principal: keyID}, nil
	}

	span.RecordError(fmt.Errorf("invalid issuer"))
	return nil, fmt.Errorf("invalid issuer")
}
