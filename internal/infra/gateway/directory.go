package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"

	"github.com/covault/covault"
	"github.com/covault/covault/client"
	"github.com/covault/covault/internal/domain"
	"github.com/covault/covault/internal/usecase"
)

var tracer = otel.Tracer("gateway")

// DirectoryGateway adapts the directory HTTP client to the usecase port,
// mapping transport failures to domain error kinds.
type DirectoryGateway struct {
	client *client.Client
}

func NewDirectoryGateway(cl *client.Client) *DirectoryGateway {
	return &DirectoryGateway{client: cl}
}

func (g *DirectoryGateway) GetUser(ctx context.Context, userID string) (covault.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Gateway.GetUser")
	defer span.End()

	if !covault.IsUserID(userID) {
		return covault.UserProfile{}, domain.ValidationError{Message: "invalid user id"}
	}

	profile, err := g.client.GetUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, client.ErrNotFound) {
			return covault.UserProfile{}, domain.NotFoundError{Resource: "user"}
		}
		return covault.UserProfile{}, domain.UnavailableError{Collaborator: "directory", Err: err}
	}

	if profile.UserID == "" {
		profile.UserID = userID
	}
	// A payout address the chain cannot parse is worse than none.
	if profile.Address != "" && !common.IsHexAddress(profile.Address) {
		slog.WarnContext(ctx, "directory returned an invalid payout address",
			slog.String("user", userID),
			slog.String("address", profile.Address),
			slog.String("module", "gateway"),
		)
		profile.Address = ""
	}
	return profile, nil
}

var _ usecase.Directory = (*DirectoryGateway)(nil)
