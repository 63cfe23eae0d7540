package interfaces

import (
	"context"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
)

// AuthPolicy decides whether a caller may use the pairing workflow
type AuthPolicy interface {
	IsAuthorized(ctx context.Context, callerID model.UserID) (bool, error)
}
