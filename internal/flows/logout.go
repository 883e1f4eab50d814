package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goGuard/refresh"
	"github.com/MrEthical07/goGuard/session"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Revoke    func(ctx context.Context, token string) error
	RevokeAll func(ctx context.Context, userID string, userType session.UserType) (int64, error)
}

// RunLogout revokes refreshToken. Logging out without a token, or with one
// that is already gone, succeeds.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) error {
	if refreshToken == "" {
		return nil
	}
	err := deps.Revoke(ctx, refreshToken)
	if errors.Is(err, refresh.ErrTokenNotFound) {
		return nil
	}
	return err
}

// RunLogoutAll revokes every refresh token held by the caller.
func RunLogoutAll(ctx context.Context, userID string, userType session.UserType, deps LogoutDeps) (int64, error) {
	if userID == "" {
		return 0, nil
	}
	return deps.RevokeAll(ctx, userID, userType)
}
