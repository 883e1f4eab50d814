package flows

import (
	"context"

	"github.com/MrEthical07/goGuard/session"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Authenticate.Verify != nil
}

func (s Service) Login(ctx context.Context, in LoginInput) LoginResult {
	return RunLogin(ctx, in, s.deps.Login)
}

func (s Service) Authenticate(ctx context.Context, token string) AuthenticateResult {
	return RunAuthenticate(ctx, token, s.deps.Authenticate)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) RefreshResult {
	return RunRefresh(ctx, refreshToken, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, refreshToken string) error {
	return RunLogout(ctx, refreshToken, s.deps.Logout)
}

func (s Service) LogoutAll(ctx context.Context, userID string, userType session.UserType) (int64, error) {
	return RunLogoutAll(ctx, userID, userType, s.deps.Logout)
}
