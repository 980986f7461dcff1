package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/splitsync/splitsync/internal/auth"
)

// AuthService implements registration and login.
type AuthService struct {
	identity   auth.Identity
	jwtManager *auth.JWTManager
}

// NewAuthService creates a new authentication service.
func NewAuthService(identity auth.Identity, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{identity: identity, jwtManager: jwtManager}
}

// Register creates a new user account and returns a session token.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error) {
	slog.Info("Register request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.DisplayName == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.identity.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		slog.Error("Registration failed", "email", req.Msg.Email, "error", err)
		switch err {
		case auth.ErrEmailExists:
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case auth.ErrWeakPassword:
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("User registered", "user_id", user.ID)
	return connect.NewResponse(&AuthResponse{
		Token: token,
		User:  UserView{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
	}), nil
}

// Login authenticates an existing user and returns a session token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error) {
	slog.Info("Login request", "email", req.Msg.Email)

	user, err := s.identity.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		slog.Warn("Login failed", "email", req.Msg.Email)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&AuthResponse{
		Token: token,
		User:  UserView{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
	}), nil
}
