package service

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/splitsync/splitsync/internal/auth"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	env := newTestEnv(t)
	return NewAuthService(env.identity, auth.NewJWTManager("test-secret", time.Hour))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, connect.NewRequest(&RegisterRequest{
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Password:    "password123",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if resp.Msg.Token == "" || resp.Msg.User.ID == "" {
		t.Errorf("response = %+v, want token and user id", resp.Msg)
	}

	login, err := svc.Login(ctx, connect.NewRequest(&LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.Msg.User.ID != resp.Msg.User.ID {
		t.Errorf("login user = %s, want %s", login.Msg.User.ID, resp.Msg.User.ID)
	}

	// The issued token must carry the user's identity.
	claims, err := auth.NewJWTManager("test-secret", time.Hour).Validate(login.Msg.Token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != resp.Msg.User.ID || claims.Email != "alice@example.com" {
		t.Errorf("claims = %+v, want alice's identity", claims)
	}

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, connect.NewRequest(&RegisterRequest{
			Email:       "alice@example.com",
			DisplayName: "Alice Again",
			Password:    "password123",
		}))
		if connect.CodeOf(err) != connect.CodeAlreadyExists {
			t.Errorf("error code = %v, want already_exists", connect.CodeOf(err))
		}
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := svc.Register(ctx, connect.NewRequest(&RegisterRequest{
			Email:       "bob@example.com",
			DisplayName: "Bob",
			Password:    "short",
		}))
		if connect.CodeOf(err) != connect.CodeInvalidArgument {
			t.Errorf("error code = %v, want invalid_argument", connect.CodeOf(err))
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, connect.NewRequest(&LoginRequest{
			Email:    "alice@example.com",
			Password: "wrong-password",
		}))
		if connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("error code = %v, want unauthenticated", connect.CodeOf(err))
		}
	})
}
