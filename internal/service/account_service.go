package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/racha/internal/auth"
	"github.com/mmynk/racha/internal/ledger"
	"github.com/mmynk/racha/pkg/api"
)

// AccountService implements the AccountService RPC interface for venues.
type AccountService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

var _ api.AccountServiceHandler = (*AccountService)(nil)

// NewAccountService creates a new venue account service.
func NewAccountService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// RegisterBar creates a new venue account.
func (s *AccountService) RegisterBar(ctx context.Context, req *connect.Request[api.RegisterBarRequest]) (*connect.Response[api.RegisterBarResponse], error) {
	s.logger.Info("RegisterBar request", "bar", req.Msg.Name)

	bar, err := s.authenticator.Register(ctx, req.Msg.Name, req.Msg.Password, req.Msg.Email, req.Msg.Phone)
	if err != nil {
		s.logger.Error("Registration failed", "bar", req.Msg.Name, "error", err)
		return nil, connectError(err)
	}

	s.logger.Info("Bar registered successfully", "bar", bar.Name)
	return connect.NewResponse(&api.RegisterBarResponse{Bar: bar}), nil
}

// Login authenticates a venue and returns a JWT token.
func (s *AccountService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	s.logger.Info("Login request", "bar", req.Msg.Name)

	if req.Msg.Name == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	bar, err := s.authenticator.Authenticate(ctx, req.Msg.Name, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "bar", req.Msg.Name, "error", err)
		if errors.Is(err, ledger.ErrUnauthorized) {
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
		}
		return nil, connectError(err)
	}

	token, expiresAt, err := s.jwtManager.Generate(bar)
	if err != nil {
		s.logger.Error("Failed to generate token", "bar", bar.Name, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Bar logged in successfully", "bar", bar.Name)
	return connect.NewResponse(&api.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		Bar:       bar,
	}), nil
}
