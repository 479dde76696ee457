package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	pkgauth "github.com/pmdelrosario/merkado-backend/pkg/auth"
	"github.com/pmdelrosario/merkado-backend/pkg/config"
	"github.com/pmdelrosario/merkado-backend/pkg/enums"
	pkgerrors "github.com/pmdelrosario/merkado-backend/pkg/errors"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
	"github.com/pmdelrosario/merkado-backend/pkg/security"
)

// LoginResult is the payload returned to a staff client after login.
type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	StaffID   string          `json:"staff_id"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Role      enums.StaffRole `json:"role"`
}

// Service authenticates staff accounts and mints access tokens.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

type service struct {
	repo StaffRepository
	cfg  config.JWTConfig
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the staff authentication service.
func NewService(repo StaffRepository, cfg config.JWTConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("staff repository required")
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, cfg: cfg, logg: logg, now: time.Now}, nil
}

// Login verifies credentials and returns a signed access token. All failure
// shapes report the same message so account existence cannot be probed.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	staff, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading staff account")
	}

	ok, err := security.VerifyPassword(password, staff.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok || !staff.IsActive {
		return nil, invalidCredentials()
	}

	now := s.now()
	token, err := pkgauth.MintAccessToken(s.cfg, now, pkgauth.AccessTokenPayload{
		StaffID: staff.ID,
		Email:   staff.Email,
		Role:    staff.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	if err := s.repo.TouchLastLogin(ctx, staff.ID, now); err != nil {
		s.logg.Warn(s.logg.WithStaffID(ctx, staff.ID.String()), "recording last login failed")
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: now.Add(time.Duration(s.cfg.ExpirationMinutes) * time.Minute),
		StaffID:   staff.ID.String(),
		Email:     staff.Email,
		Name:      staff.Name,
		Role:      staff.Role,
	}, nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}
