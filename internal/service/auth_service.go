package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"fuelsoyo/internal/models"
	"fuelsoyo/internal/password"
	"fuelsoyo/internal/repository"
)

var (
	// ErrEmailInUse is returned when attempting to register a duplicate email.
	ErrEmailInUse = errors.New("auth: email already registered")
	// ErrWrongPassword is returned when the email exists but the password does not match.
	ErrWrongPassword = errors.New("auth: wrong password")
	// ErrStationCodeRequired is returned when an operator signs up without a code.
	ErrStationCodeRequired = errors.New("auth: station code required for operators")
	// ErrInvalidStationCode is returned when the operator code matches no station.
	ErrInvalidStationCode = errors.New("auth: invalid station code")
)

// RegisterInput is the sign-up form. Admin accounts cannot be self-registered.
type RegisterInput struct {
	Name            string      `json:"name" validate:"required"`
	Email           string      `json:"email" validate:"required,email"`
	Password        string      `json:"password" validate:"required,min=6"`
	ConfirmPassword string      `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
	Role            models.Role `json:"role" validate:"required,oneof=driver operator"`
	StationCode     string      `json:"stationCode"`
}

// Session is what a successful login or sign-up hands back.
type Session struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	User      models.PublicUser `json:"user"`
}

// AuthService contains registration, login and profile logic.
type AuthService struct {
	users      *repository.UserRepository
	stations   *StationService
	dispatcher *Dispatcher
	hasher     password.Hasher
	tokenizer  *TokenService
	logger     *zap.Logger
	opts       options
}

// NewAuthService builds AuthService.
func NewAuthService(
	users *repository.UserRepository,
	stations *StationService,
	dispatcher *Dispatcher,
	hasher password.Hasher,
	tokenizer *TokenService,
	logger *zap.Logger,
	opts ...Option,
) *AuthService {
	return &AuthService{
		users:      users,
		stations:   stations,
		dispatcher: dispatcher,
		hasher:     hasher,
		tokenizer:  tokenizer,
		logger:     logger,
		opts:       buildOptions(opts),
	}
}

// Login authenticates a user and produces a JWT.
func (s *AuthService) Login(ctx context.Context, email, pass string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.hasher.Compare(user.PasswordHash, pass); err != nil {
		return nil, ErrWrongPassword
	}
	return s.session(user)
}

// Register creates an account and logs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	var stationID string
	if input.Role == models.RoleOperator {
		if strings.TrimSpace(input.StationCode) == "" {
			return nil, ErrStationCodeRequired
		}
		station, err := s.stations.ValidateCode(ctx, input.StationCode)
		if errors.Is(err, ErrStationNotFound) {
			return nil, ErrInvalidStationCode
		} else if err != nil {
			return nil, err
		}
		stationID = station.ID
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           s.opts.newID(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		StationID:    stationID,
		Favorites:    []string{},
		Preferences:  &models.Preferences{Email: true, WhatsApp: true},
		CreatedAt:    s.opts.clock(),
	}
	if err := s.users.Create(ctx, user); errors.Is(err, repository.ErrEmailTaken) {
		return nil, ErrEmailInUse
	} else if err != nil {
		return nil, err
	}

	if user.Role == models.RoleOperator {
		message := fmt.Sprintf("%s criou uma conta de operador.", user.Name)
		if _, err := s.dispatcher.Notify(ctx, models.TargetAdmin, "Novo Operador Cadastrado", message, models.SeverityInfo, "/admin"); err != nil {
			s.logger.Error("failed to notify admins of operator", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.session(user)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokenizer.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user.Public()}, nil
}

// Me returns the public profile of userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// ToggleFavorite adds stationID to the favourites or removes it when present.
// Only adding requires the station to exist, so favourites of a deleted
// station can still be removed.
func (s *AuthService) ToggleFavorite(ctx context.Context, userID, stationID string) ([]string, error) {
	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(current.Favorites, stationID) {
		if _, err := s.stations.GetByID(ctx, stationID); err != nil {
			return nil, err
		}
	}
	user, err := s.users.Update(ctx, userID, func(u *models.User) error {
		if i := slices.Index(u.Favorites, stationID); i >= 0 {
			u.Favorites = slices.Delete(u.Favorites, i, i+1)
		} else {
			u.Favorites = append(u.Favorites, stationID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user.Public().Favorites, nil
}

// UpdatePreferences replaces the notification channels of userID.
func (s *AuthService) UpdatePreferences(ctx context.Context, userID string, prefs models.Preferences) (*models.PublicUser, error) {
	user, err := s.users.Update(ctx, userID, func(u *models.User) error {
		u.Preferences = &prefs
		return nil
	})
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}
