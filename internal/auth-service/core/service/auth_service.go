package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transit-mapper/internal/auth-service/core/domain/dto"
	"transit-mapper/internal/auth-service/core/domain/model"
	"transit-mapper/internal/auth-service/core/myerrors"
	"transit-mapper/internal/auth-service/core/ports"
	"transit-mapper/internal/config"
	"transit-mapper/internal/mylogger"

	"github.com/golang-jwt/jwt"
)

type AuthService struct {
	ctx         context.Context
	cfg         *config.Config
	mappersRepo ports.IMappersRepo
	mylog       mylogger.Logger
}

func NewAuthService(
	ctx context.Context,
	cfg *config.Config,
	mappersRepo ports.IMappersRepo,
	mylogger mylogger.Logger,
) *AuthService {
	return &AuthService{
		ctx:         ctx,
		cfg:         cfg,
		mappersRepo: mappersRepo,
		mylog:       mylogger,
	}
}

// ======================= Register =======================
func (as *AuthService) Register(ctx context.Context, regReq dto.MapperRegistrationRequest) (string, string, error) {
	mylog := as.mylog.Action("Register")

	if err := validateRegistration(ctx, regReq.Username, regReq.Email, regReq.Password); err != nil {
		return "", "", err
	}

	hashedPassword, err := hashPassword(regReq.Password)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash password: %v", err)
	}
	mapper := model.Mapper{
		Username:     regReq.Username,
		Email:        regReq.Email,
		PasswordHash: hashedPassword,
	}

	id, err := as.mappersRepo.Create(ctx, mapper)
	if err != nil {
		if errors.Is(err, myerrors.ErrUsernameTaken) {
			mylog.Warn("Failed to register, username already taken")
			return "", "", err
		}
		if errors.Is(err, myerrors.ErrEmailRegistered) {
			mylog.Warn("Failed to register, email already registered")
			return "", "", err
		}
		mylog.Error("Failed to save mapper in db", err)
		return "", "", fmt.Errorf("cannot save mapper in db: %w", err)
	}

	accessTokenString, err := as.issueToken(id, regReq.Email)
	if err != nil {
		mylog.Error("error to create jwt token", err)
		return "", "", err
	}

	mylog.Info("Mapper registered successfully")
	return id, accessTokenString, nil
}

func (as *AuthService) Login(ctx context.Context, authReq dto.MapperAuthRequest) (string, error) {
	mylog := as.mylog.Action("Login")

	if err := validateLogin(ctx, authReq.Email, authReq.Password); err != nil {
		return "", err
	}

	mapper, err := as.mappersRepo.GetByEmail(ctx, authReq.Email)
	if err != nil {
		if errors.Is(err, myerrors.ErrUnknownEmail) {
			mylog.Warn("Failed to login, unknown email")
			return "", err
		}
		mylog.Error("Failed to read mapper from db", err)
		return "", fmt.Errorf("cannot read mapper from db: %w", err)
	}

	// Compare password hashes
	if !checkPassword(mapper.PasswordHash, authReq.Password) {
		mylog.Debug("Failed to login, unknown password")
		return "", myerrors.ErrPasswordUnknown
	}

	accessTokenString, err := as.issueToken(mapper.MapperID, authReq.Email)
	if err != nil {
		mylog.Error("error to create jwt token", err)
		return "", err
	}

	mylog.Info("Mapper login successfully")
	return accessTokenString, nil
}

func (as *AuthService) issueToken(mapperId, email string) (string, error) {
	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"mapper_id": mapperId,
		"email":     email,
		"exp":       time.Now().Add(time.Hour * 24 * 7).Unix(),
	})
	return accessToken.SignedString([]byte(as.cfg.App.JwtSecret))
}
