package handle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"transit-mapper/internal/auth-service/core/domain/dto"
	"transit-mapper/internal/auth-service/core/myerrors"
	"transit-mapper/internal/auth-service/core/service"
	"transit-mapper/internal/mylogger"
)

type AuthHandler struct {
	authService *service.AuthService
	mylog       mylogger.Logger
}

func NewAuthHandler(authService *service.AuthService, mylog mylogger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		mylog:       mylog,
	}
}

func (ah *AuthHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var regReq dto.MapperRegistrationRequest

		mylog := ah.mylog.Action("Register")

		if err := json.NewDecoder(r.Body).Decode(&regReq); err != nil {
			mylog.Error("Failed to parse registration", err)
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), WaitTime*time.Second)
		defer cancel()

		mapperId, accessToken, err := ah.authService.Register(ctx, regReq)
		if err != nil {
			if errors.Is(err, myerrors.ErrEmailRegistered) || errors.Is(err, myerrors.ErrUsernameTaken) {
				jsonError(w, http.StatusConflict, err)
				return
			}
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		jsonResponse(w, http.StatusCreated, map[string]string{
			"msg":        fmt.Sprintf("%s registered successfully!", regReq.Username),
			"jwt_access": accessToken,
			"mapper_id":  mapperId,
		})
		mylog.Info("Successfully registered!")
	}
}

func (ah *AuthHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var authReq dto.MapperAuthRequest

		mylog := ah.mylog.Action("Login")

		if err := json.NewDecoder(r.Body).Decode(&authReq); err != nil {
			mylog.Error("Failed to parse login", err)
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), WaitTime*time.Second)
		defer cancel()

		accessToken, err := ah.authService.Login(ctx, authReq)
		if err != nil {
			if errors.Is(err, myerrors.ErrUnknownEmail) || errors.Is(err, myerrors.ErrPasswordUnknown) {
				jsonError(w, http.StatusUnauthorized, err)
				return
			}
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		jsonResponse(w, http.StatusOK, map[string]string{
			"jwt_access": accessToken,
		})
		mylog.Info("Successfully logged in!")
	}
}
