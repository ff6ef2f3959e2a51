package service

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/TooLazyToCreate/lap-counter/internal/i18n"
	"github.com/TooLazyToCreate/lap-counter/internal/model"
	"github.com/TooLazyToCreate/lap-counter/internal/repository"
	"github.com/TooLazyToCreate/lap-counter/internal/token"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// HandleLogin handles POST /api/auth/login.
func (service *Service) HandleLogin(w http.ResponseWriter, req *http.Request) {
	var payload loginRequest
	if err := decodeJSON(req.Body, &payload); err != nil {
		service.writeMessage(w, req, http.StatusBadRequest, i18n.InvalidBody)
		service.logger.Debug("Bad request", zap.Error(err), zap.String("ip", req.RemoteAddr))
		return
	}
	email := strings.TrimSpace(payload.Email)
	if email == "" || payload.Password == "" {
		service.writeMessage(w, req, http.StatusBadRequest, i18n.InvalidBody)
		return
	}

	user, err := service.users.GetByEmail(req.Context(), email)
	if errors.Is(err, repository.ErrNotFound) {
		service.writeMessage(w, req, http.StatusUnauthorized, i18n.InvalidCredentials)
		service.logger.Info("Login for unknown user", zap.String("ip", req.RemoteAddr))
		return
	} else if err != nil {
		service.internalError(w, req, "Failed to look up user", err)
		return
	}

	/* Пустой хэш означает, что вход по паролю для пользователя не настроен */
	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)) != nil {
		service.writeMessage(w, req, http.StatusUnauthorized, i18n.InvalidCredentials)
		service.logger.Info("Password mismatch", zap.String("ip", req.RemoteAddr), zap.String("user_uuid", user.UUID))
		return
	}

	session, err := token.Sign(service.cfg.Secret, token.ClaimsFor(user), service.cfg.SessionMaxAge())
	if err != nil {
		service.internalError(w, req, "Failed to generate token", err)
		return
	}
	token.WriteCookie(w, req, service.cfg.Session.CookieName, session, service.cfg.SessionMaxAge())
	service.logger.Debug("New session was given", zap.String("user_uuid", user.UUID))
	service.writeData(w, loginResponse{Token: string(session), User: user})
}

// HandleLogout handles POST /api/auth/logout.
func (service *Service) HandleLogout(w http.ResponseWriter, req *http.Request) {
	token.ClearCookie(w, req, service.cfg.Session.CookieName)
	w.WriteHeader(http.StatusOK)
}

// HandleSession handles GET /api/auth/session.
func (service *Service) HandleSession(w http.ResponseWriter, req *http.Request) {
	claims := service.gate.Claims(req)
	if claims == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	service.writeData(w, claims)
}
