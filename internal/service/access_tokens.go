package service

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/TooLazyToCreate/lap-counter/internal/i18n"
	"github.com/TooLazyToCreate/lap-counter/internal/model"
	"github.com/TooLazyToCreate/lap-counter/internal/repository"
)

// HandleCreateAccessToken handles POST /api/accessTokens/create. No body fields are required
// unless expiry validation is switched on in the config.
func (service *Service) HandleCreateAccessToken(w http.ResponseWriter, req *http.Request) {
	/* Гейт уже проверил роль, но email владельца берём из токена заново */
	claims := service.gate.Claims(req)
	if claims == nil || claims.Email == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var expiresAt *time.Time
	if service.cfg.AccessTokens.RequireExpiry {
		var (
			key i18n.Key
			err error
		)
		expiresAt, key, err = validateExpiresAt(req.Body, time.Now())
		if err != nil {
			service.writeMessage(w, req, http.StatusBadRequest, key)
			service.logger.Debug("Bad request", zap.Error(err), zap.String("ip", req.RemoteAddr))
			return
		}
	}

	user, err := service.users.GetByEmail(req.Context(), claims.Email)
	if errors.Is(err, repository.ErrNotFound) {
		w.WriteHeader(http.StatusForbidden)
		service.logger.Error("User not found", zap.String("ip", req.RemoteAddr), zap.String("email", claims.Email))
		return
	} else if err != nil {
		service.internalError(w, req, "Failed to look up user", err)
		return
	}

	accessToken, err := service.accessTokens.Create(req.Context(), &model.AccessToken{
		CreatedBy: user.UUID,
		ExpiresAt: expiresAt,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		service.writeMessage(w, req, http.StatusBadRequest, i18n.AccessTokenExists)
		return
	} else if err != nil {
		service.internalError(w, req, "Failed to create access token", err)
		return
	}

	service.logger.Debug("Access token created",
		zap.String("token_uuid", accessToken.UUID),
		zap.String("user_uuid", user.UUID))
	service.writeData(w, accessToken.WithOwner(*user))
}

// HandleListAccessTokens handles GET /api/accessTokens.
func (service *Service) HandleListAccessTokens(w http.ResponseWriter, req *http.Request) {
	tokens, err := service.accessTokens.List(req.Context())
	if err != nil {
		service.internalError(w, req, "Failed to list access tokens", err)
		return
	}
	service.writeData(w, tokens)
}

type createAccessTokenRequest struct {
	ExpiresAt *string `json:"expiresAt"`
}

/* Проверка срока действия: поле обязательно, дата валидна и лежит в будущем */
func validateExpiresAt(body io.Reader, now time.Time) (*time.Time, i18n.Key, error) {
	var payload createAccessTokenRequest
	if body != nil {
		if err := json.NewDecoder(body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			return nil, i18n.InvalidBody, err
		}
	}
	if payload.ExpiresAt == nil || *payload.ExpiresAt == "" {
		return nil, i18n.ExpiryMissing, errors.New("expiresAt is missing")
	}
	expiresAt, err := time.Parse(time.RFC3339, *payload.ExpiresAt)
	if err != nil {
		return nil, i18n.ExpiryInvalid, err
	}
	if !expiresAt.After(now) {
		return nil, i18n.ExpiryInPast, errors.New("expiresAt is not in the future")
	}
	expiresAt = expiresAt.UTC()
	return &expiresAt, "", nil
}
