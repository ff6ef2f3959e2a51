package service

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TooLazyToCreate/lap-counter/config"
	"github.com/TooLazyToCreate/lap-counter/internal/gate"
	"github.com/TooLazyToCreate/lap-counter/internal/i18n"
	"github.com/TooLazyToCreate/lap-counter/internal/repository"
)

type Service struct {
	logger       *zap.Logger
	cfg          *config.Config
	gate         *gate.Gate
	localizer    *i18n.Localizer
	users        repository.UserRepository
	accessTokens repository.AccessTokenRepository
	runners      repository.RunnerRepository
	laps         repository.LapRepository
}

type Repositories struct {
	Users        repository.UserRepository
	AccessTokens repository.AccessTokenRepository
	Runners      repository.RunnerRepository
	Laps         repository.LapRepository
}

func NewService(logger *zap.Logger, cfg *config.Config, g *gate.Gate, localizer *i18n.Localizer, repos Repositories) *Service {
	return &Service{
		logger:       logger,
		cfg:          cfg,
		gate:         g,
		localizer:    localizer,
		users:        repos.Users,
		accessTokens: repos.AccessTokens,
		runners:      repos.Runners,
		laps:         repos.Laps,
	}
}

type dataResponse struct {
	Data any `json:"data"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (service *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		service.logger.Error("JSON failure", zap.Error(err))
	}
}

func (service *Service) writeData(w http.ResponseWriter, v any) {
	service.writeJSON(w, http.StatusOK, dataResponse{Data: v})
}

/* Сообщение для пользователя переводится на язык запроса */
func (service *Service) writeMessage(w http.ResponseWriter, req *http.Request, status int, key i18n.Key) {
	service.writeJSON(w, status, messageResponse{
		Message: service.localizer.FromRequest(req).Sprintf(key),
	})
}

/* Тело ответа при внутренних ошибках не отдаём */
func (service *Service) internalError(w http.ResponseWriter, req *http.Request, msg string, err error) {
	w.WriteHeader(http.StatusInternalServerError)
	service.logger.Error(msg, zap.Error(err),
		zap.String("ip", req.RemoteAddr),
		zap.String("path", req.URL.Path))
}

func decodeJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func runnerNumber(req *http.Request) (int64, bool) {
	number, err := strconv.ParseInt(chi.URLParam(req, "number"), 10, 64)
	if err != nil || number <= 0 {
		return 0, false
	}
	return number, true
}
