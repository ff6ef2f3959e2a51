package service

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/TooLazyToCreate/lap-counter/internal/i18n"
	"github.com/TooLazyToCreate/lap-counter/internal/model"
	"github.com/TooLazyToCreate/lap-counter/internal/repository"
)

// HandleListRunners handles GET /api/runners.
func (service *Service) HandleListRunners(w http.ResponseWriter, req *http.Request) {
	runners, err := service.runners.List(req.Context())
	if err != nil {
		service.internalError(w, req, "Failed to list runners", err)
		return
	}
	service.writeData(w, runners)
}

// HandleGetRunner handles GET /api/runners/{number}.
func (service *Service) HandleGetRunner(w http.ResponseWriter, req *http.Request) {
	number, ok := runnerNumber(req)
	if !ok {
		service.writeMessage(w, req, http.StatusBadRequest, i18n.RunnerNumberInvalid)
		return
	}
	runner, err := service.runners.Get(req.Context(), number)
	if errors.Is(err, repository.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	} else if err != nil {
		service.internalError(w, req, "Failed to get runner", err)
		return
	}
	service.writeData(w, runner)
}

type createRunnerRequest struct {
	Number    int64  `json:"number"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Grade     string `json:"grade"`
	House     string `json:"house"`
}

// HandleCreateRunner handles POST /api/runners.
func (service *Service) HandleCreateRunner(w http.ResponseWriter, req *http.Request) {
	var payload createRunnerRequest
	if err := decodeJSON(req.Body, &payload); err != nil {
		service.writeMessage(w, req, http.StatusBadRequest, i18n.InvalidBody)
		service.logger.Debug("Bad request", zap.Error(err), zap.String("ip", req.RemoteAddr))
		return
	}

	runner := &model.Runner{
		Number:    payload.Number,
		FirstName: strings.TrimSpace(payload.FirstName),
		LastName:  strings.TrimSpace(payload.LastName),
		Grade:     strings.TrimSpace(payload.Grade),
		House:     strings.TrimSpace(payload.House),
	}
	if runner.Number <= 0 {
		service.writeMessage(w, req, http.StatusBadRequest, i18n.RunnerNumberInvalid)
		return
	}
	if runner.FirstName == "" || runner.LastName == "" {
		service.writeMessage(w, req, http.StatusBadRequest, i18n.RunnerNameRequired)
		return
	}

	created, err := service.runners.Create(req.Context(), runner)
	if errors.Is(err, repository.ErrDuplicate) {
		service.writeMessage(w, req, http.StatusBadRequest, i18n.RunnerExists)
		return
	} else if err != nil {
		service.internalError(w, req, "Failed to create runner", err)
		return
	}
	service.logger.Debug("Runner created", zap.Int64("number", created.Number))
	service.writeData(w, created)
}

// HandleDeleteRunner handles DELETE /api/runners/{number}.
func (service *Service) HandleDeleteRunner(w http.ResponseWriter, req *http.Request) {
	number, ok := runnerNumber(req)
	if !ok {
		service.writeMessage(w, req, http.StatusBadRequest, i18n.RunnerNumberInvalid)
		return
	}

	/* Круги бегуна удаляются в той же транзакции */
	deleted, err := service.runners.Delete(req.Context(), number)
	if errors.Is(err, repository.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	} else if err != nil {
		service.internalError(w, req, "Failed to delete runner", err)
		return
	}
	service.logger.Info("Runner deleted",
		zap.Int64("number", number),
		zap.String("ip", req.RemoteAddr))
	service.writeData(w, deleted)
}

// HandleCreateLap handles POST /api/runners/{number}/laps.
func (service *Service) HandleCreateLap(w http.ResponseWriter, req *http.Request) {
	number, ok := runnerNumber(req)
	if !ok {
		service.writeMessage(w, req, http.StatusBadRequest, i18n.RunnerNumberInvalid)
		return
	}
	lap, err := service.laps.Create(req.Context(), number)
	if errors.Is(err, repository.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	} else if err != nil {
		service.internalError(w, req, "Failed to count lap", err)
		return
	}
	service.writeData(w, lap)
}
