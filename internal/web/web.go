package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"go.uber.org/zap"

	"github.com/TooLazyToCreate/lap-counter/internal/gate"
	"github.com/TooLazyToCreate/lap-counter/internal/i18n"
	"github.com/TooLazyToCreate/lap-counter/internal/model"
	"github.com/TooLazyToCreate/lap-counter/internal/repository"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

type Pages struct {
	logger    *zap.Logger
	gate      *gate.Gate
	localizer *i18n.Localizer
	runners   repository.RunnerRepository
}

func NewPages(logger *zap.Logger, g *gate.Gate, localizer *i18n.Localizer, runners repository.RunnerRepository) *Pages {
	return &Pages{
		logger:    logger,
		gate:      g,
		localizer: localizer,
		runners:   runners,
	}
}

type pageData struct {
	Lang    string
	Title   string
	T       map[i18n.Key]string
	Runners []model.RunnerWithLapCount
}

// HandleRunners handles GET /runners.
func (pages *Pages) HandleRunners(w http.ResponseWriter, req *http.Request) {
	tag := pages.localizer.ResolveTag(req)
	if value := req.URL.Query().Get(i18n.LangParam); value != "" {
		i18n.SetLanguageCookie(w, tag)
	}
	data := pageData{
		Lang: tag.String(),
		T:    pages.localizer.Messages(tag),
	}

	/* Сначала проверяем сессию, и только потом читаем базу */
	if err := gate.Check(pages.gate.Claims(req), gate.Staff); err != nil {
		data.Title = data.T[i18n.AccessDenied]
		pages.render(w, req, gate.StatusFor(err), "access_denied", data)
		return
	}

	runners, err := pages.runners.List(req.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		pages.logger.Error("Failed to list runners", zap.Error(err), zap.String("ip", req.RemoteAddr))
		return
	}
	data.Title = data.T[i18n.PageRunners]
	data.Runners = runners
	if data.Runners == nil {
		data.Runners = []model.RunnerWithLapCount{}
	}
	pages.render(w, req, http.StatusOK, "runners", data)
}

func (pages *Pages) render(w http.ResponseWriter, req *http.Request, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		pages.logger.Error("Failed to render page", zap.Error(err),
			zap.String("template", name),
			zap.String("ip", req.RemoteAddr))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Static serves the embedded assets under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
