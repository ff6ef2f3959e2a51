package i18n

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the selected language.
	LangCookieName = "lang"
)

type Key = string

const (
	AccessTokenExists   Key = "access token already exists"
	ExpiryMissing       Key = "expiry date is missing"
	ExpiryInvalid       Key = "expiry date must be a valid date"
	ExpiryInPast        Key = "expiry date must be in the future"
	RunnerExists        Key = "runner already exists"
	RunnerNumberInvalid Key = "runner number must be a positive integer"
	RunnerNameRequired  Key = "first and last name are required"
	InvalidBody         Key = "invalid request body"
	InvalidCredentials  Key = "invalid email or password"

	ToastError        Key = "An error occurred"
	ToastDeleted      Key = "Runner deleted successfully"
	ToastForbidden    Key = "Missing permission"
	ToastNotFound     Key = "Runner not found"
	ToastUnauthorized Key = "Please sign in"

	PageRunners      Key = "Runners"
	ColumnNumber     Key = "Number"
	ColumnFirstName  Key = "First name"
	ColumnLastName   Key = "Last name"
	ColumnGrade      Key = "Grade"
	ColumnHouse      Key = "House"
	ColumnLaps       Key = "Laps"
	ActionDelete     Key = "Delete"
	EmptyRunners     Key = "No runners yet"
	AccessDenied     Key = "Access denied"
	AccessDeniedHint Key = "You must be signed in as a helper or administrator to view this page."
)

var german = map[Key]string{
	AccessTokenExists:   "Access Token existiert bereits",
	ExpiryMissing:       "Auslaufdatum fehlt",
	ExpiryInvalid:       "Auslaufdatum muss ein gültiges Datum sein",
	ExpiryInPast:        "Auslaufdatum muss in der Zukunft liegen",
	RunnerExists:        "Läufer existiert bereits",
	RunnerNumberInvalid: "Startnummer muss eine positive ganze Zahl sein",
	RunnerNameRequired:  "Vor- und Nachname sind erforderlich",
	InvalidBody:         "Ungültige Anfrage",
	InvalidCredentials:  "E-Mail oder Passwort ungültig",

	ToastError:        "Ein Fehler ist aufgetreten",
	ToastDeleted:      "Läufer erfolgreich gelöscht",
	ToastForbidden:    "Fehlende Berechtigung",
	ToastNotFound:     "Läufer nicht gefunden",
	ToastUnauthorized: "Bitte melden Sie sich an",

	PageRunners:      "Läufer",
	ColumnNumber:     "Startnummer",
	ColumnFirstName:  "Vorname",
	ColumnLastName:   "Nachname",
	ColumnGrade:      "Klasse",
	ColumnHouse:      "Haus",
	ColumnLaps:       "Runden",
	ActionDelete:     "Löschen",
	EmptyRunners:     "Keine Läufer vorhanden",
	AccessDenied:     "Zugriff verweigert",
	AccessDeniedHint: "Sie müssen als Helfer oder Administrator angemeldet sein, um diese Seite zu sehen.",
}

// Keys lists every message in a stable order.
var Keys = []Key{
	AccessTokenExists, ExpiryMissing, ExpiryInvalid, ExpiryInPast, RunnerExists,
	RunnerNumberInvalid, RunnerNameRequired, InvalidBody, InvalidCredentials,
	ToastError, ToastDeleted, ToastForbidden, ToastNotFound, ToastUnauthorized,
	PageRunners, ColumnNumber, ColumnFirstName, ColumnLastName, ColumnGrade, ColumnHouse,
	ColumnLaps, ActionDelete, EmptyRunners, AccessDenied, AccessDeniedHint,
}

type Localizer struct {
	builder   *catalog.Builder
	supported []language.Tag
	matcher   language.Matcher
}

// New builds the catalog. Unknown or empty defaultLocale falls back to German.
func New(defaultLocale string) *Localizer {
	fallback := language.German
	if tag, err := language.Parse(strings.TrimSpace(defaultLocale)); err == nil {
		if base, _ := tag.Base(); base.String() == "en" {
			fallback = language.English
		}
	}
	supported := []language.Tag{fallback}
	if fallback == language.German {
		supported = append(supported, language.English)
	} else {
		supported = append(supported, language.German)
	}

	builder := catalog.NewBuilder(catalog.Fallback(fallback))
	for _, key := range Keys {
		_ = builder.SetString(language.English, key, key)
		_ = builder.SetString(language.German, key, german[key])
	}
	return &Localizer{
		builder:   builder,
		supported: supported,
		matcher:   language.NewMatcher(supported),
	}
}

func (l *Localizer) Default() language.Tag {
	return l.supported[0]
}

func (l *Localizer) Supported() []language.Tag {
	return append([]language.Tag(nil), l.supported...)
}

func (l *Localizer) Match(tags ...language.Tag) language.Tag {
	if len(tags) == 0 {
		return l.Default()
	}
	_, index, confidence := l.matcher.Match(tags...)
	if confidence == language.No {
		return l.Default()
	}
	return l.supported[index]
}

// ResolveTag checks the lang query parameter, then the lang cookie, then Accept-Language.
func (l *Localizer) ResolveTag(req *http.Request) language.Tag {
	if req == nil {
		return l.Default()
	}
	if value := strings.TrimSpace(req.URL.Query().Get(LangParam)); value != "" {
		if tag, err := language.Parse(value); err == nil {
			return l.Match(tag)
		}
	}
	if cookie, err := req.Cookie(LangCookieName); err == nil {
		if tag, err := language.Parse(strings.TrimSpace(cookie.Value)); err == nil {
			return l.Match(tag)
		}
	}
	if accept := strings.TrimSpace(req.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			return l.Match(tags...)
		}
	}
	return l.Default()
}

func (l *Localizer) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(l.Match(tag), message.Catalog(l.builder))
}

func (l *Localizer) FromRequest(req *http.Request) *message.Printer {
	return l.Printer(l.ResolveTag(req))
}

// Messages renders every key for tag, for embedding into pages.
func (l *Localizer) Messages(tag language.Tag) map[Key]string {
	p := l.Printer(tag)
	out := make(map[Key]string, len(Keys))
	for _, key := range Keys {
		out[key] = p.Sprintf(key)
	}
	return out
}

func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}
