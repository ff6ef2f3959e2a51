package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/message"

	"github.com/TooLazyToCreate/lap-counter/internal/i18n"
	"github.com/TooLazyToCreate/lap-counter/internal/model"
)

type Appearance string

const (
	AppearanceSuccess Appearance = "success"
	AppearanceError   Appearance = "error"
)

type Toast struct {
	Key        i18n.Key
	Message    string
	Appearance Appearance
}

func (t Toast) Failed() bool {
	return t.Appearance == AppearanceError
}

// ErrStatus is returned by Refresh for any answer other than 200.
var ErrStatus = errors.New("unexpected response status")

type RunnerList struct {
	baseURL string
	token   string
	http    *http.Client
	printer *message.Printer

	mu   sync.Mutex
	rows []model.RunnerWithLapCount
}

// NewRunnerList creates an empty list bound to the server at baseURL. The session token
// is sent as a bearer token when not empty.
func NewRunnerList(baseURL, sessionToken string, printer *message.Printer) *RunnerList {
	return &RunnerList{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   sessionToken,
		http:    &http.Client{Timeout: 10 * time.Second},
		printer: printer,
		rows:    []model.RunnerWithLapCount{},
	}
}

func (l *RunnerList) WithHTTPClient(c *http.Client) *RunnerList {
	l.http = c
	return l
}

// Rows returns a copy of the current rows ordered by number.
func (l *RunnerList) Rows() []model.RunnerWithLapCount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.RunnerWithLapCount(nil), l.rows...)
}

func (l *RunnerList) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows) == 0
}

// Refresh replaces the rows with the server's list. On failure the old rows stay and
// an error toast is returned together with the error.
func (l *RunnerList) Refresh(ctx context.Context) (Toast, error) {
	res, err := l.do(ctx, http.MethodGet, "/api/runners")
	if err != nil {
		return l.toast(i18n.ToastError, AppearanceError), err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return l.toast(i18n.ToastError, AppearanceError), fmt.Errorf("%w: %d", ErrStatus, res.StatusCode)
	}
	var payload struct {
		Data []model.RunnerWithLapCount `json:"data"`
	}
	if err = json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return l.toast(i18n.ToastError, AppearanceError), fmt.Errorf("decode runners: %w", err)
	}
	if payload.Data == nil {
		payload.Data = []model.RunnerWithLapCount{}
	}

	l.mu.Lock()
	l.rows = payload.Data
	l.mu.Unlock()
	return Toast{}, nil
}

// Delete asks the server to remove the runner and drops exactly that row once the server
// confirmed it.
func (l *RunnerList) Delete(ctx context.Context, number int64) Toast {
	res, err := l.do(ctx, http.MethodDelete, "/api/runners/"+strconv.FormatInt(number, 10))
	if err != nil {
		return l.toast(i18n.ToastError, AppearanceError)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		l.remove(number)
		return l.toast(i18n.ToastDeleted, AppearanceSuccess)
	case http.StatusForbidden:
		return l.toast(i18n.ToastForbidden, AppearanceError)
	case http.StatusNotFound:
		return l.toast(i18n.ToastNotFound, AppearanceError)
	}
	return l.toast(i18n.ToastError, AppearanceError)
}

func (l *RunnerList) remove(number int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := make([]model.RunnerWithLapCount, 0, len(l.rows))
	for _, row := range l.rows {
		if row.Number != number {
			kept = append(kept, row)
		}
	}
	l.rows = kept
}

func (l *RunnerList) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, l.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}
	return l.http.Do(req)
}

func (l *RunnerList) toast(key i18n.Key, appearance Appearance) Toast {
	text := key
	if l.printer != nil {
		text = l.printer.Sprintf(key)
	}
	return Toast{Key: key, Message: text, Appearance: appearance}
}
