package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TooLazyToCreate/lap-counter/internal/app"
	"github.com/TooLazyToCreate/lap-counter/internal/model"
	"github.com/TooLazyToCreate/lap-counter/internal/repository"
	"github.com/TooLazyToCreate/lap-counter/internal/service"
	"github.com/TooLazyToCreate/lap-counter/internal/testutil"
)

var secret = []byte("lapctl-secret")

func startServer(t *testing.T, numbers ...int64) string {
	t.Helper()
	db := testutil.OpenDB(t)
	logger := testutil.Logger(t)
	runners := repository.NewRunnerRepository(logger, db)
	for _, n := range numbers {
		_, err := runners.Create(context.Background(), &model.Runner{Number: n, FirstName: "Vor", LastName: "Nach"})
		require.NoError(t, err)
	}
	srv := httptest.NewServer(app.NewRouter(logger, testutil.Config(secret), service.Repositories{
		Users:        repository.NewUserRepository(logger, db),
		AccessTokens: repository.NewAccessTokenRepository(logger, db),
		Runners:      runners,
		Laps:         repository.NewLapRepository(logger, db),
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func lapctl(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func helperToken(t *testing.T) string {
	return string(testutil.MintToken(t, secret, "helper@example.com", string(model.RoleHelper), time.Hour))
}

func TestListPrintsRunners(t *testing.T) {
	url := startServer(t, 12, 3)

	code, out, _ := lapctl(t, "-server", url, "-token", helperToken(t), "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Startnummer")
	assert.Less(t, strings.Index(out, "3 "), strings.Index(out, "12 "))
}

func TestListEmpty(t *testing.T) {
	url := startServer(t)

	code, out, _ := lapctl(t, "-server", url, "-token", helperToken(t), "-lang", "en")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "No runners yet")
}

func TestListWithoutSessionFails(t *testing.T) {
	t.Setenv("LAPCTL_TOKEN", "")
	url := startServer(t, 1)

	code, _, errOut := lapctl(t, "-server", url, "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Ein Fehler ist aufgetreten")
}

func TestDeleteUnknownRunner(t *testing.T) {
	url := startServer(t, 1, 2)

	code, _, errOut := lapctl(t, "-server", url, "-token", helperToken(t), "delete", "99")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Läufer nicht gefunden")

	code, out, _ := lapctl(t, "-server", url, "-token", helperToken(t), "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "1 ")
	assert.Contains(t, out, "2 ")
}

func TestDeleteRunner(t *testing.T) {
	url := startServer(t, 5)

	code, out, _ := lapctl(t, "-server", url, "-token", helperToken(t), "delete", "5")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Läufer erfolgreich gelöscht")
	assert.Contains(t, out, "Keine Läufer vorhanden")
}

func TestRequestTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	start := time.Now()
	code, _, errOut := lapctl(t, "-server", slow.URL, "-token", helperToken(t), "-timeout", "50ms", "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Ein Fehler ist aufgetreten")
	assert.Less(t, time.Since(start), time.Second)
}

func TestUsageErrors(t *testing.T) {
	url := startServer(t, 1)

	code, _, _ := lapctl(t, "-server", url, "-token", helperToken(t), "delete", "abc")
	assert.Equal(t, 2, code)

	code, _, _ = lapctl(t, "-server", url, "-token", helperToken(t), "frobnicate")
	assert.Equal(t, 2, code)
}
