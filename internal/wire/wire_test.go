package wire

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"myvillage-api/internal/data/repository"
	"myvillage-api/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, botSecret string) (*App, string) {
	t.Helper()
	dir := t.TempDir()
	config := &utils.Config{
		App:      utils.AppConfig{Name: "myvillage-test", ClientURLs: []string{"http://localhost:3000"}},
		JWT:      utils.JWTConfig{Secret: "wire-test"},
		Telegram: utils.TelegramConfig{BotUsername: "village_bot", BotSecret: botSecret},
		Upload:   utils.UploadConfig{Dir: dir},
	}
	logger := zap.NewNop()
	app := Wiring(repository.NewRepository(nil, logger), Infra{UploadDir: dir}, config, logger)
	return app, dir
}

func TestRouterWiring(t *testing.T) {
	app, dir := newTestApp(t, "bot-secret")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/uploads/a.txt", http.StatusOK},
		{http.MethodGet, "/api/users/me", http.StatusUnauthorized},
		{http.MethodGet, "/api/listings/my", http.StatusUnauthorized},
		{http.MethodPost, "/api/listings", http.StatusUnauthorized},
		{http.MethodPost, "/api/marketplace/abc/reviews", http.StatusUnauthorized},
		{http.MethodPut, "/api/listings/reviews/abc", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/stats", http.StatusUnauthorized},
		{http.MethodPost, "/api/categories", http.StatusUnauthorized},
		{http.MethodPost, "/api/uploads/images", http.StatusUnauthorized},
		{http.MethodGet, "/api/messages/conversations", http.StatusUnauthorized},
		{http.MethodPost, "/api/auth/telegram/bot/confirm", http.StatusUnauthorized},
		{http.MethodGet, "/api/nope", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	app, _ := newTestApp(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/listings", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
