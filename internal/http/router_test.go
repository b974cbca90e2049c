package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fuelsoyo/internal/app"
	"fuelsoyo/internal/config"
	"fuelsoyo/internal/models"
)

const seedPassword = "demo-pass"

type apiClient struct {
	t      *testing.T
	server *httptest.Server
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	cfg := config.Default()
	cfg.JWT.Secret = "router-test"
	cfg.SeedPassword = seedPassword
	require.NoError(t, cfg.Validate())

	a, err := app.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return &apiClient{t: t, server: srv}
}

func (c *apiClient) do(method, path, token string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(c.t, err)
	return resp, buf.Bytes()
}

func (c *apiClient) login(email string) string {
	c.t.Helper()
	resp, body := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": seedPassword})
	require.Equal(c.t, http.StatusOK, resp.StatusCode, string(body))
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(body, &session))
	return session.Token
}

func TestHealthAndMetrics(t *testing.T) {
	api := newAPI(t)

	resp, body := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, body = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestLoginErrors(t *testing.T) {
	api := newAPI(t)

	resp, body := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@x.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "user not found")

	resp, body = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@fuelsoyo.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "wrong password")

	resp, _ = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"unexpected": "field"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStationAccessRules(t *testing.T) {
	api := newAPI(t)
	operator := api.login("op@sonangol.com")
	driver := api.login("motorista@gmail.com")

	resp, body := api.do(http.MethodGet, "/api/stations", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stations []models.Station
	require.NoError(t, json.Unmarshal(body, &stations))
	assert.Len(t, stations, 4)

	resp, _ = api.do(http.MethodPut, "/api/stations/1/status", "", map[string]bool{"gasoline": false})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = api.do(http.MethodPut, "/api/stations/1/status", driver, map[string]bool{"gasoline": false})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = api.do(http.MethodPut, "/api/stations/2/status", operator, map[string]bool{"gasoline": true})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "operators only manage their own station")

	resp, body = api.do(http.MethodPut, "/api/stations/1/status", operator, map[string]bool{"gasoline": false})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"success":true,"notifiedCount":2}`, string(body))

	resp, _ = api.do(http.MethodDelete, "/api/stations/1", operator, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = api.do(http.MethodGet, "/api/stations/404", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = api.do(http.MethodGet, "/api/notifications", driver, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var feed []models.AppNotification
	require.NoError(t, json.Unmarshal(body, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "Gasolina: ESGOTADO 🔴", feed[0].Message)
}

func TestStockEndpoint(t *testing.T) {
	api := newAPI(t)
	admin := api.login("admin@fuelsoyo.com")

	resp, body := api.do(http.MethodPut, "/api/stations/4/stock", admin, map[string]float64{"gasolineLitres": -5, "dieselLitres": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "gasolineLitres")

	resp, body = api.do(http.MethodPut, "/api/stations/4/stock", admin, map[string]float64{"gasolineLitres": 800, "dieselLitres": 15000})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "Estoque de Gasolina baixo!")
}

func TestRequestWorkflow(t *testing.T) {
	api := newAPI(t)
	admin := api.login("admin@fuelsoyo.com")

	resp, body := api.do(http.MethodPost, "/api/station-requests", "", map[string]string{
		"stationName": "Posto Kapinda",
		"address":     "Rua K",
		"managerName": "Rosa",
		"phone":       "+244 911 111 111",
		"email":       "rosa@kapinda.ao",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var req models.StationRequest
	require.NoError(t, json.Unmarshal(body, &req))

	resp, _ = api.do(http.MethodGet, "/api/station-requests?status=pending", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = api.do(http.MethodGet, "/api/station-requests?status=pending", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pending []models.StationRequest
	require.NoError(t, json.Unmarshal(body, &pending))
	assert.Len(t, pending, 1)

	resp, body = api.do(http.MethodPost, "/api/station-requests/"+req.ID+"/approve", admin, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var station models.Station
	require.NoError(t, json.Unmarshal(body, &station))
	assert.True(t, strings.HasPrefix(station.StationCode, "POS"))

	resp, _ = api.do(http.MethodPost, "/api/station-requests/"+req.ID+"/reject", admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = api.do(http.MethodGet, "/api/admin/email-logs", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var logs []models.EmailLog
	require.NoError(t, json.Unmarshal(body, &logs))
	assert.Len(t, logs, 2)

	resp, _ = api.do(http.MethodGet, "/api/admin/reports?start=2025-01-01&end=2025-01-31", admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = api.do(http.MethodGet, "/api/admin/reports?start=2025-02-01&end=2025-01-31", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterAndProfile(t *testing.T) {
	api := newAPI(t)

	resp, body := api.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":        "Novo Operador",
		"email":       "novo@op.ao",
		"password":    "segredo",
		"role":        "operator",
		"stationCode": "TOTA004",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var session struct {
		Token string            `json:"token"`
		User  models.PublicUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &session))
	assert.Equal(t, "4", session.User.StationID)

	resp, body = api.do(http.MethodPost, "/api/me/favorites/2", session.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"favorites":["2"]}`, string(body))

	resp, body = api.do(http.MethodPut, "/api/me/preferences", session.Token, models.Preferences{Email: false, WhatsApp: false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"email":false`)

	resp, _ = api.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Dup", "email": "NOVO@op.ao", "password": "segredo", "role": "driver",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestNotificationStream(t *testing.T) {
	api := newAPI(t)
	admin := api.login("admin@fuelsoyo.com")
	driver := api.login("cliente@teste.com")

	wsURL := "ws" + strings.TrimPrefix(api.server.URL, "http") + "/api/notifications/ws?access_token=" + driver
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The subscription is registered after the upgrade completes.
	time.Sleep(50 * time.Millisecond)

	resp, _ := api.do(http.MethodPut, "/api/stations/3/status", admin, map[string]bool{"diesel": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var n models.AppNotification
	require.NoError(t, json.Unmarshal(msg, &n))
	assert.Equal(t, models.TargetAllUsers, n.Target)
	assert.Equal(t, "Gasóleo: DISPONÍVEL 🟢", n.Message)

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(api.server.URL, "http")+"/api/notifications/ws", nil)
	assert.Error(t, err, "stream requires a token")
}
