package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"restaurant-service/internal/auth"
	"restaurant-service/internal/gateway"
	"restaurant-service/internal/models"
	"restaurant-service/internal/service"
	"restaurant-service/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverKey = "SB-Mid-server-test"

type testServer struct {
	router *gin.Engine
	repo   *testutil.MemoryRepo
	gw     *testutil.FakeGateway
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := testutil.NewMemoryRepo()
	pub := testutil.NewFakePublisher()
	gw := &testutil.FakeGateway{}
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)

	svc := Services{
		Sessions: service.NewSessionService(repo, testutil.NewFakeLocker(), pub, time.Second),
		Orders:   service.NewOrderService(repo, pub),
		Payments: service.NewPaymentService(repo, gw, pub, service.PaymentConfig{
			ServerKey:       serverKey,
			VerifySignature: true,
			PublicBaseURL:   "https://resto.example",
			PendingTimeout:  time.Hour,
		}),
		Menu:      service.NewMenuService(repo, &testutil.FakeUploader{}),
		Tables:    service.NewTableService(repo, "https://resto.example"),
		Staff:     service.NewStaffService(repo, tokens),
		Dashboard: service.NewDashboardService(repo, &testutil.FakeFeed{}, 20, time.Local),
	}

	router := gin.New()
	NewHandler(svc, tokens, cfg).SetupRoutes(router)
	return &testServer{router: router, repo: repo, gw: gw}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := decode(t, w)
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	return d
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, Config{})

	w := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestPageGate(t *testing.T) {
	s := newTestServer(t, Config{})

	for _, path := range []string{"/session", "/session?table_id=abc", "/menu", "/invoice?order_id=1"} {
		w := s.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/", w.Header().Get("Location"), path)
	}

	for _, path := range []string{"/api/session", "/api/menu/", "/api/invoice"} {
		w := s.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}

	w := s.do(t, http.MethodGet, "/session?table_id="+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	table := testutil.SeedTable(t, s.repo, "T1", models.TableStatusAvailable)
	w = s.do(t, http.MethodGet, "/session?table_id="+table.ID, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyGate(t *testing.T) {
	s := newTestServer(t, Config{RequireAPIKey: true, APIKey: "secret"})

	w := s.do(t, http.MethodGet, "/api/restaurant/menu", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/restaurant/menu", nil, map[string]string{"x-api-key": "wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/restaurant/menu", nil, map[string]string{"x-api-key": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)

	// the gateway cannot send the key
	w = s.do(t, http.MethodPost, "/api/notify", gateway.Notification{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIKeyGateWithoutKey(t *testing.T) {
	s := newTestServer(t, Config{RequireAPIKey: true})

	w := s.do(t, http.MethodGet, "/api/restaurant/menu", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/restaurant/menu", nil, map[string]string{"x-api-key": ""})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCustomerFlow(t *testing.T) {
	s := newTestServer(t, Config{})
	table := testutil.SeedTable(t, s.repo, "T1", models.TableStatusAvailable)
	food := testutil.SeedCategory(t, s.repo, "Food", true)
	nasi := testutil.SeedMenuItem(t, s.repo, food, "Nasi Goreng", 15000, true)

	w := s.do(t, http.MethodPost, "/api/restaurant/session", gin.H{"name_customer": "Alice", "table_id": table.ID}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sessionID := data(t, w)["session_id"].(string)

	w = s.do(t, http.MethodPost, "/api/restaurant/session", gin.H{"name_customer": "Bob", "table_id": table.ID}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])

	w = s.do(t, http.MethodGet, "/menu?session_id="+sessionID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data(t, w)["items"], 1)

	w = s.do(t, http.MethodPost, "/api/restaurant/orders", gin.H{
		"session_id": sessionID,
		"items":      []gin.H{{"menu_id": nasi.ID, "quantity": 3, "price": 1}},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := data(t, w)
	orderID := order["order_id"].(string)
	assert.Equal(t, float64(45000), order["subtotal"])

	w = s.do(t, http.MethodPost, "/api/restaurant/payment", gin.H{"order_id": orderID, "amount": 45000}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode(t, w)["token"])

	w = s.do(t, http.MethodPost, "/api/restaurant/payment", gin.H{"order_id": orderID}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	n := gateway.Notification{
		OrderID:           orderID,
		TransactionID:     "txn-1",
		TransactionStatus: gateway.StatusSettlement,
		PaymentType:       "qris",
		StatusCode:        "200",
		GrossAmount:       "45000.00",
	}
	n.SignatureKey = gateway.Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)

	w = s.do(t, http.MethodPost, "/api/notify", n, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.PaymentStatusPaid, decode(t, w)["status"])

	w = s.do(t, http.MethodPost, "/api/notify", n, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["duplicate"])

	n.SignatureKey = "forged"
	w = s.do(t, http.MethodPost, "/api/notify", n, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/invoice/success?order_id="+orderID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	invoice := data(t, w)
	assert.Equal(t, "Alice", invoice["customer_name"])
	assert.Equal(t, float64(45000), invoice["total_amount"])

	w = s.do(t, http.MethodGet, "/api/restaurant/table?status=Available", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)
}

func TestDashboardAuth(t *testing.T) {
	s := newTestServer(t, Config{})
	hash, err := auth.HashPassword("rahasia")
	require.NoError(t, err)
	testutil.SeedStaff(t, s.repo, "Budi", "budi@resto.id", hash, true)

	w := s.do(t, http.MethodGet, "/api/dashboard/summary", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/dashboard/summary", nil, map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/dashboard/login", gin.H{"email": "budi@resto.id", "password": "salah"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/dashboard/login", gin.H{"email": "budi@resto.id", "password": "rahasia"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == accessTokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	w = s.do(t, http.MethodGet, "/api/dashboard/summary?date=2024-03-10", nil, map[string]string{"Cookie": cookie.Name + "=" + cookie.Value})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "All", data(t, w)["paymentsMethod"])

	bearer := map[string]string{"Authorization": "Bearer " + decode(t, s.do(t, http.MethodPost, "/api/dashboard/login",
		gin.H{"email": "budi@resto.id", "password": "rahasia"}, nil))["token"].(string)}

	w = s.do(t, http.MethodGet, "/api/dashboard/orders/notifications?range=fortnight", nil, bearer)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/dashboard/orders/notifications/live", nil, bearer)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDashboardTables(t *testing.T) {
	s := newTestServer(t, Config{})
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	token, err := tokens.Issue(uuid.NewString(), "Budi", "budi@resto.id", "admin")
	require.NoError(t, err)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	w := s.do(t, http.MethodPost, "/api/dashboard/tables", gin.H{"table_number": "T7"}, bearer)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tableID := data(t, w)["table_id"].(string)

	w = s.do(t, http.MethodPatch, "/api/dashboard/tables/"+tableID+"/status", gin.H{"status": models.TableStatusCleaning}, bearer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.TableStatusCleaning, data(t, w)["status"])

	w = s.do(t, http.MethodPatch, "/api/dashboard/tables/"+tableID+"/status", gin.H{}, bearer)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/dashboard/tables/"+tableID+"/qr?size=128", nil, bearer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = s.do(t, http.MethodGet, "/api/dashboard/tables/"+tableID+"/qr?size=1", nil, bearer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
