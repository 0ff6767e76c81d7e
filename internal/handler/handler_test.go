package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payapi/internal/keylock"
	"payapi/internal/mw"
	"payapi/internal/service"
	"payapi/internal/storage/memory"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T, orderCfg service.OrderConfig) http.Handler {
	t.Helper()

	log := zap.NewNop()
	locks := keylock.New(time.Second)

	authSvc := service.NewAuthService(memory.NewUserStore(), log)
	walletSvc := service.NewWalletService(memory.NewWalletStore(), locks, log)
	orderSvc := service.NewOrderService(memory.NewOrderStore(), locks, orderCfg, log)

	r := chi.NewRouter()
	r.Post("/api/auth/register", RegisterHandler(authSvc))
	r.Post("/api/auth/login", LoginHandler(authSvc, testSecret))
	r.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(testSecret))
		r.Post("/api/orders", CreateOrderHandler(orderSvc))
		r.Get("/api/orders", ListOrdersHandler(orderSvc))
		r.Get("/api/wallet/{customerID}", GetWalletHandler(walletSvc))
		r.Post("/api/wallet/{customerID}/credit", CreditWalletHandler(walletSvc))
		r.Post("/api/wallet/{customerID}/debit", DebitWalletHandler(walletSvc))
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, h http.Handler, userID string) string {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"user_id":   userID,
		"email":     userID + "@example.com",
		"full_name": "Test Customer",
		"password":  "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"user_id":  userID,
		"password": "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d: %s", rec.Code, rec.Body.String())
	}

	var tok tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	return tok.AccessToken
}

func TestWalletFlow(t *testing.T) {
	h := newTestRouter(t, service.OrderConfig{})
	token := registerAndLogin(t, h, "CUST-001")

	rec := doJSON(t, h, http.MethodPost, "/api/wallet/CUST-001/credit", token, map[string]any{"amount": "100"})
	if rec.Code != http.StatusOK {
		t.Fatalf("credit: status %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/api/wallet/CUST-001/debit", token, map[string]any{"amount": "150"})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("overdraft debit: status %d, want 402", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/wallet/CUST-001", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get wallet: status %d", rec.Code)
	}
	var resp walletResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode wallet: %v", err)
	}
	if resp.Balance.String() != "100" {
		t.Fatalf("balance = %s, want 100", resp.Balance)
	}
}

func TestWalletRequiresAuth(t *testing.T) {
	h := newTestRouter(t, service.OrderConfig{})

	rec := doJSON(t, h, http.MethodGet, "/api/wallet/CUST-001", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestCreateOrderEndpoint(t *testing.T) {
	h := newTestRouter(t, service.OrderConfig{StrictIdempotency: true})
	token := registerAndLogin(t, h, "CUST-001")

	rec := doJSON(t, h, http.MethodPost, "/api/orders", token, map[string]any{
		"amount":          "499.99",
		"currency":        "INR",
		"idempotency_key": "order-abc-123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: status %d: %s", rec.Code, rec.Body.String())
	}
	var first orderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if first.Status != "created" {
		t.Fatalf("status = %q, want created", first.Status)
	}

	// Same idempotency key resolves to the same order.
	rec = doJSON(t, h, http.MethodPost, "/api/orders", token, map[string]any{
		"amount":          "499.99",
		"currency":        "INR",
		"idempotency_key": "order-abc-123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("repeat create: status %d", rec.Code)
	}
	var second orderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if second.OrderID != first.OrderID {
		t.Fatalf("repeat request returned %s, want %s", second.OrderID, first.OrderID)
	}
}

func TestCreateOrderValidationStatus(t *testing.T) {
	h := newTestRouter(t, service.OrderConfig{})
	token := registerAndLogin(t, h, "CUST-001")

	rec := doJSON(t, h, http.MethodPost, "/api/orders", token, map[string]any{
		"amount":   "-5",
		"currency": "INR",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/orders", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("rejected order left state behind: status %d, want 204", rec.Code)
	}
}
