package interfaces

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"paystream/internal/auth"
	ledgermem "paystream/internal/ledger/memory"
	"paystream/internal/stream/application"
	streammem "paystream/internal/stream/infrastructure/memory"
)

const (
	testSecret  = "test-secret"
	adminAcct   = "GADMIN"
	senderAcct  = "GSENDER"
	recipAcct   = "GRECIPIENT"
	custodyAcct = "GCUSTODY"
	nativeToken = "native"
)

type fixedClock struct {
	mu  sync.Mutex
	now int64
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Unix(c.now, 0)
}

func (c *fixedClock) Advance(seconds int64) {
	c.mu.Lock()
	c.now += seconds
	c.mu.Unlock()
}

type apiFixture struct {
	handler http.Handler
	ledger  *ledgermem.Ledger
	clock   *fixedClock
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	clock := &fixedClock{now: 1_700_000_000}
	ledger := ledgermem.NewLedger()
	ledger.Mint(senderAcct, nativeToken, 100_000_000)

	service, err := application.NewService(
		streammem.NewRepository(),
		streammem.NewSettingsStore(),
		ledger,
		streammem.NewFeeRegistry(),
		NewLoggingPublisher(nil),
		auth.ContextAuthorizer{},
		clock,
		nil,
		custodyAcct,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	handler, err := NewHandler(service, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	mw := auth.NewMiddleware([]byte(testSecret), auth.NewDefaultPolicy([]string{"/healthz"}, []string{"/metrics"}))
	return &apiFixture{handler: mw.Wrap(handler), ledger: ledger, clock: clock}
}

func (f *apiFixture) do(t *testing.T, method, path, subject, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, subject, role))
	}
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)
	return resp
}

func (f *apiFixture) createStream(t *testing.T, deposit int64) uint64 {
	t.Helper()
	start := f.clock.Now().Unix()
	resp := f.do(t, http.MethodPost, "/api/v1/streams", senderAcct, "operator", map[string]any{
		"recipient":  recipAcct,
		"amount":     deposit,
		"asset":      nativeToken,
		"start_time": start,
		"cliff_time": start,
		"stop_time":  start + 1000,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create stream: status %d body %s", resp.Code, resp.Body.String())
	}
	var out struct {
		StreamID uint64 `json:"stream_id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return out.StreamID
}

func signToken(t *testing.T, subject, role string) string {
	t.Helper()
	claims := auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestHandler_CreateAndGet(t *testing.T) {
	f := newAPIFixture(t)
	id := f.createStream(t, 10_000_000)
	if id != 1 {
		t.Fatalf("first stream id: %d", id)
	}

	resp := f.do(t, http.MethodGet, "/api/v1/streams/1", recipAcct, "viewer", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("get stream: status %d", resp.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["sender"] != senderAcct || out["recipient"] != recipAcct {
		t.Fatalf("unexpected parties: %+v", out)
	}
	if int64(out["deposit"].(float64)) != 10_000_000 {
		t.Fatalf("deposit: %v", out["deposit"])
	}
	if balance := f.ledger.Balance(custodyAcct, nativeToken); balance != 10_000_000 {
		t.Fatalf("custody balance: %d", balance)
	}
}

func TestHandler_CreateRequiresOperator(t *testing.T) {
	f := newAPIFixture(t)
	start := f.clock.Now().Unix()
	resp := f.do(t, http.MethodPost, "/api/v1/streams", senderAcct, "viewer", map[string]any{
		"recipient":  recipAcct,
		"amount":     int64(1000),
		"asset":      nativeToken,
		"start_time": start,
		"cliff_time": start,
		"stop_time":  start + 10,
	})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestHandler_CreateSubjectMustBeSender(t *testing.T) {
	f := newAPIFixture(t)
	start := f.clock.Now().Unix()
	// Token subject is the recipient, so the sender identity is not proved.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/streams", bytes.NewReader(mustJSON(t, map[string]any{
		"recipient":  recipAcct,
		"amount":     int64(1000),
		"asset":      nativeToken,
		"start_time": start,
		"cliff_time": start,
		"stop_time":  start + 10,
	})))
	req.Header.Set("Authorization", "Bearer "+signToken(t, recipAcct, "operator"))
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest && resp.Code != http.StatusForbidden {
		t.Fatalf("expected rejection, got %d", resp.Code)
	}
}

func TestHandler_WithdrawHalfway(t *testing.T) {
	f := newAPIFixture(t)
	f.createStream(t, 10_000_000)
	f.clock.Advance(500)

	resp := f.do(t, http.MethodPost, "/api/v1/streams/1/withdraw", recipAcct, "operator", map[string]any{
		"recipient": recipAcct,
		"amount":    int64(5_000_000),
	})
	if resp.Code != http.StatusNoContent {
		t.Fatalf("withdraw: status %d body %s", resp.Code, resp.Body.String())
	}
	if balance := f.ledger.Balance(recipAcct, nativeToken); balance != 5_000_000 {
		t.Fatalf("recipient balance: %d", balance)
	}

	resp = f.do(t, http.MethodPost, "/api/v1/streams/1/withdraw", recipAcct, "operator", map[string]any{
		"recipient": recipAcct,
		"amount":    int64(5_000_000),
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("over-withdraw: expected 409, got %d", resp.Code)
	}
}

func TestHandler_CancelSettles(t *testing.T) {
	f := newAPIFixture(t)
	f.createStream(t, 10_000_000)
	f.clock.Advance(500)

	resp := f.do(t, http.MethodPost, "/api/v1/streams/1/cancel", senderAcct, "operator", nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("cancel: status %d body %s", resp.Code, resp.Body.String())
	}
	if balance := f.ledger.Balance(recipAcct, nativeToken); balance != 5_000_000 {
		t.Fatalf("recipient balance: %d", balance)
	}
	if balance := f.ledger.Balance(senderAcct, nativeToken); balance != 95_000_000 {
		t.Fatalf("sender balance: %d", balance)
	}

	resp = f.do(t, http.MethodGet, "/api/v1/streams/1/status", recipAcct, "viewer", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status: %d", resp.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["status"] != "cancelled" {
		t.Fatalf("status: %v", out["status"])
	}

	resp = f.do(t, http.MethodPost, "/api/v1/streams/1/cancel", senderAcct, "operator", nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("repeat cancel: expected 409, got %d", resp.Code)
	}
}

func TestHandler_StreamedQuery(t *testing.T) {
	f := newAPIFixture(t)
	f.createStream(t, 10_000_000)
	f.clock.Advance(250)

	resp := f.do(t, http.MethodGet, "/api/v1/streams/1/streamed", recipAcct, "viewer", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("streamed: status %d", resp.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if int64(out["streamed"].(float64)) != 2_500_000 {
		t.Fatalf("streamed: %v", out["streamed"])
	}
}

func TestHandler_UnknownStream(t *testing.T) {
	f := newAPIFixture(t)
	resp := f.do(t, http.MethodGet, "/api/v1/streams/99", recipAcct, "viewer", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	resp = f.do(t, http.MethodGet, "/api/v1/streams/99/status", recipAcct, "viewer", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestHandler_InitializeAndFees(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/v1/initialize", adminAcct, "admin", map[string]any{
		"admin":    adminAcct,
		"base_fee": int64(0),
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("initialize: status %d body %s", resp.Code, resp.Body.String())
	}

	resp = f.do(t, http.MethodPost, "/api/v1/initialize", adminAcct, "admin", map[string]any{
		"admin": adminAcct,
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("repeat initialize: expected 409, got %d", resp.Code)
	}

	resp = f.do(t, http.MethodPut, "/api/v1/fees/"+nativeToken, adminAcct, "admin", map[string]any{
		"fee": int64(10),
	})
	if resp.Code != http.StatusNoContent {
		t.Fatalf("set fee: status %d body %s", resp.Code, resp.Body.String())
	}

	resp = f.do(t, http.MethodGet, "/api/v1/fees/"+nativeToken, recipAcct, "viewer", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("get fee: status %d", resp.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if int64(out["fee"].(float64)) != 10 {
		t.Fatalf("fee: %v", out["fee"])
	}
}

func TestHandler_StatementExports(t *testing.T) {
	f := newAPIFixture(t)
	f.createStream(t, 10_000_000)
	f.clock.Advance(500)

	resp := f.do(t, http.MethodGet, "/api/v1/streams/1/statement.pdf", adminAcct, "admin", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("pdf export: status %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("pdf content type: %s", ct)
	}
	if resp.Body.Len() == 0 {
		t.Fatalf("empty pdf body")
	}

	resp = f.do(t, http.MethodGet, "/api/v1/streams/1/statement.xlsx", adminAcct, "admin", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("xlsx export: status %d", resp.Code)
	}
	if resp.Body.Len() == 0 {
		t.Fatalf("empty xlsx body")
	}
}

func mustJSON(t *testing.T, body any) []byte {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}
