package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/punchamoorthee/referralops/internal/password"
	"github.com/punchamoorthee/referralops/internal/service"
	"github.com/punchamoorthee/referralops/internal/store"
)

func setupRouter(t *testing.T) (*mux.Router, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := service.New(mem, password.Bcrypt{Cost: bcrypt.MinCost}, log)
	return NewHandler(svc, log).Routes(), mem
}

func doJSON(t *testing.T, r *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func register(t *testing.T, r *mux.Router, name, email string) string {
	t.Helper()
	w := doJSON(t, r, "POST", "/api/v1/register", map[string]string{
		"name": name, "email": email, "password": "pw",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decodeBody(t, w)["user"].(map[string]any)
	return user["referral_code"].(string)
}

func TestHealth(t *testing.T) {
	r, _ := setupRouter(t)
	w := doJSON(t, r, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterEndpoint(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(t, r, "POST", "/api/v1/register", map[string]string{
		"name": "Alice", "email": "Alice@X.com", "password": "pw1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Registered successfully", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@x.com", user["email"])
	assert.Len(t, user["referral_code"].(string), 6)
	assert.Equal(t, float64(0), user["balance"])
	assert.NotContains(t, w.Body.String(), "hash")

	// Same email, mixed case: conflict.
	w = doJSON(t, r, "POST", "/api/v1/register", map[string]string{
		"name": "Mallory", "email": " ALICE@x.com ", "password": "pw2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterEndpointBadInput(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(t, r, "POST", "/api/v1/register", map[string]string{
		"name": "", "email": "a@x.com", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest("POST", "/api/v1/register", bytes.NewBufferString("{not json"))
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusBadRequest, w2.Code)
}

func TestLoginEndpoint(t *testing.T) {
	r, _ := setupRouter(t)
	register(t, r, "Alice", "alice@x.com")

	w := doJSON(t, r, "POST", "/api/v1/login", map[string]string{
		"email": "alice@x.com", "password": "pw",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "POST", "/api/v1/login", map[string]string{
		"email": "alice@x.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReferralFlowEndToEnd(t *testing.T) {
	r, mem := setupRouter(t)
	mem.SetRewardCoins(50)

	aliceCode := register(t, r, "Alice", "alice@x.com")
	register(t, r, "Bob", "bob@x.com")

	// Bob redeems Alice's code.
	w := doJSON(t, r, "POST", "/api/v1/apply-referral", map[string]string{
		"email": "bob@x.com", "referral_code": aliceCode,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, float64(50), body["balance"])
	assert.Equal(t, true, body["has_redeemed"])
	assert.Equal(t, fmt.Sprintf("%s (alice@x.com)", aliceCode), body["redeemed_from"])

	// Second attempt: conflict.
	w = doJSON(t, r, "POST", "/api/v1/apply-referral", map[string]string{
		"email": "bob@x.com", "referral_code": aliceCode,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Profile reflects the credit and includes created_at.
	w = doJSON(t, r, "GET", "/api/v1/profile?email=bob@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decodeBody(t, w)["user"].(map[string]any)
	assert.Equal(t, float64(50), user["balance"])
	assert.Equal(t, true, user["has_redeemed"])
	assert.NotEmpty(t, user["created_at"])
}

func TestApplyReferralEndpointErrors(t *testing.T) {
	r, mem := setupRouter(t)
	mem.SetRewardCoins(50)

	aliceCode := register(t, r, "Alice", "alice@x.com")

	cases := []struct {
		name string
		req  map[string]string
		code int
	}{
		{"self referral", map[string]string{"email": "alice@x.com", "referral_code": aliceCode}, http.StatusUnprocessableEntity},
		{"unknown applicant", map[string]string{"email": "ghost@x.com", "referral_code": aliceCode}, http.StatusNotFound},
		{"invalid code", map[string]string{"email": "alice@x.com", "referral_code": "ZZZZZZ"}, http.StatusUnprocessableEntity},
		{"missing fields", map[string]string{"email": "", "referral_code": ""}, http.StatusBadRequest},
		{"bad email", map[string]string{"email": "nope", "referral_code": aliceCode}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, "POST", "/api/v1/apply-referral", tc.req)
			assert.Equal(t, tc.code, w.Code, w.Body.String())
		})
	}
}

func TestProfileEndpointErrors(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(t, r, "GET", "/api/v1/profile", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "GET", "/api/v1/profile?email=ghost@x.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorBodyNeverLeaksInternals(t *testing.T) {
	r, _ := setupRouter(t)
	register(t, r, "Alice", "alice@x.com")

	// Generic message on infra-class errors is covered in the service
	// tests; here just check the error envelope shape.
	w := doJSON(t, r, "GET", "/api/v1/profile?email=ghost@x.com", nil)
	body := decodeBody(t, w)
	assert.Equal(t, "User not found", body["error"])
	assert.Len(t, body, 1)
}
