package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyState(t *testing.T) {
	cases := map[int]Status{
		100: StatusPaid,
		95:  StatusAuthorized,
		20:  StatusPending,
		50:  StatusPending,
		90:  StatusPending,
		-63: StatusCancelled,
		-90: StatusCancelled,
		-80: StatusCancelled,
		80:  StatusOther,
		0:   StatusOther,
	}
	for code, want := range cases {
		assert.Equal(t, want, ClassifyState(code), "state %d", code)
	}
}

func TestIsBlockingTerminalState(t *testing.T) {
	assert.True(t, IsBlockingTerminalState("cancelled"))
	assert.True(t, IsBlockingTerminalState("expired"))
	assert.True(t, IsBlockingTerminalState("error"))
	assert.False(t, IsBlockingTerminalState("init"))
	assert.False(t, IsBlockingTerminalState("approved"))
	assert.False(t, IsBlockingTerminalState(""))
}

func TestGetTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/transactions/EX-1234", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"transactionId":"EX-1234","state":100,"stateName":"PAID","extra3":"42"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "SL-1", 5*time.Second)
	tx, err := c.GetTransaction(context.Background(), "EX-1234")
	require.NoError(t, err)
	assert.Equal(t, "EX-1234", tx.ID)
	assert.Equal(t, "42", tx.Extra3)
	assert.True(t, tx.IsPaid())
	assert.False(t, tx.IsPending())
}

func TestGetTransaction_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"transaction not found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "SL-1", 5*time.Second)
	_, err := c.GetTransaction(context.Background(), "EX-404")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "transaction not found", apiErr.Message)
}

func TestGetTerminalStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/terminals/status", r.URL.Path)
		assert.Equal(t, "th-1", r.URL.Query().Get("hash"))
		_, _ = w.Write([]byte(`{"hash":"th-1","transactionState":"expired"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "SL-1", 5*time.Second)
	status, err := c.GetTerminalStatus(context.Background(), "th-1")
	require.NoError(t, err)
	assert.Equal(t, TerminalExpired, status.State)
}

func TestCreateTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateTransactionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "SL-1", req.ServiceID)
		assert.Equal(t, int64(2500), req.Amount)
		assert.Equal(t, "7", req.Extra3)

		_, _ = w.Write([]byte(`{"transactionId":"EX-9","paymentUrl":"https://pay.example/EX-9"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "SL-1", 5*time.Second)
	resp, err := c.CreateTransaction(context.Background(), &CreateTransactionRequest{Amount: 2500, Currency: "EUR", Extra3: "7"})
	require.NoError(t, err)
	assert.Equal(t, "EX-9", resp.TransactionID)
	assert.Equal(t, "https://pay.example/EX-9", resp.PaymentURL)
}

func TestCreateTransaction_MissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transactionId":"EX-9"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "SL-1", 5*time.Second)
	_, err := c.CreateTransaction(context.Background(), &CreateTransactionRequest{Amount: 1})
	assert.Error(t, err)
}
