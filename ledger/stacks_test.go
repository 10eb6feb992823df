package ledger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziflex/lecho/v3"
)

func newTestClient(url string) *StacksClient {
	return NewStacksClient(&Config{
		StacksAPIUrl:    url,
		ContractAddress: "ST000000000000000000002AMW42H",
		ContractName:    "invoices",
		SenderAddress:   "ST000000000000000000002AMW42H",
		RequestTimeout:  5,
		MaxRetries:      2,
	}, lecho.New(io.Discard))
}

func readOnlyResult(raw []byte) callReadResponse {
	return callReadResponse{Okay: true, Result: "0x" + hex.EncodeToString(raw)}
}

func TestGetInvoiceCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/contracts/call-read/ST000000000000000000002AMW42H/invoices/get-invoice-count", r.URL.Path)

		var req callReadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Empty(t, req.Arguments)

		raw := append([]byte{tagResponseOk}, EncodeUint(5)...)
		json.NewEncoder(w).Encode(readOnlyResult(raw))
	}))
	defer server.Close()

	count, err := newTestClient(server.URL).GetInvoiceCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)
}

func TestGetInvoiceIDEncodesIndexArgument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req callReadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Arguments, 1)
		assert.Equal(t, "0x"+hex.EncodeToString(EncodeUint(3)), req.Arguments[0])

		// (ok (some { invoice-id: (some "inv-3") }))
		id := EncodeStringASCII("inv-3")
		tuple := []byte{tagTuple, 0, 0, 0, 1, 10}
		tuple = append(tuple, "invoice-id"...)
		tuple = append(tuple, tagOptionalSome)
		tuple = append(tuple, id...)
		raw := append([]byte{tagResponseOk, tagOptionalSome}, tuple...)
		json.NewEncoder(w).Encode(readOnlyResult(raw))
	}))
	defer server.Close()

	id, err := newTestClient(server.URL).GetInvoiceID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "inv-3", id)
}

func TestGetTipHeight(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/info", r.URL.Path)
		w.Write([]byte(`{"stacks_tip_height": 163000}`))
	}))
	defer server.Close()

	height, err := newTestClient(server.URL).GetTipHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(163000), height)
}

func TestRequestRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"stacks_tip_height": 163000}`))
	}))
	defer server.Close()

	height, err := newTestClient(server.URL).GetTipHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(163000), height)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRequestDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetTipHeight(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLedgerUnavailable))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCallReadRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(callReadResponse{Okay: false, Cause: "ArityMismatch"})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetInvoiceCount(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLedgerUnavailable))
	assert.Contains(t, err.Error(), "ArityMismatch")
}

func TestSubmitPayment(t *testing.T) {
	proof := []byte{0x80, 0x01, 0x02}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/transactions", r.URL.Path)
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, proof, body)
		json.NewEncoder(w).Encode("deadbeef")
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).SubmitPayment(context.Background(), &SubmitPaymentRequest{
		InvoiceID: "inv-a",
		Amount:    1000,
		Proof:     proof,
	})
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", resp.TransactionID)
}
