package explorer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"walletclear/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wallet = "0x1111111111111111111111111111111111111111"

func polygon(t *testing.T) domain.Chain {
	t.Helper()
	chain, ok := domain.LookupChain("polygon")
	require.True(t, ok)
	return chain
}

func TestFetchTransactionsMergesFeeds(t *testing.T) {
	var (
		mu      sync.Mutex
		queries []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()

		query := r.URL.Query()
		assert.Equal(t, "137", query.Get("chainid"))
		assert.Equal(t, "2", query.Get("page"))
		assert.Equal(t, "10", query.Get("offset"))
		assert.Equal(t, "desc", query.Get("sort"))
		assert.Equal(t, "secret", query.Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		switch query.Get("action") {
		case "txlist":
			_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":[
				{"hash":"0xa","timeStamp":"100","from":"0x2","to":"0x1","value":"1","isError":"0","input":"0x"},
				{"hash":"0xb","timeStamp":"300","from":"0x1","to":"0x3","value":"2","isError":"0","input":"0x"}
			]}`))
		case "tokentx":
			_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":[
				{"hash":"0xc","timeStamp":"200","from":"0x4","to":"0x1","value":"5","tokenSymbol":"USDC","tokenDecimal":"6"}
			]}`))
		case "tokennfttx":
			_, _ = w.Write([]byte(`{"status":"0","message":"No transactions found","result":[]}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "secret", PageSize: 10})
	require.NoError(t, err)

	txs, err := client.FetchTransactions(context.Background(), wallet, polygon(t), 2)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, "0xb", txs[0].Hash)
	assert.Equal(t, domain.SourceNative, txs[0].Source)
	assert.Equal(t, "0xc", txs[1].Hash)
	assert.Equal(t, domain.SourceFungible, txs[1].Source)
	assert.Equal(t, "6", txs[1].TokenDecimal)
	assert.Equal(t, "0xa", txs[2].Hash)
	assert.Len(t, queries, 3)
}

func TestFetchTransactionsDegradesFailingFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "txlist":
			_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":[{"hash":"0xa","timeStamp":"1"}]}`))
		case "tokentx":
			_, _ = w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	txs, err := client.FetchTransactions(context.Background(), wallet, polygon(t), 1)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "0xa", txs[0].Hash)
}

func TestFetchTransactionsFailsWhenAllFeedsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.FetchTransactions(context.Background(), wallet, polygon(t), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explorer status 503")
}

func TestDecodeResult(t *testing.T) {
	txs, err := decodeResult(apiResponse{Status: "0", Message: "No transactions found", Result: []byte(`"No transactions found"`)})
	require.NoError(t, err)
	assert.Empty(t, txs)

	_, err = decodeResult(apiResponse{Status: "0", Message: "NOTOK", Result: []byte(`"Invalid API Key"`)})
	assert.EqualError(t, err, "explorer error: NOTOK: Invalid API Key")

	_, err = decodeResult(apiResponse{Status: "1", Result: []byte(`"oops"`)})
	assert.Error(t, err)
}
