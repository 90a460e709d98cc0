package euler

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superform-xyz/supervaults/internal/chains"
	"github.com/superform-xyz/supervaults/internal/ethrpc"
)

const (
	vaultAddr      = "0xcccccccccccccccccccccccccccccccccccccccc"
	collateralAddr = "0x0000000000000000000000000000000000000abc"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func word(n int64) []byte {
	w := make([]byte, 32)
	big.NewInt(n).FillBytes(w)
	return w
}

func addressWord(addr string) []byte {
	b, _ := hex.DecodeString(strings.TrimPrefix(addr, "0x"))
	w := make([]byte, 32)
	copy(w[32-len(b):], b)
	return w
}

// abiString encodes a string tail: length word plus right-padded bytes.
func abiString(s string) []byte {
	out := word(int64(len(s)))
	padded := make([]byte, (len(s)+31)/32*32)
	copy(padded, s)
	return append(out, padded...)
}

// ltvReturn encodes the getRecognizedCollateralsLTVInfo return for one
// collateral entry.
func ltvReturn(borrow, liq, initial, target, ramp int64) []byte {
	out := append(word(32), word(1)...)
	out = append(out, addressWord(collateralAddr)...)
	for _, v := range []int64{borrow, liq, initial, target, ramp} {
		out = append(out, word(v)...)
	}
	return out
}

// vaultInfoReturn encodes a getVaultInfoFull return with the fields the
// client decodes. Strings are placed after the 13-word struct head.
func vaultInfoReturn(name, symbol, assetName, assetSymbol string, decimals, shares, cash, borrowed, assets int64) []byte {
	head := make([][]byte, 13)
	head[0] = word(1700000000)
	head[1] = addressWord(vaultAddr)
	head[4] = word(decimals)
	head[5] = addressWord(collateralAddr)
	head[8] = word(decimals)
	head[9] = word(shares)
	head[10] = word(cash)
	head[11] = word(borrowed)
	head[12] = word(assets)

	tail := []byte{}
	offset := int64(13 * 32)
	for _, f := range []struct {
		slot int
		val  string
	}{{2, name}, {3, symbol}, {6, assetName}, {7, assetSymbol}} {
		head[f.slot] = word(offset)
		enc := abiString(f.val)
		tail = append(tail, enc...)
		offset += int64(len(enc))
	}

	body := []byte{}
	for _, w := range head {
		body = append(body, w...)
	}
	body = append(body, tail...)

	return append(word(32), body...)
}

// lensServer routes eth_calls by selector: lens calls get the configured
// payloads, name() calls get tokenName.
func lensServer(t *testing.T, ltv, info []byte, tokenName string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64         `json:"id"`
			Params []interface{} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		call := req.Params[0].(map[string]interface{})
		calldata := call["data"].(string)

		var result []byte
		switch {
		case strings.HasPrefix(calldata, "0x"+hex.EncodeToString(selCollateralsLTVInfo)):
			result = ltv
		case strings.HasPrefix(calldata, "0x"+hex.EncodeToString(selVaultInfoFull)):
			result = info
		case strings.HasPrefix(calldata, "0x"+hex.EncodeToString(selName)):
			result = append(word(32), abiString(tokenName)...)
		}

		if result == nil {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x"}`))
			return
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  "0x" + hex.EncodeToString(result),
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	chain := chains.Chain{ID: 1, Name: "Ethereum", RPCURL: server.URL}
	rpc := ethrpc.New(ethrpc.Config{URL: server.URL}, testLogger())
	client, err := New(chain, rpc, testLogger())
	require.NoError(t, err)
	return client
}

func TestNewRejectsUnsupportedChain(t *testing.T) {
	rpc := ethrpc.New(ethrpc.Config{URL: "http://localhost"}, testLogger())
	_, err := New(chains.Chain{ID: 137, Name: "Polygon"}, rpc, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no lens")
}

func TestCollateralLTVs(t *testing.T) {
	server := lensServer(t, ltvReturn(8000, 8500, 8200, 0, 0), nil, "Mock Token")
	client := newTestClient(t, server)

	collaterals, err := client.CollateralLTVs(context.Background(), vaultAddr)
	require.NoError(t, err)
	require.Len(t, collaterals, 1)

	c := collaterals[0]
	assert.Equal(t, collateralAddr, c.Address)
	assert.Equal(t, 80.0, c.BorrowLTV)
	assert.Equal(t, 85.0, c.LiquidationLTV)
	assert.Equal(t, 82.0, c.InitialLiquidationLTV)
	assert.Equal(t, uint64(0), c.RampTargetTimestamp)
	assert.Equal(t, uint64(0), c.RampDuration)

	// Address is not in the static table; name comes from name().
	assert.Equal(t, "Mock Token", c.Name)
}

func TestCollateralNameFallsBackToAddress(t *testing.T) {
	// name() reverts, so the raw address is displayed.
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64         `json:"id"`
			Params []interface{} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		call := req.Params[0].(map[string]interface{})
		calldata := call["data"].(string)

		if strings.HasPrefix(calldata, "0x"+hex.EncodeToString(selName)) {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"execution reverted"}}`))
			return
		}
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  "0x" + hex.EncodeToString(ltvReturn(7500, 8000, 7800, 0, 0)),
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(failing.Close)

	client := newTestClient(t, failing)

	collaterals, err := client.CollateralLTVs(context.Background(), vaultAddr)
	require.NoError(t, err)
	require.Len(t, collaterals, 1)
	assert.Equal(t, collateralAddr, collaterals[0].Name)
}

func TestCollateralNameFromStaticTable(t *testing.T) {
	// WETH mainnet resolves without a name() round trip.
	weth := "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	data := append(word(32), word(1)...)
	data = append(data, addressWord(weth)...)
	for _, v := range []int64{8000, 8500, 8200, 0, 0} {
		data = append(data, word(v)...)
	}

	var nameCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64         `json:"id"`
			Params []interface{} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		call := req.Params[0].(map[string]interface{})
		if strings.HasPrefix(call["data"].(string), "0x"+hex.EncodeToString(selName)) {
			nameCalls++
		}
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  "0x" + hex.EncodeToString(data),
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server)

	collaterals, err := client.CollateralLTVs(context.Background(), vaultAddr)
	require.NoError(t, err)
	require.Len(t, collaterals, 1)
	assert.Equal(t, "Wrapped Ether", collaterals[0].Name)
	assert.Zero(t, nameCalls)
}

func TestVaultInfo(t *testing.T) {
	info := vaultInfoReturn("Euler USDC Vault", "eUSDC", "USD Coin", "USDC", 6, 5000000, 1000000, 2000000, 3000000)
	server := lensServer(t, nil, info, "")
	client := newTestClient(t, server)

	got, err := client.VaultInfo(context.Background(), vaultAddr)
	require.NoError(t, err)
	assert.Equal(t, "Euler USDC Vault", got.Name)
	assert.Equal(t, "eUSDC", got.Symbol)
	assert.Equal(t, "USD Coin", got.AssetName)
	assert.Equal(t, "USDC", got.AssetSymbol)
	assert.InDelta(t, 5.0, got.TotalShares, 1e-9)
	assert.InDelta(t, 1.0, got.TotalCash, 1e-9)
	assert.InDelta(t, 2.0, got.TotalBorrowed, 1e-9)
	assert.InDelta(t, 3.0, got.TotalAssets, 1e-9)
}

func TestFetchVaultDetailSnapshotBestEffort(t *testing.T) {
	// Info call returns empty data; the detail still carries the LTVs.
	server := lensServer(t, ltvReturn(8000, 8500, 8200, 0, 0), nil, "Mock Token")
	client := newTestClient(t, server)

	detail, err := client.FetchVaultDetail(context.Background(), vaultAddr)
	require.NoError(t, err)
	assert.Equal(t, "euler", detail.Protocol)
	require.NotNil(t, detail.Euler)
	assert.Nil(t, detail.Euler.Info)
	require.Len(t, detail.Euler.Collaterals, 1)
	assert.Equal(t, 80.0, detail.Euler.Collaterals[0].BorrowLTV)
}

func TestLensDispatch(t *testing.T) {
	server := lensServer(t, ltvReturn(8000, 8500, 8200, 0, 0), nil, "Mock Token")

	registry := chains.New(chains.Overrides{EthereumRPCURL: server.URL, BaseRPCURL: server.URL})
	rpcs := map[int]*ethrpc.Client{
		1: ethrpc.New(ethrpc.Config{URL: server.URL}, testLogger()),
	}
	lens := NewLens(registry, rpcs, testLogger())

	detail, err := lens.FetchVaultDetail(context.Background(), 1, vaultAddr)
	require.NoError(t, err)
	assert.Equal(t, "euler", detail.Protocol)

	_, err = lens.FetchVaultDetail(context.Background(), 137, vaultAddr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no lens")
}
