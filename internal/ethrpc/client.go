// Package ethrpc provides a minimal Ethereum JSON-RPC client for read-only
// contract calls, plus the ABI encoding and decoding helpers shared by the
// on-chain clients. It speaks eth_call only; nothing here signs or sends
// transactions.
package ethrpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ErrEmptyResult means the node answered with no return data. For the
// contracts queried here this indicates a reverted call or a wrong target
// address.
var ErrEmptyResult = errors.New("eth_call returned no data")

// Config configures a client for one RPC endpoint.
type Config struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client // optional, built from Timeout when nil
}

// Client is a JSON-RPC client bound to a single endpoint. Safe for
// concurrent use.
type Client struct {
	url        string
	httpClient *http.Client
	requestID  atomic.Int64
	log        zerolog.Logger
}

// New creates an RPC client for one endpoint.
func New(cfg Config, log zerolog.Logger) *Client {
	httpClient := cfg.Client
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		url:        cfg.URL,
		httpClient: httpClient,
		log:        log.With().Str("client", "ethrpc").Logger(),
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int64         `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// EthCall executes a read-only contract call against the latest block and
// returns the raw ABI return data. The context bounds the whole exchange.
func (c *Client) EthCall(ctx context.Context, to string, calldata []byte) ([]byte, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  "eth_call",
		Params: []interface{}{
			map[string]string{
				"to":   to,
				"data": "0x" + hex.EncodeToString(calldata),
			},
			"latest",
		},
		ID: c.requestID.Add(1),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var hexResult string
	if err := json.Unmarshal(rpcResp.Result, &hexResult); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}

	hexResult = strings.TrimPrefix(hexResult, "0x")
	if hexResult == "" {
		return nil, fmt.Errorf("call to %s: %w", to, ErrEmptyResult)
	}

	data, err := hex.DecodeString(hexResult)
	if err != nil {
		return nil, fmt.Errorf("decode result hex: %w", err)
	}

	c.log.Debug().Str("to", to).Int("result_bytes", len(data)).Msg("eth_call")
	return data, nil
}
