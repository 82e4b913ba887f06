package escrow

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/celebiasallll/coffychess/internal/ethutil"
	"github.com/celebiasallll/coffychess/internal/obslog"
)

// ErrRPCUnavailable marks transport-level failures; callers treat these as
// retryable, unlike an explicit on-chain denial.
var ErrRPCUnavailable = errors.New("escrow rpc unavailable")

// Client is a minimal eth JSON-RPC client over fasthttp with a rotating
// endpoint list. On transport error it fails over to the next endpoint and
// remembers the one that worked.
type Client struct {
	endpoints []string
	current   atomic.Int32
	http      *fasthttp.Client
	timeout   time.Duration
	reqID     atomic.Uint64
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func NewClient(endpoints []string, opts ...Option) (*Client, error) {
	cleaned := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		if s := strings.TrimSpace(e); s != "" {
			cleaned = append(cleaned, strings.TrimRight(s, "/"))
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.New("at least one RPC endpoint is required")
	}
	c := &Client{
		endpoints: cleaned,
		http:      &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		timeout:   10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Call issues a JSON-RPC request, rotating through endpoints on transport
// failure. A JSON-RPC error response is returned as-is and does not trigger
// failover.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.reqID.Add(1),
	})
	if err != nil {
		return nil, err
	}

	start := int(c.current.Load())
	var lastErr error
	for i := 0; i < len(c.endpoints); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx := (start + i) % len(c.endpoints)
		raw, err := c.post(c.endpoints[idx], body)
		if err != nil {
			lastErr = err
			obslog.L().Warn("escrow_rpc_failover",
				zap.String("endpoint", c.endpoints[idx]),
				zap.String("method", method),
				zap.Error(err),
			)
			continue
		}
		c.current.Store(int32(idx))
		var resp rpcResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			lastErr = err
			continue
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("rpc %s: %s (code %d)", method, resp.Error.Message, resp.Error.Code)
		}
		return resp.Result, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrRPCUnavailable, lastErr)
}

func (c *Client) post(url string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(url)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return nil, err
	}
	if sc := resp.StatusCode(); sc < 200 || sc >= 300 {
		return nil, fmt.Errorf("http status %d", sc)
	}
	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

// ethCall performs eth_call against the contract with the given calldata.
func (c *Client) ethCall(ctx context.Context, contract string, data []byte) ([]byte, error) {
	res, err := c.Call(ctx, "eth_call",
		map[string]string{"to": contract, "data": "0x" + hex.EncodeToString(data)},
		"latest",
	)
	if err != nil {
		return nil, err
	}
	var hexOut string
	if err := json.Unmarshal(res, &hexOut); err != nil {
		return nil, fmt.Errorf("eth_call result: %w", err)
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(hexOut, "0x"))
	if err != nil {
		return nil, fmt.Errorf("eth_call result: %w", err)
	}
	return raw, nil
}

// selector returns the 4-byte ABI selector of a function signature.
func selector(signature string) []byte {
	return ethutil.Keccak256([]byte(signature))[:4]
}

func wordUint(words []byte, i int) *big.Int {
	return new(big.Int).SetBytes(words[i*32 : i*32+32])
}

func wordAddress(words []byte, i int) string {
	return "0x" + hex.EncodeToString(words[i*32+12:i*32+32])
}
