// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package metagraph

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SubstrateClient is a minimal JSON-RPC client over the chain entrypoint
// websocket. It covers the block queries the registry needs for snapshot
// stamping; runtime state itself comes through the gateway reader.
type SubstrateClient struct {
	endpoint string
	log      *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID atomic.Uint64
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func NewSubstrateClient(endpoint string, log *zap.Logger) *SubstrateClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubstrateClient{
		endpoint: endpoint,
		log:      log,
	}
}

func (c *SubstrateClient) ensureConn(ctx context.Context) (*websocket.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to chain entrypoint %s: %w", c.endpoint, err)
	}
	c.log.Debug("chain websocket connected", zap.String("endpoint", c.endpoint))
	c.conn = conn
	return conn, nil
}

// call performs one JSON-RPC round trip. The connection is serialized;
// the chain queries here are rare enough that pipelining is not worth it.
func (c *SubstrateClient) call(ctx context.Context, method string, params []any, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.ensureConn(ctx)
	if err != nil {
		return err
	}

	id := c.nextID.Add(1)
	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.SetReadDeadline(deadline)
	}
	if err := conn.WriteJSON(req); err != nil {
		c.reset()
		return fmt.Errorf("chain rpc write: %w", err)
	}

	for {
		var resp rpcResponse
		if err := conn.ReadJSON(&resp); err != nil {
			c.reset()
			return fmt.Errorf("chain rpc read: %w", err)
		}
		if resp.ID != id {
			// Stale response from an abandoned call; skip it.
			continue
		}
		if resp.Error != nil {
			return resp.Error
		}
		if result == nil {
			return nil
		}
		return json.Unmarshal(resp.Result, result)
	}
}

func (c *SubstrateClient) reset() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// GetBlockHash resolves a block number to its hash.
func (c *SubstrateClient) GetBlockHash(ctx context.Context, block int64) (string, error) {
	var hash string
	if err := c.call(ctx, "chain_getBlockHash", []any{block}, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

// GetLatestBlockNumber reads the current head's number.
func (c *SubstrateClient) GetLatestBlockNumber(ctx context.Context) (int64, error) {
	var header struct {
		Number string `json:"number"`
	}
	if err := c.call(ctx, "chain_getHeader", []any{}, &header); err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(header.Number, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed block number %q: %w", header.Number, err)
	}
	return n, nil
}

// Close tears the websocket down. Safe to call without a connection.
func (c *SubstrateClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}
