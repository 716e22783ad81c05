// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metagraph discovers, probes and ranks the subnet validators a
// miner can submit to.
package metagraph

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/bitkoop-network/miner-cli/pkg/constants"
)

// raoPerTao converts chain stake units to display units.
const raoPerTao = 1e9

// NodeRecord is one raw registry entry as published on chain. Key bytes
// are raw account IDs; the registry encodes them for display.
type NodeRecord struct {
	HotkeyBytes  []byte
	ColdkeyBytes []byte
	UID          int

	Incentive       float64
	AlphaStake      float64
	TaoStake        float64
	TotalStake      float64
	Trust           float64
	Dividends       float64
	LastUpdateBlock int64

	IPInt    uint64
	IPType   int
	Port     int
	Protocol int
}

// IP converts the chain's integer address encoding to dotted form.
// Unparseable values map to 0.0.0.0, which the registry treats as
// unroutable.
func (r *NodeRecord) IP() string {
	if r.IPInt > 0xFFFFFFFF {
		// v6 addresses are published as full 128 bit integers; the
		// subnet runs v4 only, so anything wider is unroutable.
		return "0.0.0.0"
	}
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(r.IPInt))
	return net.IP(b).String()
}

// ChainReader supplies raw node records for a subnet, optionally pinned
// to a block.
type ChainReader interface {
	GetRawNodes(ctx context.Context, netuid int, block *int64) ([]NodeRecord, int64, error)
}

// metagraphDocument is the gateway's JSON rendering of the on-chain
// metagraph: parallel arrays indexed by UID, stake figures in rao.
type metagraphDocument struct {
	Netuid     int        `json:"netuid"`
	Block      int64      `json:"block"`
	Hotkeys    []string   `json:"hotkeys"`
	Coldkeys   []string   `json:"coldkeys"`
	Axons      []axonInfo `json:"axons"`
	Incentives []float64  `json:"incentives"`
	AlphaStake []float64  `json:"alphaStake"`
	TaoStake   []float64  `json:"taoStake"`
	TotalStake []float64  `json:"totalStake"`
	Trust      []float64  `json:"trust"`
	Dividends  []float64  `json:"dividends"`
	LastUpdate []int64    `json:"lastUpdate"`
}

type axonInfo struct {
	IP       uint64 `json:"ip"`
	Port     int    `json:"port"`
	IPType   int    `json:"ipType"`
	Protocol int    `json:"protocol"`
}

type gatewayResponse struct {
	StatusCode int               `json:"statusCode"`
	Success    bool              `json:"success"`
	Data       metagraphDocument `json:"data"`
	Error      map[string]any    `json:"error"`
}

// GatewayReader reads the metagraph through a chain gateway service that
// renders runtime state as JSON.
type GatewayReader struct {
	baseURL string
	http    *http.Client
}

func NewGatewayReader(baseURL string) *GatewayReader {
	return &GatewayReader{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: constants.ChainRequestTimeout},
	}
}

func (g *GatewayReader) GetRawNodes(ctx context.Context, netuid int, block *int64) ([]NodeRecord, int64, error) {
	url := fmt.Sprintf("%s/api/metagraph?netuid=%d", g.baseURL, netuid)
	if block != nil {
		url = fmt.Sprintf("%s&block=%d", url, *block)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("metagraph gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("metagraph gateway returned HTTP %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	var decoded gatewayResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, 0, fmt.Errorf("malformed metagraph document: %w", err)
	}
	if !decoded.Success {
		return nil, 0, fmt.Errorf("metagraph gateway error: %v", decoded.Error)
	}

	return recordsFromDocument(&decoded.Data)
}

func recordsFromDocument(doc *metagraphDocument) ([]NodeRecord, int64, error) {
	// Every parallel array must cover every uid. A short economics array
	// would silently zero stake and trust and distort priority scoring, so
	// any mismatch fails the discovery.
	n := len(doc.Hotkeys)
	lengths := []struct {
		name string
		len  int
	}{
		{"coldkeys", len(doc.Coldkeys)},
		{"axons", len(doc.Axons)},
		{"incentives", len(doc.Incentives)},
		{"alphaStake", len(doc.AlphaStake)},
		{"taoStake", len(doc.TaoStake)},
		{"totalStake", len(doc.TotalStake)},
		{"trust", len(doc.Trust)},
		{"dividends", len(doc.Dividends)},
		{"lastUpdate", len(doc.LastUpdate)},
	}
	for _, l := range lengths {
		if l.len != n {
			return nil, 0, fmt.Errorf("malformed metagraph document: %d hotkeys but %d %s", n, l.len, l.name)
		}
	}

	records := make([]NodeRecord, 0, n)
	for uid := 0; uid < n; uid++ {
		hotkey, err := hex.DecodeString(strings.TrimPrefix(doc.Hotkeys[uid], "0x"))
		if err != nil {
			return nil, 0, fmt.Errorf("malformed hotkey for uid %d: %w", uid, err)
		}
		coldkey, err := hex.DecodeString(strings.TrimPrefix(doc.Coldkeys[uid], "0x"))
		if err != nil {
			return nil, 0, fmt.Errorf("malformed coldkey for uid %d: %w", uid, err)
		}

		axon := doc.Axons[uid]
		records = append(records, NodeRecord{
			HotkeyBytes:     hotkey,
			ColdkeyBytes:    coldkey,
			UID:             uid,
			Incentive:       doc.Incentives[uid],
			AlphaStake:      doc.AlphaStake[uid] / raoPerTao,
			TaoStake:        doc.TaoStake[uid] / raoPerTao,
			TotalStake:      doc.TotalStake[uid] / raoPerTao,
			Trust:           doc.Trust[uid],
			Dividends:       doc.Dividends[uid],
			LastUpdateBlock: doc.LastUpdate[uid],
			IPInt:           axon.IP,
			IPType:          axon.IPType,
			Port:            axon.Port,
			Protocol:        axon.Protocol,
		})
	}
	return records, doc.Block, nil
}
