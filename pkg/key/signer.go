// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.

// Package key defines the signing collaborator contract. The actual
// cryptography lives in the wallet; this CLI only carries signatures.
package key

import (
	"strings"

	"github.com/bitkoop-network/miner-cli/pkg/constants"
)

// Signer produces a hotkey-bound signature over a canonical payload.
// Implementations wrap the miner's wallet; tests use a static signer.
type Signer interface {
	// Hotkey returns the SS58 address the signature is bound to.
	Hotkey() string
	// Sign returns the hex signature, without a 0x prefix.
	Sign(payload []byte) (string, error)
}

// StaticSigner carries a pre-computed signature, for flows where signing
// happened outside the CLI.
type StaticSigner struct {
	HotkeyAddr string
	Signature  string
}

func (s *StaticSigner) Hotkey() string {
	return s.HotkeyAddr
}

func (s *StaticSigner) Sign([]byte) (string, error) {
	return strings.TrimPrefix(s.Signature, "0x"), nil
}

// SignedHeaders builds the headers every signed validator request
// carries.
func SignedHeaders(signer Signer, payload []byte) (map[string]string, error) {
	signature, err := signer.Sign(payload)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		constants.SignatureHeader: strings.TrimPrefix(signature, "0x"),
		constants.HotkeyHeader:    signer.Hotkey(),
	}, nil
}
