// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedHeaders(t *testing.T) {
	signer := &StaticSigner{
		HotkeyAddr: "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
		Signature:  "0xdeadbeef",
	}

	headers, err := SignedHeaders(signer, []byte(`{"code":"SAVE10"}`))
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", headers["X-Signature"])
	assert.Equal(t, signer.HotkeyAddr, headers["X-Hotkey"])
}

func TestStaticSignerStripsHexPrefix(t *testing.T) {
	signer := &StaticSigner{Signature: "0xabc123"}
	sig, err := signer.Sign(nil)
	require.NoError(t, err)
	assert.Equal(t, "abc123", sig)

	bare := &StaticSigner{Signature: "abc123"}
	sig, err = bare.Sign(nil)
	require.NoError(t, err)
	assert.Equal(t, "abc123", sig)
}
