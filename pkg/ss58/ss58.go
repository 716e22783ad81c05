// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ss58 encodes substrate public keys into their SS58 display form.
// The registry publishes hotkeys and coldkeys as raw 32-byte account IDs;
// everything user facing works with the encoded address.
package ss58

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	pubkeyLen   = 32
	checksumLen = 2
)

// checksumPreimagePrefix is fixed by the SS58 address format.
var checksumPreimagePrefix = []byte("SS58PRE")

var ErrInvalidPubkey = errors.New("invalid public key length")

// Encode returns the SS58 address for a 32-byte public key under the
// given network format.
func Encode(pubkey []byte, format uint16) (string, error) {
	if len(pubkey) != pubkeyLen {
		return "", fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPubkey, len(pubkey), pubkeyLen)
	}

	var prefix []byte
	switch {
	case format < 64:
		prefix = []byte{byte(format)}
	default:
		// Two-byte prefix encoding for formats 64..16383.
		first := byte(((format & 0b1111_1100) >> 2) | 0b0100_0000)
		second := byte((format >> 8) | ((format & 0b0000_0011) << 6))
		prefix = []byte{first, second}
	}

	payload := append(prefix, pubkey...)
	pre := append(append([]byte{}, checksumPreimagePrefix...), payload...)
	checksum := blake2b.Sum512(pre)

	return base58.Encode(append(payload, checksum[:checksumLen]...)), nil
}

// Short shortens an address for display, keeping both ends readable.
func Short(addr string) string {
	if len(addr) > 20 {
		return addr[:8] + "..." + addr[len(addr)-6:]
	}
	return addr
}
