package domain

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// AccountAddressPrefix is the bech32 human-readable part of account addresses.
const AccountAddressPrefix = "cosmos"

// ErrInvalidAddress is returned for malformed account addresses.
var ErrInvalidAddress = errors.New("invalid address")

// ValidateAddress checks that addr is a bech32 account address with the
// expected prefix and a 20 or 32 byte payload.
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: empty address string is not allowed", ErrInvalidAddress)
	}
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %s: decoding bech32 failed: %v", ErrInvalidAddress, addr, err)
	}
	if hrp != AccountAddressPrefix {
		return fmt.Errorf("%w: %s: expected prefix %s, got %s", ErrInvalidAddress, addr, AccountAddressPrefix, hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidAddress, addr, err)
	}
	if len(raw) != 20 && len(raw) != 32 {
		return fmt.Errorf("%w: %s: unexpected length %d", ErrInvalidAddress, addr, len(raw))
	}
	return nil
}
