package ledger

import (
	"crypto/ecdsa"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account is the relay's single signing identity. The nonce counter is
// the only shared mutable state in the process; it must only be touched
// while holding mu, which serializes nonce acquisition through broadcast.
type Account struct {
	address common.Address
	key     *ecdsa.PrivateKey

	mu     sync.Mutex
	nonce  uint64
	synced bool
}

// NewAccount parses a hex-encoded private key and derives its address.
func NewAccount(privateKeyHex string) (*Account, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Account{
		address: crypto.PubkeyToAddress(key.PublicKey),
		key:     key,
	}, nil
}

// Address returns the account's ledger address.
func (a *Account) Address() common.Address {
	return a.address
}
