package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy for one submission. None of these are retried here;
// retry policy belongs to the caller.
var (
	ErrRPCUnavailable      = errors.New("ledger rpc unavailable")
	ErrNonceConflict       = errors.New("nonce conflict")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrConfirmationTimeout = errors.New("confirmation timeout")
	ErrReverted            = errors.New("transaction reverted")
)

// classifyBroadcastErr maps node broadcast rejections onto the failure
// taxonomy. Nodes report these as plain strings over JSON-RPC, so the
// match is on the message.
func classifyBroadcastErr(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "nonce too low"),
		strings.Contains(msg, "nonce too high"),
		strings.Contains(msg, "underpriced"),
		strings.Contains(msg, "already known"):
		return fmt.Errorf("%w: %v", ErrNonceConflict, err)
	case strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
	default:
		return fmt.Errorf("%w: %v", ErrRPCUnavailable, err)
	}
}
