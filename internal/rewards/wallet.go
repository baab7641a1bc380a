package rewards

import (
	"context"
	"fmt"
	"strings"
)

// RejectReason explains a refused wallet link.
type RejectReason string

const ReasonInvalidFormat RejectReason = "invalid_format"

// LinkResult reports the outcome of a wallet link attempt.
type LinkResult struct {
	Linked bool
	Reason RejectReason
}

// LinkWallet validates and attaches an external wallet address. The check is
// format-only: 0x prefix, 42 characters total, hex after the prefix. No
// ownership proof is performed; "verified" means the format passed. A later
// valid address overwrites an earlier one, invalid input changes nothing.
func (e *Engine) LinkWallet(ctx context.Context, userID int64, address string) (LinkResult, error) {
	if !validWalletAddress(address) {
		return LinkResult{Linked: false, Reason: ReasonInvalidFormat}, nil
	}
	if err := e.store.SetWallet(ctx, userID, address); err != nil {
		return LinkResult{}, fmt.Errorf("link wallet: %w", err)
	}
	e.log.WithField("user_id", userID).Info("Wallet linked")
	return LinkResult{Linked: true}, nil
}

func validWalletAddress(address string) bool {
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return false
	}
	for _, c := range address[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
