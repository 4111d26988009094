package ledger

import "errors"

// Sentinel errors. ErrInsufficientBalance and ErrQuotaExceeded are expected,
// frequent outcomes; callers branch on them with errors.Is rather than
// treating them as exceptional.
var (
	ErrInvalidGrant        = errors.New("ledger: invalid grant")
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrQuotaExceeded       = errors.New("ledger: quota exceeded")
	ErrStoreCorrupt        = errors.New("ledger: store corrupt")
)
