package hedera

import (
	"fmt"
	"strings"
)

var (
	ErrConfiguration      = fmt.Errorf("configuration error")
	ErrChecksumValidation = fmt.Errorf("checksum validation failed")
	ErrIllegalState       = fmt.Errorf("illegal state")
	ErrTransactionStatus  = fmt.Errorf("transaction status error")
	ErrAttemptsExceeded   = fmt.Errorf("max attempts exceeded")

	ErrNoOperator           = fmt.Errorf("%w: no operator configured", ErrConfiguration)
	ErrBackoffBounds        = fmt.Errorf("%w: invalid backoff bounds", ErrConfiguration)
	ErrInvalidNetwork       = fmt.Errorf("%w: invalid network", ErrConfiguration)
	ErrNodeNotFound         = fmt.Errorf("%w: node not in network", ErrConfiguration)
	ErrNoNodes              = fmt.Errorf("%w: no nodes available", ErrConfiguration)
	ErrInvalidEntityID      = fmt.Errorf("%w: invalid entity id", ErrConfiguration)
	ErrInvalidKey           = fmt.Errorf("%w: invalid key", ErrConfiguration)
	ErrTransactionFrozen    = fmt.Errorf("%w: transaction is frozen", ErrIllegalState)
	ErrTransactionNotFrozen = fmt.Errorf("%w: transaction is not frozen", ErrIllegalState)
	ErrClientClosed         = fmt.Errorf("%w: client is closed", ErrIllegalState)
	ErrNetworkClosed        = fmt.Errorf("%w: network is closed", ErrIllegalState)
)

// ChecksumMismatchError is returned when an entity id carries a checksum
// that does not belong to the ledger it is being used against.
type ChecksumMismatchError struct {
	ID       string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.ID, e.Expected, e.Actual)
}

func (e *ChecksumMismatchError) Unwrap() error {
	return ErrChecksumValidation
}

// NodeTransportError wraps a failure to reach a specific node.
type NodeTransportError struct {
	NodeAccountID AccountID
	Address       string
	Err           error
}

func (e *NodeTransportError) Error() string {
	return fmt.Sprintf("node %s (%s): %v", e.NodeAccountID, e.Address, e.Err)
}

func (e *NodeTransportError) Unwrap() error {
	return e.Err
}

// PrecheckStatusError is a non-retryable status returned by a node before
// consensus.
type PrecheckStatusError struct {
	Status        Status
	TransactionID *TransactionID
	NodeAccountID AccountID
}

func (e *PrecheckStatusError) Error() string {
	if e.TransactionID != nil {
		return fmt.Sprintf("precheck status %s for transaction %s on node %s", e.Status, e.TransactionID, e.NodeAccountID)
	}
	return fmt.Sprintf("precheck status %s on node %s", e.Status, e.NodeAccountID)
}

func (e *PrecheckStatusError) Unwrap() error {
	return ErrTransactionStatus
}

// ReceiptStatusError is a terminal non-success consensus status.
type ReceiptStatusError struct {
	Status        Status
	TransactionID TransactionID
	Receipt       *TransactionReceipt
}

func (e *ReceiptStatusError) Error() string {
	return fmt.Sprintf("receipt for transaction %s contained error status %s", e.TransactionID, e.Status)
}

func (e *ReceiptStatusError) Unwrap() error {
	return ErrTransactionStatus
}

// MaxAttemptsExceededError is returned once the attempt budget, or every
// node in the request's node set, is used up.
type MaxAttemptsExceededError struct {
	Attempts int
	// LastStatus is only meaningful when HasStatus is set. When every
	// attempt failed in transport, LastErr carries the cause.
	LastStatus Status
	HasStatus  bool
	LastErr    error
}

func (e *MaxAttemptsExceededError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "max attempts exceeded after %d attempts", e.Attempts)
	if e.HasStatus {
		fmt.Fprintf(&b, ", last status %s", e.LastStatus)
	}
	if e.LastErr != nil {
		fmt.Fprintf(&b, ", last error: %v", e.LastErr)
	}
	return b.String()
}

func (e *MaxAttemptsExceededError) Unwrap() []error {
	if e.LastErr == nil {
		return []error{ErrAttemptsExceeded}
	}
	return []error{ErrAttemptsExceeded, e.LastErr}
}

// MaxQueryPaymentExceededError is returned when a query costs more than the
// caller is willing to pay.
type MaxQueryPaymentExceededError struct {
	Query string
	Cost  Hbar
	Max   Hbar
}

func (e *MaxQueryPaymentExceededError) Error() string {
	return fmt.Sprintf("cost of %s (%s) exceeds max query payment (%s)", e.Query, e.Cost, e.Max)
}

func (e *MaxQueryPaymentExceededError) Unwrap() error {
	return ErrConfiguration
}
