package hedera

import (
	"context"
	"encoding/hex"
	"fmt"
)

// TransactionResponse identifies a submitted transaction and the node that
// accepted it.
type TransactionResponse struct {
	TransactionID   TransactionID
	NodeID          AccountID
	TransactionHash []byte
	validateStatus  bool
}

// SetValidateStatus set to false makes GetReceipt and GetRecord return
// non-success receipts without an error.
func (r *TransactionResponse) SetValidateStatus(validate bool) *TransactionResponse {
	r.validateStatus = validate
	return r
}

// GetReceiptQuery returns a receipt query routed to the submitting node.
func (r *TransactionResponse) GetReceiptQuery() *TransactionReceiptQuery {
	return NewTransactionReceiptQuery().
		SetTransactionID(r.TransactionID).
		SetNodeAccountIDs([]AccountID{r.NodeID}).
		SetValidateStatus(r.validateStatus)
}

func (r *TransactionResponse) GetReceipt(ctx context.Context, client *Client) (TransactionReceipt, error) {
	return r.GetReceiptQuery().Execute(ctx, client)
}

// GetRecordQuery returns a record query routed to the submitting node.
func (r *TransactionResponse) GetRecordQuery() *TransactionRecordQuery {
	return NewTransactionRecordQuery().
		SetTransactionID(r.TransactionID).
		SetNodeAccountIDs([]AccountID{r.NodeID}).
		SetValidateStatus(r.validateStatus)
}

// GetRecord waits for the receipt, then fetches the record.
func (r *TransactionResponse) GetRecord(ctx context.Context, client *Client) (record TransactionRecord, err error) {
	if _, err = r.GetReceipt(ctx, client); err != nil {
		return
	}
	return r.GetRecordQuery().Execute(ctx, client)
}

func (r *TransactionResponse) String() string {
	return fmt.Sprintf("%s via %s (%s)", r.TransactionID, r.NodeID, hex.EncodeToString(r.TransactionHash))
}
