package hedera

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// TransactionReceipt is the consensus outcome of a transaction.
type TransactionReceipt struct {
	Status     Status
	AccountID  *AccountID
	FileID     *FileID
	ContractID *ContractID
	TokenID    *TokenID
}

func receiptFromWire(w wireReceipt) TransactionReceipt {
	receipt := TransactionReceipt{Status: w.Status}
	if e := wireOptionalEntity(w.AccountID); e != nil {
		receipt.AccountID = &AccountID{Shard: e.Shard, Realm: e.Realm, Num: e.Num}
	}
	if e := wireOptionalEntity(w.FileID); e != nil {
		receipt.FileID = &FileID{Shard: e.Shard, Realm: e.Realm, Num: e.Num}
	}
	if e := wireOptionalEntity(w.ContractID); e != nil {
		receipt.ContractID = &ContractID{Shard: e.Shard, Realm: e.Realm, Num: e.Num}
	}
	if e := wireOptionalEntity(w.TokenID); e != nil {
		receipt.TokenID = &TokenID{Shard: e.Shard, Realm: e.Realm, Num: e.Num}
	}
	return receipt
}

// Transfer is one leg of a record's transfer list.
type Transfer struct {
	AccountID AccountID
	Amount    Hbar
}

// TransactionRecord is the receipt plus the fee, the transfers and the hash
// of the submitted transaction.
type TransactionRecord struct {
	Receipt            TransactionReceipt
	TransactionHash    []byte
	ConsensusTimestamp time.Time
	TransactionID      TransactionID
	TransactionMemo    string
	TransactionFee     Hbar
	Transfers          []Transfer
}

func recordFromWire(w wireRecord) TransactionRecord {
	record := TransactionRecord{
		Receipt:            receiptFromWire(w.Receipt),
		TransactionHash:    w.TransactionHash,
		ConsensusTimestamp: w.ConsensusTimestamp.time(),
		TransactionID:      w.TransactionID.transactionID(),
		TransactionMemo:    w.Memo,
		TransactionFee:     HbarFromTinybar(int64(w.TransactionFee)),
	}
	for _, t := range w.Transfers {
		record.Transfers = append(record.Transfers, Transfer{AccountID: t.Account.accountID(), Amount: HbarFromTinybar(t.Amount)})
	}
	return record
}

// pendingReceipt reports whether a receipt lookup should keep polling.
func pendingReceipt(precheck Status, receipt *wireReceipt) (Status, bool) {
	switch precheck {
	case StatusBusy, StatusUnknown, StatusReceiptNotFound, StatusRecordNotFound:
		return precheck, true
	case StatusOk:
	default:
		return precheck, false
	}
	if receipt == nil {
		return precheck, false
	}
	switch receipt.Status {
	case StatusUnknown, StatusBusy:
		return receipt.Status, true
	}
	return receipt.Status, false
}

func checkReceiptStatus(validate bool, transactionID TransactionID, receipt TransactionReceipt) error {
	if !validate || receipt.Status == StatusSuccess {
		return nil
	}
	return errors.WithStack(&ReceiptStatusError{Status: receipt.Status, TransactionID: transactionID, Receipt: &receipt})
}

// TransactionReceiptQuery polls a node for a transaction's receipt until it
// reaches consensus. It is free.
type TransactionReceiptQuery struct {
	Query
	transactionID  TransactionID
	validateStatus bool
}

func NewTransactionReceiptQuery() *TransactionReceiptQuery {
	q := &TransactionReceiptQuery{validateStatus: true}
	q.Query = newQuery(q)
	return q
}

func (q *TransactionReceiptQuery) SetTransactionID(id TransactionID) *TransactionReceiptQuery {
	q.transactionID = id
	return q
}

func (q *TransactionReceiptQuery) SetNodeAccountIDs(ids []AccountID) *TransactionReceiptQuery {
	q.setNodeAccountIDs(ids)
	return q
}

func (q *TransactionReceiptQuery) SetMaxAttempts(attempts int) *TransactionReceiptQuery {
	q.maxAttempts = attempts
	return q
}

// SetValidateStatus controls whether a terminal non-success status is
// returned as a ReceiptStatusError. It defaults to true.
func (q *TransactionReceiptQuery) SetValidateStatus(validate bool) *TransactionReceiptQuery {
	q.validateStatus = validate
	return q
}

func (q *TransactionReceiptQuery) Execute(ctx context.Context, client *Client) (receipt TransactionReceipt, err error) {
	payload, err := q.Query.execute(ctx, client)
	if err != nil {
		return
	}
	var decoded wireReceipt
	if err = unmarshalWire(payload, &decoded); err != nil {
		return
	}
	receipt = receiptFromWire(decoded)
	err = checkReceiptStatus(q.validateStatus, q.transactionID, receipt)
	return
}

func (q *TransactionReceiptQuery) method() string { return methodGetTransactionReceipts }

func (q *TransactionReceiptQuery) isPaymentRequired() bool { return false }

func (q *TransactionReceiptQuery) encodePayload() ([]byte, error) {
	return marshalWire(wireTransactionQuery{TransactionID: wireFromTransactionID(q.transactionID)})
}

func (q *TransactionReceiptQuery) validateChecksums(client *Client) error {
	return q.transactionID.AccountID.ValidateChecksum(client)
}

func (q *TransactionReceiptQuery) shouldRetry(precheck Status, payload []byte) (Status, bool) {
	if payload == nil {
		return pendingReceipt(precheck, nil)
	}
	var decoded wireReceipt
	if err := unmarshalWire(payload, &decoded); err != nil {
		return precheck, false
	}
	return pendingReceipt(precheck, &decoded)
}

// TransactionRecordQuery fetches a transaction's record once it has reached
// consensus. It requires payment.
type TransactionRecordQuery struct {
	Query
	transactionID  TransactionID
	validateStatus bool
}

func NewTransactionRecordQuery() *TransactionRecordQuery {
	q := &TransactionRecordQuery{validateStatus: true}
	q.Query = newQuery(q)
	return q
}

func (q *TransactionRecordQuery) SetTransactionID(id TransactionID) *TransactionRecordQuery {
	q.transactionID = id
	return q
}

func (q *TransactionRecordQuery) SetNodeAccountIDs(ids []AccountID) *TransactionRecordQuery {
	q.setNodeAccountIDs(ids)
	return q
}

func (q *TransactionRecordQuery) SetMaxAttempts(attempts int) *TransactionRecordQuery {
	q.maxAttempts = attempts
	return q
}

func (q *TransactionRecordQuery) SetQueryPayment(payment Hbar) *TransactionRecordQuery {
	q.queryPayment = payment
	return q
}

func (q *TransactionRecordQuery) SetMaxQueryPayment(payment Hbar) *TransactionRecordQuery {
	q.maxQueryPayment = payment
	return q
}

func (q *TransactionRecordQuery) SetValidateStatus(validate bool) *TransactionRecordQuery {
	q.validateStatus = validate
	return q
}

func (q *TransactionRecordQuery) Execute(ctx context.Context, client *Client) (record TransactionRecord, err error) {
	payload, err := q.Query.execute(ctx, client)
	if err != nil {
		return
	}
	var decoded wireRecord
	if err = unmarshalWire(payload, &decoded); err != nil {
		return
	}
	record = recordFromWire(decoded)
	err = checkReceiptStatus(q.validateStatus, q.transactionID, record.Receipt)
	return
}

func (q *TransactionRecordQuery) method() string { return methodGetTxRecordByTxID }

func (q *TransactionRecordQuery) isPaymentRequired() bool { return true }

func (q *TransactionRecordQuery) encodePayload() ([]byte, error) {
	return marshalWire(wireTransactionQuery{TransactionID: wireFromTransactionID(q.transactionID)})
}

func (q *TransactionRecordQuery) validateChecksums(client *Client) error {
	return q.transactionID.AccountID.ValidateChecksum(client)
}

func (q *TransactionRecordQuery) shouldRetry(precheck Status, payload []byte) (Status, bool) {
	if payload == nil {
		return pendingReceipt(precheck, nil)
	}
	var decoded wireRecord
	if err := unmarshalWire(payload, &decoded); err != nil {
		return precheck, false
	}
	return pendingReceipt(precheck, &decoded.Receipt)
}
