package hedera

import (
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Remote methods, named the way the node services expose them.
const (
	methodCryptoTransfer         = "/proto.CryptoService/cryptoTransfer"
	methodCryptoGetBalance       = "/proto.CryptoService/cryptoGetBalance"
	methodGetAccountInfo         = "/proto.CryptoService/getAccountInfo"
	methodGetTransactionReceipts = "/proto.CryptoService/getTransactionReceipts"
	methodGetTxRecordByTxID      = "/proto.CryptoService/getTxRecordByTxID"
)

type responseType uint8

const (
	responseTypeAnswerOnly responseType = 0
	responseTypeCostAnswer responseType = 2
)

var wireEncMode cbor.EncMode

func init() {
	var err error
	if wireEncMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
}

func marshalWire(v any) (b []byte, err error) {
	if b, err = wireEncMode.Marshal(v); err != nil {
		err = errors.Wrapf(err, "failed to encode %T", v)
	}
	return
}

func unmarshalWire(b []byte, v any) (err error) {
	if err = cbor.Unmarshal(b, v); err != nil {
		err = errors.Wrapf(err, "failed to decode %T", v)
	}
	return
}

type wireEntityID struct {
	_     struct{} `cbor:",toarray"`
	Shard uint64
	Realm uint64
	Num   uint64
}

func (w wireEntityID) accountID() AccountID {
	return AccountID{Shard: w.Shard, Realm: w.Realm, Num: w.Num}
}

func wireFromEntity(e entityID) wireEntityID {
	return wireEntityID{Shard: e.Shard, Realm: e.Realm, Num: e.Num}
}

func wireFromAccount(id AccountID) wireEntityID {
	return wireFromEntity(id.entity())
}

func wireOptionalEntity(w *wireEntityID) *entityID {
	if w == nil {
		return nil
	}
	return &entityID{Shard: w.Shard, Realm: w.Realm, Num: w.Num}
}

type wireTimestamp struct {
	_       struct{} `cbor:",toarray"`
	Seconds int64
	Nanos   int32
}

func wireFromTime(t time.Time) wireTimestamp {
	return wireTimestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

func (w wireTimestamp) time() time.Time {
	return time.Unix(w.Seconds, int64(w.Nanos)).UTC()
}

type wireTransactionID struct {
	_          struct{} `cbor:",toarray"`
	Account    wireEntityID
	ValidStart wireTimestamp
}

func wireFromTransactionID(id TransactionID) wireTransactionID {
	return wireTransactionID{Account: wireFromAccount(id.AccountID), ValidStart: wireFromTime(id.ValidStart)}
}

func (w wireTransactionID) transactionID() TransactionID {
	return TransactionID{AccountID: w.Account.accountID(), ValidStart: w.ValidStart.time()}
}

// wireTransactionBody is the unit that gets signed. One is encoded per node.
type wireTransactionBody struct {
	TransactionID  wireTransactionID `cbor:"1,keyasint"`
	NodeAccountID  wireEntityID      `cbor:"2,keyasint"`
	TransactionFee uint64            `cbor:"3,keyasint"`
	ValidDuration  int64             `cbor:"4,keyasint"`
	Memo           string            `cbor:"5,keyasint,omitempty"`
	Method         string            `cbor:"6,keyasint"`
	Data           cbor.RawMessage   `cbor:"7,keyasint,omitempty"`
}

type wireSignaturePair struct {
	_         struct{} `cbor:",toarray"`
	PublicKey []byte
	Signature []byte
}

type wireSignedTransaction struct {
	BodyBytes []byte              `cbor:"1,keyasint"`
	SigMap    []wireSignaturePair `cbor:"2,keyasint,omitempty"`
}

type wireTransactionResponse struct {
	Precheck Status `cbor:"1,keyasint"`
	Cost     uint64 `cbor:"2,keyasint,omitempty"`
	LedgerID []byte `cbor:"3,keyasint,omitempty"`
}

type wireQuery struct {
	Payment      []byte          `cbor:"1,keyasint,omitempty"`
	ResponseType responseType    `cbor:"2,keyasint"`
	Method       string          `cbor:"3,keyasint"`
	Payload      cbor.RawMessage `cbor:"4,keyasint,omitempty"`
}

type wireResponse struct {
	Precheck     Status          `cbor:"1,keyasint"`
	ResponseType responseType    `cbor:"2,keyasint"`
	Cost         uint64          `cbor:"3,keyasint,omitempty"`
	LedgerID     []byte          `cbor:"4,keyasint,omitempty"`
	Payload      cbor.RawMessage `cbor:"5,keyasint,omitempty"`
}

type wireAccountAmount struct {
	_       struct{} `cbor:",toarray"`
	Account wireEntityID
	Amount  int64
}

type wireTransferList struct {
	Transfers []wireAccountAmount `cbor:"1,keyasint"`
}

type wireAccountQuery struct {
	Account wireEntityID `cbor:"1,keyasint"`
}

type wireBalanceResponse struct {
	Account  wireEntityID `cbor:"1,keyasint"`
	Tinybars int64        `cbor:"2,keyasint"`
}

type wireAccountInfo struct {
	Account             wireEntityID  `cbor:"1,keyasint"`
	Key                 []byte        `cbor:"2,keyasint,omitempty"`
	Tinybars            int64         `cbor:"3,keyasint"`
	ReceiverSigRequired bool          `cbor:"4,keyasint,omitempty"`
	ExpirationTime      wireTimestamp `cbor:"5,keyasint"`
	Memo                string        `cbor:"6,keyasint,omitempty"`
	Deleted             bool          `cbor:"7,keyasint,omitempty"`
}

type wireTransactionQuery struct {
	TransactionID wireTransactionID `cbor:"1,keyasint"`
}

type wireReceipt struct {
	Status     Status        `cbor:"1,keyasint"`
	AccountID  *wireEntityID `cbor:"2,keyasint,omitempty"`
	FileID     *wireEntityID `cbor:"3,keyasint,omitempty"`
	ContractID *wireEntityID `cbor:"4,keyasint,omitempty"`
	TokenID    *wireEntityID `cbor:"5,keyasint,omitempty"`
}

type wireRecord struct {
	Receipt            wireReceipt         `cbor:"1,keyasint"`
	TransactionHash    []byte              `cbor:"2,keyasint"`
	ConsensusTimestamp wireTimestamp       `cbor:"3,keyasint"`
	TransactionID      wireTransactionID   `cbor:"4,keyasint"`
	Memo               string              `cbor:"5,keyasint,omitempty"`
	TransactionFee     uint64              `cbor:"6,keyasint"`
	Transfers          []wireAccountAmount `cbor:"7,keyasint,omitempty"`
}
