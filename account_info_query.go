package hedera

import (
	"context"
	"time"
)

// AccountInfo describes an account's current state.
type AccountInfo struct {
	AccountID           AccountID
	Key                 PublicKey
	Balance             Hbar
	ReceiverSigRequired bool
	ExpirationTime      time.Time
	AccountMemo         string
	Deleted             bool
}

// AccountInfoQuery reads an account's info. It requires payment.
type AccountInfoQuery struct {
	Query
	accountID AccountID
}

func NewAccountInfoQuery() *AccountInfoQuery {
	q := &AccountInfoQuery{}
	q.Query = newQuery(q)
	return q
}

func (q *AccountInfoQuery) SetAccountID(id AccountID) *AccountInfoQuery {
	q.accountID = id
	return q
}

func (q *AccountInfoQuery) SetNodeAccountIDs(ids []AccountID) *AccountInfoQuery {
	q.setNodeAccountIDs(ids)
	return q
}

func (q *AccountInfoQuery) SetMaxAttempts(attempts int) *AccountInfoQuery {
	q.maxAttempts = attempts
	return q
}

func (q *AccountInfoQuery) SetQueryPayment(payment Hbar) *AccountInfoQuery {
	q.queryPayment = payment
	return q
}

func (q *AccountInfoQuery) SetMaxQueryPayment(payment Hbar) *AccountInfoQuery {
	q.maxQueryPayment = payment
	return q
}

func (q *AccountInfoQuery) SetPaymentTransactionID(id TransactionID) *AccountInfoQuery {
	q.paymentTransactionID = id
	return q
}

func (q *AccountInfoQuery) Execute(ctx context.Context, client *Client) (info AccountInfo, err error) {
	payload, err := q.Query.execute(ctx, client)
	if err != nil {
		return
	}
	var decoded wireAccountInfo
	if err = unmarshalWire(payload, &decoded); err != nil {
		return
	}
	info = AccountInfo{
		AccountID:           decoded.Account.accountID(),
		Balance:             HbarFromTinybar(decoded.Tinybars),
		ReceiverSigRequired: decoded.ReceiverSigRequired,
		ExpirationTime:      decoded.ExpirationTime.time(),
		AccountMemo:         decoded.Memo,
		Deleted:             decoded.Deleted,
	}
	if len(decoded.Key) > 0 {
		if info.Key, err = PublicKeyFromBytes(decoded.Key); err != nil {
			return
		}
	}
	return
}

func (q *AccountInfoQuery) method() string { return methodGetAccountInfo }

func (q *AccountInfoQuery) isPaymentRequired() bool { return true }

func (q *AccountInfoQuery) encodePayload() ([]byte, error) {
	return marshalWire(wireAccountQuery{Account: wireFromAccount(q.accountID)})
}

func (q *AccountInfoQuery) validateChecksums(client *Client) error {
	return q.accountID.ValidateChecksum(client)
}

func (q *AccountInfoQuery) shouldRetry(precheck Status, _ []byte) (Status, bool) {
	return precheck, false
}
