package hedera

import "context"

// AccountBalance is the hbar balance of an account.
type AccountBalance struct {
	AccountID AccountID
	Hbars     Hbar
}

// AccountBalanceQuery reads an account's balance. It is free, which also
// makes it the probe used by Client.Ping.
type AccountBalanceQuery struct {
	Query
	accountID AccountID
}

func NewAccountBalanceQuery() *AccountBalanceQuery {
	q := &AccountBalanceQuery{}
	q.Query = newQuery(q)
	return q
}

func (q *AccountBalanceQuery) SetAccountID(id AccountID) *AccountBalanceQuery {
	q.accountID = id
	return q
}

func (q *AccountBalanceQuery) AccountID() AccountID {
	return q.accountID
}

func (q *AccountBalanceQuery) SetNodeAccountIDs(ids []AccountID) *AccountBalanceQuery {
	q.setNodeAccountIDs(ids)
	return q
}

func (q *AccountBalanceQuery) SetMaxAttempts(attempts int) *AccountBalanceQuery {
	q.maxAttempts = attempts
	return q
}

func (q *AccountBalanceQuery) Execute(ctx context.Context, client *Client) (balance AccountBalance, err error) {
	payload, err := q.Query.execute(ctx, client)
	if err != nil {
		return
	}
	var decoded wireBalanceResponse
	if err = unmarshalWire(payload, &decoded); err != nil {
		return
	}
	balance = AccountBalance{AccountID: decoded.Account.accountID(), Hbars: HbarFromTinybar(decoded.Tinybars)}
	return
}

func (q *AccountBalanceQuery) method() string { return methodCryptoGetBalance }

func (q *AccountBalanceQuery) isPaymentRequired() bool { return false }

func (q *AccountBalanceQuery) encodePayload() ([]byte, error) {
	return marshalWire(wireAccountQuery{Account: wireFromAccount(q.accountID)})
}

func (q *AccountBalanceQuery) validateChecksums(client *Client) error {
	return q.accountID.ValidateChecksum(client)
}

func (q *AccountBalanceQuery) shouldRetry(precheck Status, _ []byte) (Status, bool) {
	return precheck, false
}
