package hedera

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// queryData is the operation specific part of a query.
type queryData interface {
	method() string
	isPaymentRequired() bool
	encodePayload() ([]byte, error)
	validateChecksums(client *Client) error
	// shouldRetry lets polling queries keep going on statuses that are not
	// final for them, reporting the status that caused it. payload is nil
	// when precheck is not OK.
	shouldRetry(precheck Status, payload []byte) (Status, bool)
}

// Query carries the state shared by every query type.
type Query struct {
	data                 queryData
	nodeAccountIDs       []AccountID
	paymentTransactionID TransactionID
	queryPayment         Hbar
	maxQueryPayment      Hbar
	maxAttempts          int
}

func newQuery(data queryData) Query {
	return Query{data: data}
}

func (q *Query) setNodeAccountIDs(ids []AccountID) {
	q.nodeAccountIDs = make([]AccountID, len(ids))
	for i, id := range ids {
		q.nodeAccountIDs[i] = id.WithoutChecksum()
	}
}

func (q *Query) NodeAccountIDs() []AccountID {
	return append([]AccountID{}, q.nodeAccountIDs...)
}

func (q *Query) QueryPayment() Hbar {
	return q.queryPayment
}

func (q *Query) MaxQueryPayment() Hbar {
	return q.maxQueryPayment
}

// GetCost asks a node what the query would cost to answer.
func (q *Query) GetCost(ctx context.Context, client *Client) (cost Hbar, err error) {
	if err = client.checkOpen(); err != nil {
		return
	}
	nodes, err := q.resolveNodes(client)
	if err != nil {
		return
	}
	if !q.data.isPaymentRequired() {
		return
	}
	operator, err := client.getOperator()
	if err != nil {
		return
	}
	return q.getCost(ctx, client, operator, nodes)
}

func (q *Query) resolveNodes(client *Client) (nodes []AccountID, err error) {
	if len(q.nodeAccountIDs) > 0 {
		return q.nodeAccountIDs, nil
	}
	return client.network.nodesForTransaction()
}

func (q *Query) getCost(ctx context.Context, client *Client, operator *Operator, nodes []AccountID) (cost Hbar, err error) {
	payments, _, err := q.buildPayments(ctx, client, operator, nodes, ZeroHbar)
	if err != nil {
		return
	}
	execution := &queryExecution{query: q, responseType: responseTypeCostAnswer, payments: payments}
	if _, err = execute(ctx, client, execution, nodes, q.maxAttempts); err != nil {
		return
	}
	cost = HbarFromTinybar(int64(execution.cost))
	return
}

// paymentAmount is the explicit payment capped at the max query payment, or
// the node quoted cost when no explicit payment was set.
func (q *Query) paymentAmount(ctx context.Context, client *Client, operator *Operator, nodes []AccountID) (amount Hbar, err error) {
	limit := q.maxQueryPayment
	if limit.IsZero() {
		limit = client.MaxQueryPayment()
	}
	if !q.queryPayment.IsZero() {
		return minHbar(q.queryPayment, limit), nil
	}

	cost, err := q.getCost(ctx, client, operator, nodes)
	if err != nil {
		return
	}
	if cost.AsTinybar() > limit.AsTinybar() {
		err = errors.WithStack(&MaxQueryPaymentExceededError{Query: q.describe(), Cost: cost, Max: limit})
		return
	}
	amount = cost
	return
}

// buildPayments creates one signed transfer from the operator to each node.
func (q *Query) buildPayments(ctx context.Context, client *Client, operator *Operator, nodes []AccountID, amount Hbar) (payments map[AccountID][]byte, transactionID TransactionID, err error) {
	transactionID = q.paymentTransactionID
	if transactionID.IsZero() {
		transactionID = newTransactionID(operator.AccountID, client.clock.Now())
	}

	payments = make(map[AccountID][]byte, len(nodes))
	for _, node := range nodes {
		payment := NewTransferTransaction()
		if err = payment.AddHbarTransfer(operator.AccountID, amount.Negated()); err != nil {
			return
		}
		if err = payment.AddHbarTransfer(node, amount); err != nil {
			return
		}
		if err = payment.SetTransactionID(transactionID); err != nil {
			return
		}
		if err = payment.SetNodeAccountIDs([]AccountID{node}); err != nil {
			return
		}
		if err = payment.SetTransactionFee(client.MaxTransactionFee()); err != nil {
			return
		}
		if err = payment.Freeze(); err != nil {
			return
		}
		if err = payment.SignWith(ctx, operator.PublicKey, operator.signer); err != nil {
			return
		}
		if payments[node], err = payment.signedBytes(node); err != nil {
			return
		}
	}
	return
}

// execute resolves payment and runs the query through the dispatch loop,
// returning the answer payload.
func (q *Query) execute(ctx context.Context, client *Client) (payload []byte, err error) {
	if err = client.checkOpen(); err != nil {
		return
	}

	nodes, err := q.resolveNodes(client)
	if err != nil {
		return
	}

	if client.AutoValidateChecksums() {
		if err = q.data.validateChecksums(client); err != nil {
			return
		}
	}

	execution := &queryExecution{query: q, responseType: responseTypeAnswerOnly}

	if q.data.isPaymentRequired() {
		var operator *Operator
		if operator, err = client.getOperator(); err != nil {
			err = errors.Wrapf(err, "%s requires payment", q.describe())
			return
		}
		var amount Hbar
		if amount, err = q.paymentAmount(ctx, client, operator, nodes); err != nil {
			return
		}
		if execution.payments, execution.paymentID, err = q.buildPayments(ctx, client, operator, nodes, amount); err != nil {
			return
		}
	}

	if _, err = execute(ctx, client, execution, nodes, q.maxAttempts); err != nil {
		return
	}
	payload = execution.payload
	return
}

func (q *Query) describe() string {
	return fmt.Sprintf("query %s", q.data.method())
}

// queryExecution adapts a query to the dispatch loop.
type queryExecution struct {
	query        *Query
	responseType responseType
	payments     map[AccountID][]byte
	paymentID    TransactionID

	payload []byte
	cost    uint64
}

func (e *queryExecution) describe() string {
	if e.responseType == responseTypeCostAnswer {
		return "cost " + e.query.describe()
	}
	return e.query.describe()
}

func (e *queryExecution) method() string {
	return e.query.data.method()
}

func (e *queryExecution) makeRequest(_ context.Context, _ *Client, node AccountID) ([]byte, error) {
	payload, err := e.query.data.encodePayload()
	if err != nil {
		return nil, err
	}
	return marshalWire(wireQuery{
		Payment:      e.payments[node],
		ResponseType: e.responseType,
		Method:       e.query.data.method(),
		Payload:      payload,
	})
}

func (e *queryExecution) classify(node AccountID, response []byte) (status Status, ledgerID []byte, state executionState, err error) {
	var decoded wireResponse
	if err = unmarshalWire(response, &decoded); err != nil {
		state = executionFailed
		return
	}
	status, ledgerID = decoded.Precheck, decoded.LedgerID

	var paymentID *TransactionID
	if !e.paymentID.IsZero() {
		paymentID = &e.paymentID
	}

	if status == StatusOk {
		if e.responseType == responseTypeCostAnswer {
			e.cost = decoded.Cost
			state = executionFinished
			return
		}
		if pending, retry := e.query.data.shouldRetry(status, decoded.Payload); retry {
			status, state = pending, executionRetry
			return
		}
		e.payload = decoded.Payload
		state = executionFinished
		return
	}

	_, retry := e.query.data.shouldRetry(status, nil)
	switch {
	case retry || retryableStatus(status):
		state = executionRetry
		err = &PrecheckStatusError{Status: status, TransactionID: paymentID, NodeAccountID: node}
	default:
		state = executionFailed
		err = errors.WithStack(&PrecheckStatusError{Status: status, TransactionID: paymentID, NodeAccountID: node})
	}
	return
}
