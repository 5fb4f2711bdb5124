package hedera

import (
	"context"
	"crypto/sha512"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const DefaultTransactionValidDuration = 120 * time.Second

// transactionData is the operation specific part of a transaction body.
type transactionData interface {
	method() string
	encodeData() ([]byte, error)
	validateChecksums(client *Client) error
}

// Transaction carries the state shared by every transaction type: body
// fields until freeze, then one immutable body per node and the signatures
// collected over them.
type Transaction struct {
	data           transactionData
	transactionID  TransactionID
	nodeAccountIDs []AccountID
	transactionFee Hbar
	validDuration  time.Duration
	memo           string
	maxAttempts    int

	frozen     bool
	bodies     map[AccountID][]byte
	signatures SignatureMap
}

func newTransaction(data transactionData) Transaction {
	return Transaction{
		data:          data,
		validDuration: DefaultTransactionValidDuration,
		signatures:    SignatureMap{},
	}
}

func (tx *Transaction) requireNotFrozen() error {
	if tx.frozen {
		return errors.WithStack(ErrTransactionFrozen)
	}
	return nil
}

func (tx *Transaction) requireFrozen() error {
	if !tx.frozen {
		return errors.WithStack(ErrTransactionNotFrozen)
	}
	return nil
}

func (tx *Transaction) IsFrozen() bool {
	return tx.frozen
}

func (tx *Transaction) TransactionID() TransactionID {
	return tx.transactionID
}

func (tx *Transaction) SetTransactionID(id TransactionID) error {
	if err := tx.requireNotFrozen(); err != nil {
		return err
	}
	tx.transactionID = id
	return nil
}

func (tx *Transaction) NodeAccountIDs() []AccountID {
	return append([]AccountID{}, tx.nodeAccountIDs...)
}

// SetNodeAccountIDs pins the nodes the transaction is frozen against instead
// of letting the client pick them.
func (tx *Transaction) SetNodeAccountIDs(ids []AccountID) error {
	if err := tx.requireNotFrozen(); err != nil {
		return err
	}
	tx.nodeAccountIDs = make([]AccountID, len(ids))
	for i, id := range ids {
		tx.nodeAccountIDs[i] = id.WithoutChecksum()
	}
	return nil
}

func (tx *Transaction) TransactionFee() Hbar {
	return tx.transactionFee
}

func (tx *Transaction) SetTransactionFee(fee Hbar) error {
	if err := tx.requireNotFrozen(); err != nil {
		return err
	}
	if fee.AsTinybar() < 0 {
		return errors.Wrapf(ErrConfiguration, "transaction fee cannot be negative, got %s", fee)
	}
	tx.transactionFee = fee
	return nil
}

func (tx *Transaction) TransactionValidDuration() time.Duration {
	return tx.validDuration
}

func (tx *Transaction) SetTransactionValidDuration(d time.Duration) error {
	if err := tx.requireNotFrozen(); err != nil {
		return err
	}
	tx.validDuration = d
	return nil
}

func (tx *Transaction) TransactionMemo() string {
	return tx.memo
}

func (tx *Transaction) SetTransactionMemo(memo string) error {
	if err := tx.requireNotFrozen(); err != nil {
		return err
	}
	tx.memo = memo
	return nil
}

// SetMaxAttempts overrides the client's attempt budget for this
// transaction. It does not touch the body so it is allowed after freezing.
func (tx *Transaction) SetMaxAttempts(attempts int) {
	tx.maxAttempts = attempts
}

// Freeze locks the body. The transaction id and node account ids must have
// been set explicitly.
func (tx *Transaction) Freeze() error {
	return tx.FreezeWith(nil)
}

// FreezeWith locks the body, filling in the transaction id from the
// operator, the node set from the client's network and the fee from the
// client's max transaction fee where they were not set. Freezing a frozen
// transaction does nothing.
func (tx *Transaction) FreezeWith(client *Client) (err error) {
	if tx.frozen {
		return
	}

	if client != nil {
		if err = client.checkOpen(); err != nil {
			return
		}
	}

	transactionID := tx.transactionID
	if transactionID.IsZero() {
		if client == nil {
			return errors.Wrap(ErrConfiguration, "transaction id must be set to freeze without a client")
		}
		var operator *Operator
		if operator, err = client.getOperator(); err != nil {
			return
		}
		transactionID = newTransactionID(operator.AccountID, client.clock.Now())
	}

	nodes := tx.nodeAccountIDs
	if len(nodes) == 0 {
		if client == nil {
			return errors.Wrap(ErrConfiguration, "node account ids must be set to freeze without a client")
		}
		if nodes, err = client.network.nodesForTransaction(); err != nil {
			return
		}
	}

	fee := tx.transactionFee
	if fee.IsZero() && client != nil {
		fee = client.MaxTransactionFee()
	}
	if fee.AsTinybar() < 0 {
		return errors.Wrapf(ErrConfiguration, "transaction fee cannot be negative, got %s", fee)
	}

	data, err := tx.data.encodeData()
	if err != nil {
		return
	}

	bodies := make(map[AccountID][]byte, len(nodes))
	for _, node := range nodes {
		if _, dup := bodies[node]; dup {
			return errors.Wrapf(ErrConfiguration, "node %s is listed twice", node)
		}
		body := wireTransactionBody{
			TransactionID:  wireFromTransactionID(transactionID),
			NodeAccountID:  wireFromAccount(node),
			TransactionFee: uint64(fee.AsTinybar()),
			ValidDuration:  int64(tx.validDuration / time.Second),
			Memo:           tx.memo,
			Method:         tx.data.method(),
			Data:           data,
		}
		if bodies[node], err = marshalWire(body); err != nil {
			return
		}
	}

	tx.transactionID = transactionID
	tx.nodeAccountIDs = nodes
	tx.transactionFee = fee
	tx.bodies = bodies
	tx.frozen = true
	return
}

// BodyBytes returns the frozen body for each node, for signing elsewhere.
func (tx *Transaction) BodyBytes() (bodies map[AccountID][]byte, err error) {
	if err = tx.requireFrozen(); err != nil {
		return
	}
	bodies = make(map[AccountID][]byte, len(tx.bodies))
	for node, body := range tx.bodies {
		bodies[node] = append([]byte{}, body...)
	}
	return
}

// Sign signs every node's body with key.
func (tx *Transaction) Sign(key PrivateKey) error {
	if err := tx.requireFrozen(); err != nil {
		return err
	}
	publicKey := key.PublicKey()
	for _, node := range tx.nodeAccountIDs {
		tx.signatures.upsert(node, publicKey, key.Sign(tx.bodies[node]))
	}
	return nil
}

// SignWith signs every node's body through signer.
func (tx *Transaction) SignWith(ctx context.Context, publicKey PublicKey, signer TransactionSigner) error {
	if err := tx.requireFrozen(); err != nil {
		return err
	}
	return tx.signNodes(ctx, publicKey, signer, tx.nodeAccountIDs)
}

// SignWithOperator signs every node's body with the client's operator.
func (tx *Transaction) SignWithOperator(ctx context.Context, client *Client) error {
	if err := tx.requireFrozen(); err != nil {
		return err
	}
	operator, err := client.getOperator()
	if err != nil {
		return err
	}
	return tx.signNodes(ctx, operator.PublicKey, operator.signer, tx.nodeAccountIDs)
}

func (tx *Transaction) signNodes(ctx context.Context, publicKey PublicKey, signer TransactionSigner, nodes []AccountID) error {
	signatures := make(map[AccountID][]byte, len(nodes))
	for _, node := range nodes {
		signature, err := signer(ctx, tx.bodies[node])
		if err != nil {
			return errors.Wrapf(err, "failed to sign transaction %s for node %s", tx.transactionID, node)
		}
		signatures[node] = signature
	}
	for node, signature := range signatures {
		tx.signatures.upsert(node, publicKey, signature)
	}
	return nil
}

// AddSignature merges a signature produced elsewhere. It only applies to
// transactions frozen against a single node; use AddSignatures otherwise.
func (tx *Transaction) AddSignature(publicKey PublicKey, signature []byte) error {
	if err := tx.requireFrozen(); err != nil {
		return err
	}
	if len(tx.nodeAccountIDs) != 1 {
		return errors.Wrapf(ErrIllegalState, "transaction spans %d nodes, one signature per node is required", len(tx.nodeAccountIDs))
	}
	tx.signatures.upsert(tx.nodeAccountIDs[0], publicKey, signature)
	return nil
}

// AddSignatures merges externally produced signatures, one per node.
func (tx *Transaction) AddSignatures(publicKey PublicKey, signatures map[AccountID][]byte) error {
	if err := tx.requireFrozen(); err != nil {
		return err
	}
	for node := range signatures {
		if _, ok := tx.bodies[node.WithoutChecksum()]; !ok {
			return errors.Wrapf(ErrConfiguration, "transaction is not frozen against node %s", node)
		}
	}
	for node, signature := range signatures {
		tx.signatures.upsert(node, publicKey, signature)
	}
	return nil
}

// GetSignatures returns a copy of every signature collected so far.
func (tx *Transaction) GetSignatures() SignatureMap {
	return tx.signatures.clone()
}

func (tx *Transaction) signedBytes(node AccountID) ([]byte, error) {
	return marshalWire(wireSignedTransaction{
		BodyBytes: tx.bodies[node],
		SigMap:    tx.signatures.pairs(node),
	})
}

// GetTransactionHash returns the SHA-384 hash of the signed transaction sent
// to the first node.
func (tx *Transaction) GetTransactionHash() (hash []byte, err error) {
	if err = tx.requireFrozen(); err != nil {
		return
	}
	signed, err := tx.signedBytes(tx.nodeAccountIDs[0])
	if err != nil {
		return
	}
	sum := sha512.Sum384(signed)
	hash = sum[:]
	return
}

func (tx *Transaction) GetTransactionHashPerNode() (hashes map[AccountID][]byte, err error) {
	if err = tx.requireFrozen(); err != nil {
		return
	}
	hashes = make(map[AccountID][]byte, len(tx.nodeAccountIDs))
	for _, node := range tx.nodeAccountIDs {
		var signed []byte
		if signed, err = tx.signedBytes(node); err != nil {
			return
		}
		sum := sha512.Sum384(signed)
		hashes[node] = sum[:]
	}
	return
}

// Execute freezes the transaction if needed, adds the operator's signature
// and submits it, failing over between its nodes.
func (tx *Transaction) Execute(ctx context.Context, client *Client) (response *TransactionResponse, err error) {
	if err = client.checkOpen(); err != nil {
		return
	}
	if err = tx.FreezeWith(client); err != nil {
		return
	}

	if client.AutoValidateChecksums() {
		if err = tx.transactionID.AccountID.ValidateChecksum(client); err != nil {
			return
		}
		if err = tx.data.validateChecksums(client); err != nil {
			return
		}
	}

	execution := &transactionExecution{tx: tx, submitted: map[AccountID][]byte{}}
	if operator, opErr := client.getOperator(); opErr == nil {
		execution.operator = operator
		if !client.SignOnDemand() {
			var missing []AccountID
			for _, node := range tx.nodeAccountIDs {
				if !tx.signatures.has(node, operator.PublicKey) {
					missing = append(missing, node)
				}
			}
			if err = tx.signNodes(ctx, operator.PublicKey, operator.signer, missing); err != nil {
				return
			}
		}
	}

	node, err := execute(ctx, client, execution, tx.nodeAccountIDs, tx.maxAttempts)
	if err != nil {
		return
	}

	hash := sha512.Sum384(execution.submitted[node])
	response = &TransactionResponse{
		TransactionID:   tx.transactionID,
		NodeID:          node,
		TransactionHash: hash[:],
		validateStatus:  true,
	}
	return
}

// transactionExecution adapts a frozen transaction to the dispatch loop.
type transactionExecution struct {
	tx        *Transaction
	operator  *Operator
	submitted map[AccountID][]byte
}

func (e *transactionExecution) describe() string {
	return fmt.Sprintf("transaction %s", e.tx.transactionID)
}

func (e *transactionExecution) method() string {
	return e.tx.data.method()
}

func (e *transactionExecution) makeRequest(ctx context.Context, _ *Client, node AccountID) (request []byte, err error) {
	if e.operator != nil && !e.tx.signatures.has(node, e.operator.PublicKey) {
		if err = e.tx.signNodes(ctx, e.operator.PublicKey, e.operator.signer, []AccountID{node}); err != nil {
			return
		}
	}
	if request, err = e.tx.signedBytes(node); err != nil {
		return
	}
	e.submitted[node] = request
	return
}

func (e *transactionExecution) classify(node AccountID, response []byte) (status Status, ledgerID []byte, state executionState, err error) {
	var decoded wireTransactionResponse
	if err = unmarshalWire(response, &decoded); err != nil {
		state = executionFailed
		return
	}
	status, ledgerID = decoded.Precheck, decoded.LedgerID

	switch {
	case status == StatusOk:
		state = executionFinished
	case retryableStatus(status):
		state = executionRetry
		err = &PrecheckStatusError{Status: status, TransactionID: &e.tx.transactionID, NodeAccountID: node}
	default:
		state = executionFailed
		err = errors.WithStack(&PrecheckStatusError{Status: status, TransactionID: &e.tx.transactionID, NodeAccountID: node})
	}
	return
}
