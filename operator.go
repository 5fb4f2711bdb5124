package hedera

import "context"

// TransactionSigner produces a signature over message. It may call out to a
// remote or hardware signer, so it receives the caller's context.
type TransactionSigner func(ctx context.Context, message []byte) ([]byte, error)

// Operator is the account that pays for and authorizes requests by default.
type Operator struct {
	AccountID AccountID
	PublicKey PublicKey
	signer    TransactionSigner
}

// PrivateKeySigner adapts a local key to a TransactionSigner.
func PrivateKeySigner(key PrivateKey) TransactionSigner {
	return func(_ context.Context, message []byte) ([]byte, error) {
		return key.Sign(message), nil
	}
}
