package hedera

import (
	"sort"

	"github.com/pkg/errors"
)

// TransferTransaction moves hbar between accounts. Amounts for the same
// account are summed and the transfer list must net to zero on the ledger.
type TransferTransaction struct {
	Transaction
	hbarTransfers map[AccountID]Hbar
	accounts      []AccountID
}

func NewTransferTransaction() *TransferTransaction {
	tx := &TransferTransaction{hbarTransfers: map[AccountID]Hbar{}}
	tx.Transaction = newTransaction(tx)
	return tx
}

func (tx *TransferTransaction) AddHbarTransfer(accountID AccountID, amount Hbar) error {
	if err := tx.requireNotFrozen(); err != nil {
		return err
	}
	key := accountID.WithoutChecksum()
	tx.accounts = append(tx.accounts, accountID)
	tx.hbarTransfers[key] = HbarFromTinybar(tx.hbarTransfers[key].AsTinybar() + amount.AsTinybar())
	return nil
}

func (tx *TransferTransaction) HbarTransfers() map[AccountID]Hbar {
	out := make(map[AccountID]Hbar, len(tx.hbarTransfers))
	for id, amount := range tx.hbarTransfers {
		out[id] = amount
	}
	return out
}

func (tx *TransferTransaction) method() string {
	return methodCryptoTransfer
}

func (tx *TransferTransaction) encodeData() ([]byte, error) {
	list := wireTransferList{Transfers: make([]wireAccountAmount, 0, len(tx.hbarTransfers))}
	for id, amount := range tx.hbarTransfers {
		list.Transfers = append(list.Transfers, wireAccountAmount{Account: wireFromAccount(id), Amount: amount.AsTinybar()})
	}
	sort.Slice(list.Transfers, func(i, j int) bool {
		a, b := list.Transfers[i].Account, list.Transfers[j].Account
		if a.Shard != b.Shard {
			return a.Shard < b.Shard
		}
		if a.Realm != b.Realm {
			return a.Realm < b.Realm
		}
		return a.Num < b.Num
	})
	return marshalWire(list)
}

func (tx *TransferTransaction) validateChecksums(client *Client) error {
	for _, id := range tx.accounts {
		if err := id.ValidateChecksum(client); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
