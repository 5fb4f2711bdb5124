package hedera

import "github.com/pkg/errors"

// AccountID identifies an account. Ids embedded in maps or compared for
// equality should go through WithoutChecksum.
type AccountID struct {
	Shard    uint64
	Realm    uint64
	Num      uint64
	checksum string
}

func AccountIDFromString(s string) (id AccountID, err error) {
	var e entityID
	var checksum string
	if e, checksum, err = parseEntityID(s); err != nil {
		err = errors.WithStack(err)
		return
	}
	id = AccountID{Shard: e.Shard, Realm: e.Realm, Num: e.Num, checksum: checksum}
	return
}

func (id AccountID) entity() entityID { return entityID{id.Shard, id.Realm, id.Num} }

func (id AccountID) String() string { return id.entity().String() }

// Checksum returns the checksum parsed from the string form, if any.
func (id AccountID) Checksum() string { return id.checksum }

func (id AccountID) WithoutChecksum() AccountID {
	id.checksum = ""
	return id
}

func (id AccountID) IsZero() bool { return id.WithoutChecksum() == AccountID{} }

func (id AccountID) Equal(other AccountID) bool { return id.WithoutChecksum() == other.WithoutChecksum() }

func (id AccountID) ToStringWithChecksum(client *Client) (string, error) {
	return entityStringWithChecksum(client, id.entity())
}

func (id AccountID) ValidateChecksum(client *Client) error {
	return validateEntityChecksum(client, id.entity(), id.checksum)
}

// ChecksumFor returns the checksum the id carries on ledger.
func (id AccountID) ChecksumFor(ledger LedgerID) string {
	return id.entity().checksum(ledger)
}

// VerifyChecksum checks the parsed checksum, if any, against ledger
// regardless of any client setting.
func (id AccountID) VerifyChecksum(ledger LedgerID) error {
	return verifyEntityChecksum(ledger, id.entity(), id.checksum)
}

// FileID identifies a file.
type FileID struct {
	Shard    uint64
	Realm    uint64
	Num      uint64
	checksum string
}

func FileIDFromString(s string) (id FileID, err error) {
	var e entityID
	var checksum string
	if e, checksum, err = parseEntityID(s); err != nil {
		err = errors.WithStack(err)
		return
	}
	id = FileID{Shard: e.Shard, Realm: e.Realm, Num: e.Num, checksum: checksum}
	return
}

func (id FileID) entity() entityID { return entityID{id.Shard, id.Realm, id.Num} }

func (id FileID) String() string { return id.entity().String() }

func (id FileID) Checksum() string { return id.checksum }

func (id FileID) ToStringWithChecksum(client *Client) (string, error) {
	return entityStringWithChecksum(client, id.entity())
}

func (id FileID) ValidateChecksum(client *Client) error {
	return validateEntityChecksum(client, id.entity(), id.checksum)
}

func (id FileID) ChecksumFor(ledger LedgerID) string {
	return id.entity().checksum(ledger)
}

// ContractID identifies a smart contract instance.
type ContractID struct {
	Shard    uint64
	Realm    uint64
	Num      uint64
	checksum string
}

func ContractIDFromString(s string) (id ContractID, err error) {
	var e entityID
	var checksum string
	if e, checksum, err = parseEntityID(s); err != nil {
		err = errors.WithStack(err)
		return
	}
	id = ContractID{Shard: e.Shard, Realm: e.Realm, Num: e.Num, checksum: checksum}
	return
}

func (id ContractID) entity() entityID { return entityID{id.Shard, id.Realm, id.Num} }

func (id ContractID) String() string { return id.entity().String() }

func (id ContractID) Checksum() string { return id.checksum }

func (id ContractID) ToStringWithChecksum(client *Client) (string, error) {
	return entityStringWithChecksum(client, id.entity())
}

func (id ContractID) ValidateChecksum(client *Client) error {
	return validateEntityChecksum(client, id.entity(), id.checksum)
}

func (id ContractID) ChecksumFor(ledger LedgerID) string {
	return id.entity().checksum(ledger)
}

// TokenID identifies a token type.
type TokenID struct {
	Shard    uint64
	Realm    uint64
	Num      uint64
	checksum string
}

func TokenIDFromString(s string) (id TokenID, err error) {
	var e entityID
	var checksum string
	if e, checksum, err = parseEntityID(s); err != nil {
		err = errors.WithStack(err)
		return
	}
	id = TokenID{Shard: e.Shard, Realm: e.Realm, Num: e.Num, checksum: checksum}
	return
}

func (id TokenID) entity() entityID { return entityID{id.Shard, id.Realm, id.Num} }

func (id TokenID) String() string { return id.entity().String() }

func (id TokenID) Checksum() string { return id.checksum }

func (id TokenID) ToStringWithChecksum(client *Client) (string, error) {
	return entityStringWithChecksum(client, id.entity())
}

func (id TokenID) ValidateChecksum(client *Client) error {
	return validateEntityChecksum(client, id.entity(), id.checksum)
}

func (id TokenID) ChecksumFor(ledger LedgerID) string {
	return id.entity().checksum(ledger)
}

func entityStringWithChecksum(client *Client, e entityID) (s string, err error) {
	if client == nil {
		err = errors.Wrap(ErrConfiguration, "a client is required to compute a checksum")
		return
	}
	ledger := client.LedgerID()
	if !ledger.Resolved() {
		err = errors.Wrap(ErrConfiguration, "ledger id is not resolved")
		return
	}
	s = e.String() + "-" + e.checksum(ledger)
	return
}
