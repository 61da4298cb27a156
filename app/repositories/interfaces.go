package repositories

import (
	"moviereview/app/models"
	"moviereview/app/pubkey"
)

// AccountReader defines read access to ledger accounts.
type AccountReader interface {
	Get(address pubkey.PublicKey) (*models.Account, error)
}

// AccountStore defines the interface for account data access
type AccountStore interface {
	AccountReader
	Put(account *models.Account) error
	Delete(address pubkey.PublicKey) error
}

// Ledger is an AccountStore plus the bookkeeping the runtime needs to order
// transactions and reject replays. All methods act inside one transaction.
type Ledger interface {
	AccountStore
	HasSignature(signature []byte) (bool, error)
	RecordSignature(signature []byte, slot uint64) error
	// LatestHash returns the newest bank hash and its slot, or a nil hash
	// when the ledger is empty.
	LatestHash() (slot uint64, hash []byte, err error)
	// IsRecentHash reports whether hash is among the last window bank hashes.
	IsRecentHash(hash []byte, window uint64) (bool, error)
	// AppendHash stores hash at the next slot and returns that slot.
	AppendHash(hash []byte) (uint64, error)
}

// Store opens ledger transactions. Update commits only when fn returns nil.
type Store interface {
	View(fn func(Ledger) error) error
	Update(fn func(Ledger) error) error
}
