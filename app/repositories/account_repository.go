package repositories

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"moviereview/app/models"
	"moviereview/app/pubkey"

	"github.com/dgraph-io/badger/v4"
)

// BadgerLedger implements Ledger on top of a single badger transaction.
type BadgerLedger struct {
	txn *badger.Txn
}

// NewBadgerLedger wraps txn. Writes need a read-write transaction.
func NewBadgerLedger(txn *badger.Txn) *BadgerLedger {
	return &BadgerLedger{txn: txn}
}

// Get retrieves an account by address
func (l *BadgerLedger) Get(address pubkey.PublicKey) (*models.Account, error) {
	item, err := l.txn.Get(accountKey(address))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var account models.Account
	err = item.Value(func(val []byte) error {
		return unmarshalEntity(val, &account)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal account %s: %v", address, err)
	}
	account.Address = address
	return &account, nil
}

// Put creates or replaces an account
func (l *BadgerLedger) Put(account *models.Account) error {
	data, err := marshalEntity(account)
	if err != nil {
		return err
	}
	return l.txn.Set(accountKey(account.Address), data)
}

// Delete removes an account. Deleting a missing account is an error.
func (l *BadgerLedger) Delete(address pubkey.PublicKey) error {
	key := accountKey(address)
	if _, err := l.txn.Get(key); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	return l.txn.Delete(key)
}

func (l *BadgerLedger) HasSignature(signature []byte) (bool, error) {
	_, err := l.txn.Get(signatureKey(signature))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *BadgerLedger) RecordSignature(signature []byte, slot uint64) error {
	return l.txn.Set(signatureKey(signature), binary.BigEndian.AppendUint64(nil, slot))
}

func (l *BadgerLedger) LatestHash() (uint64, []byte, error) {
	slot, err := currentID(l.txn, SlotSeqKey)
	if err != nil || slot == 0 {
		return 0, nil, err
	}
	hash, err := l.hashAt(slot)
	if err != nil {
		return 0, nil, err
	}
	return slot, hash, nil
}

func (l *BadgerLedger) IsRecentHash(hash []byte, window uint64) (bool, error) {
	latest, err := currentID(l.txn, SlotSeqKey)
	if err != nil {
		return false, err
	}
	for i := uint64(0); i < window && i < latest; i++ {
		stored, err := l.hashAt(latest - i)
		if err != nil {
			return false, err
		}
		if bytes.Equal(stored, hash) {
			return true, nil
		}
	}
	return false, nil
}

func (l *BadgerLedger) AppendHash(hash []byte) (uint64, error) {
	slot, err := getNextID(l.txn, SlotSeqKey)
	if err != nil {
		return 0, err
	}
	if err := l.txn.Set(hashKey(slot), hash); err != nil {
		return 0, err
	}
	return slot, nil
}

func (l *BadgerLedger) hashAt(slot uint64) ([]byte, error) {
	item, err := l.txn.Get(hashKey(slot))
	if err != nil {
		return nil, fmt.Errorf("bank hash for slot %d: %w", slot, err)
	}
	return item.ValueCopy(nil)
}
