package repositories

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"moviereview/app/pubkey"

	"github.com/dgraph-io/badger/v4"
)

const (
	// Key prefixes for different entity types
	AccountKeyPrefix   = "account:"
	SignatureKeyPrefix = "sig:"
	HashKeyPrefix      = "hash:"

	// Sequence key for slots
	SlotSeqKey = "seq:slot"
)

func accountKey(address pubkey.PublicKey) []byte {
	return append([]byte(AccountKeyPrefix), address[:]...)
}

func signatureKey(signature []byte) []byte {
	return append([]byte(SignatureKeyPrefix), signature...)
}

func hashKey(slot uint64) []byte {
	return binary.BigEndian.AppendUint64([]byte(HashKeyPrefix), slot)
}

// currentID reads a sequence value without advancing it. Zero means unset.
func currentID(txn *badger.Txn, seqKey string) (uint64, error) {
	item, err := txn.Get([]byte(seqKey))
	if err == badger.ErrKeyNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var id uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt sequence %s", seqKey)
		}
		id = binary.BigEndian.Uint64(val)
		return nil
	})
	return id, err
}

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (uint64, error) {
	id, err := currentID(txn, seqKey)
	if err != nil {
		return 0, err
	}
	id++

	// Store new ID
	if err := txn.Set([]byte(seqKey), binary.BigEndian.AppendUint64(nil, id)); err != nil {
		return 0, err
	}
	return id, nil
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %v", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %v", err)
	}
	return nil
}
