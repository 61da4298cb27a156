package mock

import (
	"bytes"
	"sync"

	"moviereview/app/models"
	"moviereview/app/pubkey"
	"moviereview/app/repositories"
)

// Store is an in-memory repositories.Store. Update works on a copy and only
// swaps it in when the callback succeeds.
type Store struct {
	state *Ledger
	mutex sync.Mutex
}

// Ledger is an in-memory repositories.Ledger.
type Ledger struct {
	accounts   map[pubkey.PublicKey]*models.Account
	signatures map[string]uint64
	hashes     [][]byte
}

func NewStore() *Store {
	return &Store{state: NewLedger()}
}

func NewLedger() *Ledger {
	return &Ledger{
		accounts:   make(map[pubkey.PublicKey]*models.Account),
		signatures: make(map[string]uint64),
	}
}

func (s *Store) View(fn func(repositories.Ledger) error) error {
	s.mutex.Lock()
	snapshot := s.state.clone()
	s.mutex.Unlock()
	return fn(snapshot)
}

func (s *Store) Update(fn func(repositories.Ledger) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	working := s.state.clone()
	if err := fn(working); err != nil {
		return err
	}
	s.state = working
	return nil
}

func (l *Ledger) clone() *Ledger {
	c := NewLedger()
	for k, v := range l.accounts {
		c.accounts[k] = copyAccount(v)
	}
	for k, v := range l.signatures {
		c.signatures[k] = v
	}
	c.hashes = append(c.hashes, l.hashes...)
	return c
}

func copyAccount(a *models.Account) *models.Account {
	cp := *a
	cp.Data = append([]byte(nil), a.Data...)
	return &cp
}

func (l *Ledger) Get(address pubkey.PublicKey) (*models.Account, error) {
	a, exists := l.accounts[address]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return copyAccount(a), nil
}

func (l *Ledger) Put(account *models.Account) error {
	l.accounts[account.Address] = copyAccount(account)
	return nil
}

func (l *Ledger) Delete(address pubkey.PublicKey) error {
	if _, exists := l.accounts[address]; !exists {
		return repositories.ErrNotFound
	}
	delete(l.accounts, address)
	return nil
}

func (l *Ledger) HasSignature(signature []byte) (bool, error) {
	_, exists := l.signatures[string(signature)]
	return exists, nil
}

func (l *Ledger) RecordSignature(signature []byte, slot uint64) error {
	l.signatures[string(signature)] = slot
	return nil
}

func (l *Ledger) LatestHash() (uint64, []byte, error) {
	if len(l.hashes) == 0 {
		return 0, nil, nil
	}
	return uint64(len(l.hashes)), l.hashes[len(l.hashes)-1], nil
}

func (l *Ledger) IsRecentHash(hash []byte, window uint64) (bool, error) {
	for i := uint64(0); i < window && i < uint64(len(l.hashes)); i++ {
		if bytes.Equal(l.hashes[len(l.hashes)-1-int(i)], hash) {
			return true, nil
		}
	}
	return false, nil
}

func (l *Ledger) AppendHash(hash []byte) (uint64, error) {
	l.hashes = append(l.hashes, append([]byte(nil), hash...))
	return uint64(len(l.hashes)), nil
}
