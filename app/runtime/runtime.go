package runtime

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"moviereview/app/models"
	"moviereview/app/pubkey"
	"moviereview/app/repositories"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/sha3"
)

// DefaultHashWindow is how many recent bank hashes a transaction may reference.
const DefaultHashWindow = 150

var genesisHash = Hash(sha3.Sum256([]byte("moviereview genesis")))

// Processor executes instructions addressed to one program.
type Processor interface {
	Process(ctx *InvokeContext, accounts []AccountMeta, data []byte) error
}

// Receipt describes a processed transaction.
type Receipt struct {
	Signature Signature `json:"signature"`
	Slot      uint64    `json:"slot"`
	Logs      []string  `json:"logs"`
}

// Status is a summary of the ledger head.
type Status struct {
	Slot         uint64 `json:"slot"`
	BankHash     Hash   `json:"bankHash"`
	Transactions uint64 `json:"transactions"`
}

// Runtime applies signed transactions to a ledger one at a time. Each
// transaction runs in a single store transaction and either commits fully
// or leaves no trace.
type Runtime struct {
	store        repositories.Store
	processors   map[pubkey.PublicKey]Processor
	mutex        sync.Mutex
	rent         Rent
	hashWindow   uint64
	airdropLimit uint64
	log          logrus.FieldLogger
}

type Option func(*Runtime)

func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Runtime) { r.log = log }
}

func WithRent(rent Rent) Option {
	return func(r *Runtime) { r.rent = rent }
}

func WithHashWindow(n uint64) Option {
	return func(r *Runtime) { r.hashWindow = n }
}

// WithAirdropLimit caps a single airdrop. Zero means unlimited.
func WithAirdropLimit(lamports uint64) Option {
	return func(r *Runtime) { r.airdropLimit = lamports }
}

// New opens a runtime on store, writing the genesis hash on first use.
func New(store repositories.Store, opts ...Option) (*Runtime, error) {
	r := &Runtime{
		store:      store,
		processors: make(map[pubkey.PublicKey]Processor),
		rent:       DefaultRent,
		hashWindow: DefaultHashWindow,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	err := store.Update(func(l repositories.Ledger) error {
		_, hash, err := l.LatestHash()
		if err != nil || hash != nil {
			return err
		}
		_, err = l.AppendHash(genesisHash[:])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("initialize ledger: %w", err)
	}
	return r, nil
}

// Register routes instructions for programID to p.
func (r *Runtime) Register(programID pubkey.PublicKey, p Processor) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.processors[programID] = p
}

func (r *Runtime) Rent() Rent {
	return r.rent
}

// RecentHash returns the newest bank hash for use in a new transaction.
func (r *Runtime) RecentHash(ctx context.Context) (Hash, error) {
	st, err := r.Status(ctx)
	if err != nil {
		return Hash{}, err
	}
	return st.BankHash, nil
}

func (r *Runtime) Status(ctx context.Context) (Status, error) {
	var st Status
	if err := ctx.Err(); err != nil {
		return st, err
	}
	err := r.store.View(func(l repositories.Ledger) error {
		slot, hash, err := l.LatestHash()
		if err != nil {
			return err
		}
		st.Slot = slot
		copy(st.BankHash[:], hash)
		if slot > 0 {
			st.Transactions = slot - 1
		}
		return nil
	})
	return st, err
}

// View runs fn against a consistent snapshot of the accounts.
func (r *Runtime) View(ctx context.Context, fn func(repositories.AccountReader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.store.View(func(l repositories.Ledger) error {
		return fn(l)
	})
}

// Account fetches one account.
func (r *Runtime) Account(ctx context.Context, address pubkey.PublicKey) (*models.Account, error) {
	var account *models.Account
	err := r.View(ctx, func(accounts repositories.AccountReader) error {
		var err error
		account, err = accounts.Get(address)
		return err
	})
	return account, err
}

// Airdrop credits lamports to address, creating a system account if needed.
func (r *Runtime) Airdrop(ctx context.Context, address pubkey.PublicKey, lamports uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.airdropLimit > 0 && lamports > r.airdropLimit {
		return fmt.Errorf("%w: %d > %d", ErrAirdropLimit, lamports, r.airdropLimit)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.store.Update(func(l repositories.Ledger) error {
		account, err := l.Get(address)
		if errors.Is(err, repositories.ErrNotFound) {
			account = &models.Account{Address: address, Owner: pubkey.SystemProgramID}
		} else if err != nil {
			return err
		}
		if account.Lamports > math.MaxUint64-lamports {
			return ErrArithmeticOverflow
		}
		account.Lamports += lamports
		return l.Put(account)
	})
}

// Submit verifies and executes tx. On failure the receipt still carries the
// program logs produced before the error; no state is changed.
func (r *Runtime) Submit(ctx context.Context, tx *Transaction) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := tx.Verify(); err != nil {
		return nil, err
	}
	id := tx.ID()
	receipt := &Receipt{Signature: id, Logs: []string{}}
	log := r.log.WithField("signature", id.String())

	r.mutex.Lock()
	defer r.mutex.Unlock()

	err := r.store.Update(func(l repositories.Ledger) error {
		seen, err := l.HasSignature(id[:])
		if err != nil {
			return err
		}
		if seen {
			return ErrAlreadyProcessed
		}
		recent, err := l.IsRecentHash(tx.RecentHash[:], r.hashWindow)
		if err != nil {
			return err
		}
		if !recent {
			return ErrBlockhashNotFound
		}

		txSigners := make(map[pubkey.PublicKey]bool)
		for _, key := range tx.Signers() {
			txSigners[key] = true
		}

		for i, ix := range tx.Instructions {
			if err := r.execute(l, ix, txSigners, &receipt.Logs, log); err != nil {
				return &InstructionError{Index: i, Err: err}
			}
		}

		_, prev, err := l.LatestHash()
		if err != nil {
			return err
		}
		slot, err := l.AppendHash(nextBankHash(prev, id))
		if err != nil {
			return err
		}
		receipt.Slot = slot
		return l.RecordSignature(id[:], slot)
	})
	if err != nil {
		log.WithError(err).Info("transaction rejected")
		return receipt, err
	}
	log.WithField("slot", receipt.Slot).Debug("transaction committed")
	return receipt, nil
}

func (r *Runtime) execute(l repositories.Ledger, ix Instruction, txSigners map[pubkey.PublicKey]bool, logs *[]string, log logrus.FieldLogger) error {
	p, ok := r.processors[ix.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID)
	}
	signers := make(map[pubkey.PublicKey]bool)
	writable := make(map[pubkey.PublicKey]bool)
	for _, meta := range ix.Accounts {
		if meta.IsSigner {
			if !txSigners[meta.PublicKey] {
				return fmt.Errorf("%w: %s", ErrMissingSignature, meta.PublicKey)
			}
			signers[meta.PublicKey] = true
		}
		if meta.IsWritable {
			writable[meta.PublicKey] = true
		}
	}
	ctx := newInvokeContext(l, ix.ProgramID, signers, writable, logs, r.rent, log)
	*logs = append(*logs, fmt.Sprintf("Program %s invoke [1]", ix.ProgramID))
	if err := p.Process(ctx, ix.Accounts, ix.Data); err != nil {
		*logs = append(*logs, fmt.Sprintf("Program %s failed: %v", ix.ProgramID, err))
		return err
	}
	*logs = append(*logs, fmt.Sprintf("Program %s success", ix.ProgramID))
	return nil
}

func nextBankHash(prev []byte, signature Signature) []byte {
	h := sha3.New256()
	h.Write(prev)
	h.Write(signature[:])
	return h.Sum(nil)
}
