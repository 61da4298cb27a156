package runtime

import (
	"errors"
	"fmt"
	"math"

	"moviereview/app/models"
	"moviereview/app/pubkey"
	"moviereview/app/repositories"

	"github.com/sirupsen/logrus"
)

const maxInvokeDepth = 4

// InvokeContext is what a program sees while one of its instructions runs.
// It exposes the accounts of the enclosing transaction and enforces the
// ownership, signer and writable rules on every change.
type InvokeContext struct {
	ledger    repositories.AccountStore
	programID pubkey.PublicKey
	signers   map[pubkey.PublicKey]bool
	writable  map[pubkey.PublicKey]bool
	logs      *[]string
	rent      Rent
	depth     int
	log       logrus.FieldLogger
}

func newInvokeContext(ledger repositories.AccountStore, programID pubkey.PublicKey, signers, writable map[pubkey.PublicKey]bool, logs *[]string, rent Rent, log logrus.FieldLogger) *InvokeContext {
	return &InvokeContext{
		ledger:    ledger,
		programID: programID,
		signers:   signers,
		writable:  writable,
		logs:      logs,
		rent:      rent,
		depth:     1,
		log:       log,
	}
}

func (c *InvokeContext) ProgramID() pubkey.PublicKey {
	return c.programID
}

func (c *InvokeContext) Rent() Rent {
	return c.rent
}

func (c *InvokeContext) IsSigner(key pubkey.PublicKey) bool {
	return c.signers[key]
}

func (c *InvokeContext) IsWritable(key pubkey.PublicKey) bool {
	return c.writable[key]
}

// Get returns the account at address or repositories.ErrNotFound.
func (c *InvokeContext) Get(address pubkey.PublicKey) (*models.Account, error) {
	return c.ledger.Get(address)
}

func (c *InvokeContext) Exists(address pubkey.PublicKey) (bool, error) {
	_, err := c.ledger.Get(address)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Msg appends a program log line.
func (c *InvokeContext) Msg(format string, args ...interface{}) {
	line := "Program log: " + fmt.Sprintf(format, args...)
	*c.logs = append(*c.logs, line)
	c.log.WithField("program", c.programID.String()).Debug(line)
}

// Store writes back the data of an existing account owned by the running
// program. Lamports cannot be changed through Store.
func (c *InvokeContext) Store(account *models.Account) error {
	existing, err := c.ledger.Get(account.Address)
	if err != nil {
		return fmt.Errorf("store %s: %w", account.Address, err)
	}
	if existing.Owner != c.programID || account.Owner != existing.Owner {
		return fmt.Errorf("%w: %s", ErrExternalAccountModified, account.Address)
	}
	if !c.writable[account.Address] {
		return fmt.Errorf("%w: %s", ErrReadonlyDataModified, account.Address)
	}
	existing.Data = account.Data
	return c.ledger.Put(existing)
}

// Invoke runs fn as program callee with the current signer set.
func (c *InvokeContext) Invoke(callee pubkey.PublicKey, fn func(*InvokeContext) error) error {
	return c.InvokeSigned(callee, nil, fn)
}

// InvokeSigned runs fn as program callee. Every entry of signerSeeds is
// turned into an address of the calling program and counts as a signer for
// the duration of the call.
func (c *InvokeContext) InvokeSigned(callee pubkey.PublicKey, signerSeeds [][][]byte, fn func(*InvokeContext) error) error {
	if c.depth >= maxInvokeDepth {
		return fmt.Errorf("%w: max invoke depth %d reached", ErrPrivilegeEscalation, maxInvokeDepth)
	}
	signers := make(map[pubkey.PublicKey]bool, len(c.signers)+len(signerSeeds))
	for k, v := range c.signers {
		signers[k] = v
	}
	for _, seeds := range signerSeeds {
		addr, err := pubkey.CreateProgramAddress(seeds, c.programID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
		}
		signers[addr] = true
	}
	child := &InvokeContext{
		ledger:    c.ledger,
		programID: callee,
		signers:   signers,
		writable:  c.writable,
		logs:      c.logs,
		rent:      c.rent,
		depth:     c.depth + 1,
		log:       c.log,
	}
	*c.logs = append(*c.logs, fmt.Sprintf("Program %s invoke [%d]", callee, child.depth))
	if err := fn(child); err != nil {
		*c.logs = append(*c.logs, fmt.Sprintf("Program %s failed: %v", callee, err))
		return err
	}
	*c.logs = append(*c.logs, fmt.Sprintf("Program %s success", callee))
	return nil
}

// CreateAccount allocates a new account holding data, funded by payer with
// the rent-exempt minimum. Both payer and the new address must sign; a
// program signs for its derived addresses through InvokeSigned.
func (c *InvokeContext) CreateAccount(payer, address, owner pubkey.PublicKey, data []byte) error {
	if !c.signers[payer] || !c.signers[address] {
		return fmt.Errorf("%w: create %s", ErrPrivilegeEscalation, address)
	}
	if !c.writable[payer] || !c.writable[address] {
		return fmt.Errorf("%w: create %s", ErrReadonlyDataModified, address)
	}
	exists, err := c.Exists(address)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, address)
	}
	lamports := c.rent.MinimumBalance(len(data))
	if err := c.debit(payer, lamports); err != nil {
		return err
	}
	return c.ledger.Put(&models.Account{
		Address:  address,
		Owner:    owner,
		Lamports: lamports,
		Data:     append([]byte(nil), data...),
	})
}

// CreateDerivedAccount creates an account at one of the running program's
// derived addresses, owned by the running program.
func (c *InvokeContext) CreateDerivedAccount(payer, address pubkey.PublicKey, signerSeeds [][]byte, data []byte) error {
	owner := c.programID
	return c.InvokeSigned(pubkey.SystemProgramID, [][][]byte{signerSeeds}, func(sys *InvokeContext) error {
		return sys.CreateAccount(payer, address, owner, data)
	})
}

// CloseAccount moves every lamport of address to destination and removes
// the account.
func (c *InvokeContext) CloseAccount(address, destination pubkey.PublicKey) error {
	account, err := c.ledger.Get(address)
	if err != nil {
		return fmt.Errorf("close %s: %w", address, err)
	}
	if account.Owner != c.programID {
		return fmt.Errorf("%w: %s", ErrExternalAccountModified, address)
	}
	if !c.writable[address] || !c.writable[destination] {
		return fmt.Errorf("%w: close %s", ErrReadonlyDataModified, address)
	}
	if err := c.credit(destination, account.Lamports); err != nil {
		return err
	}
	return c.ledger.Delete(address)
}

// Realloc replaces the data of an owned account with data of a possibly
// different size. The balance is moved to the new rent-exempt minimum: payer
// funds any shortfall and receives any surplus.
func (c *InvokeContext) Realloc(address, payer pubkey.PublicKey, data []byte) error {
	if address == payer {
		return fmt.Errorf("%w: account cannot fund its own realloc", ErrPrivilegeEscalation)
	}
	account, err := c.ledger.Get(address)
	if err != nil {
		return fmt.Errorf("realloc %s: %w", address, err)
	}
	if account.Owner != c.programID {
		return fmt.Errorf("%w: %s", ErrExternalAccountModified, address)
	}
	if !c.writable[address] {
		return fmt.Errorf("%w: %s", ErrReadonlyDataModified, address)
	}
	required := c.rent.MinimumBalance(len(data))
	switch {
	case account.Lamports < required:
		if !c.signers[payer] {
			return fmt.Errorf("%w: realloc payer %s", ErrPrivilegeEscalation, payer)
		}
		if err := c.debit(payer, required-account.Lamports); err != nil {
			return err
		}
	case account.Lamports > required:
		if err := c.credit(payer, account.Lamports-required); err != nil {
			return err
		}
	}
	account.Lamports = required
	account.Data = append([]byte(nil), data...)
	return c.ledger.Put(account)
}

// debit takes lamports from a system-owned signer.
func (c *InvokeContext) debit(from pubkey.PublicKey, lamports uint64) error {
	if !c.signers[from] {
		return fmt.Errorf("%w: debit %s", ErrPrivilegeEscalation, from)
	}
	if !c.writable[from] {
		return fmt.Errorf("%w: debit %s", ErrReadonlyDataModified, from)
	}
	account, err := c.ledger.Get(from)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s has no balance", ErrInsufficientFunds, from)
	}
	if err != nil {
		return err
	}
	if account.Owner != pubkey.SystemProgramID {
		return fmt.Errorf("%w: %s is not a system account", ErrExternalAccountModified, from)
	}
	if account.Lamports < lamports {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from, account.Lamports, lamports)
	}
	account.Lamports -= lamports
	return c.ledger.Put(account)
}

func (c *InvokeContext) credit(to pubkey.PublicKey, lamports uint64) error {
	if !c.writable[to] {
		return fmt.Errorf("%w: credit %s", ErrReadonlyDataModified, to)
	}
	account, err := c.ledger.Get(to)
	if errors.Is(err, repositories.ErrNotFound) {
		account = &models.Account{Address: to, Owner: pubkey.SystemProgramID}
	} else if err != nil {
		return err
	}
	if account.Lamports > math.MaxUint64-lamports {
		return ErrArithmeticOverflow
	}
	account.Lamports += lamports
	return c.ledger.Put(account)
}
