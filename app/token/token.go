// Package token is a minimal fungible-token program: mints, token accounts
// and associated token accounts. Other programs reach it through Program
// from inside their own invocation.
package token

import (
	"errors"
	"fmt"
	"math"

	"moviereview/app/models"
	"moviereview/app/pubkey"
	"moviereview/app/repositories"
	"moviereview/app/runtime"
)

const (
	MintSpace    = pubkey.PublicKeyLength + 8 + 1 + 1
	AccountSpace = pubkey.PublicKeyLength + pubkey.PublicKeyLength + 8
)

var (
	ErrNotTokenAccount    = errors.New("account is not owned by the token program")
	ErrUninitializedMint  = errors.New("mint is not initialized")
	ErrMintAlreadyInUse   = errors.New("mint is already initialized")
	ErrMintMismatch       = errors.New("account not associated with this mint")
	ErrOwnerMismatch      = errors.New("owner does not match")
	ErrMissingAuthority   = errors.New("mint authority did not sign")
	ErrOverflow           = errors.New("operation overflowed")
	ErrInvalidAccountData = errors.New("invalid token account data")
	ErrAssociatedMismatch = errors.New("address is not the associated token account")
)

// Mint describes a token type.
type Mint struct {
	Authority     pubkey.PublicKey `json:"mintAuthority"`
	Supply        uint64           `json:"supply"`
	Decimals      uint8            `json:"decimals"`
	IsInitialized bool             `json:"isInitialized"`
}

// Account holds a balance of one mint for one owner.
type Account struct {
	Mint   pubkey.PublicKey `json:"mint"`
	Owner  pubkey.PublicKey `json:"owner"`
	Amount uint64           `json:"amount"`
}

func (m *Mint) MarshalBinary() ([]byte, error) {
	return models.NewWriter(MintSpace).
		PublicKey(m.Authority).
		Uint64(m.Supply).
		Uint8(m.Decimals).
		Bool(m.IsInitialized).
		Bytes(), nil
}

func (m *Mint) UnmarshalBinary(data []byte) error {
	if len(data) != MintSpace {
		return fmt.Errorf("%w: mint has %d bytes", ErrInvalidAccountData, len(data))
	}
	rd := models.NewReader(data)
	m.Authority = rd.PublicKey()
	m.Supply = rd.Uint64()
	m.Decimals = rd.Uint8()
	m.IsInitialized = rd.Bool()
	return rd.Err()
}

func (a *Account) MarshalBinary() ([]byte, error) {
	return models.NewWriter(AccountSpace).
		PublicKey(a.Mint).
		PublicKey(a.Owner).
		Uint64(a.Amount).
		Bytes(), nil
}

func (a *Account) UnmarshalBinary(data []byte) error {
	if len(data) != AccountSpace {
		return fmt.Errorf("%w: token account has %d bytes", ErrInvalidAccountData, len(data))
	}
	rd := models.NewReader(data)
	a.Mint = rd.PublicKey()
	a.Owner = rd.PublicKey()
	a.Amount = rd.Uint64()
	return rd.Err()
}

// DeriveAssociatedAddress returns the canonical token account of owner for mint.
func DeriveAssociatedAddress(mint, owner pubkey.PublicKey) (pubkey.PublicKey, uint8, error) {
	return pubkey.FindProgramAddress(
		[][]byte{owner.Bytes(), pubkey.TokenProgramID.Bytes(), mint.Bytes()},
		pubkey.AssociatedTokenProgramID,
	)
}

// LoadMint decodes the mint stored at address.
func LoadMint(accounts repositories.AccountReader, address pubkey.PublicKey) (*Mint, error) {
	account, err := accounts.Get(address)
	if err != nil {
		return nil, err
	}
	if account.Owner != pubkey.TokenProgramID {
		return nil, fmt.Errorf("%w: %s", ErrNotTokenAccount, address)
	}
	var m Mint
	if err := m.UnmarshalBinary(account.Data); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadAccount decodes the token account stored at address.
func LoadAccount(accounts repositories.AccountReader, address pubkey.PublicKey) (*Account, error) {
	account, err := accounts.Get(address)
	if err != nil {
		return nil, err
	}
	if account.Owner != pubkey.TokenProgramID {
		return nil, fmt.Errorf("%w: %s", ErrNotTokenAccount, address)
	}
	var a Account
	if err := a.UnmarshalBinary(account.Data); err != nil {
		return nil, err
	}
	return &a, nil
}

// Program is the entry point other programs call.
type Program struct{}

func NewProgram() *Program {
	return &Program{}
}

func (p *Program) DeriveAssociatedAddress(mint, owner pubkey.PublicKey) (pubkey.PublicKey, error) {
	addr, _, err := DeriveAssociatedAddress(mint, owner)
	return addr, err
}

func (p *Program) LoadMint(accounts repositories.AccountReader, address pubkey.PublicKey) (*Mint, error) {
	return LoadMint(accounts, address)
}

func (p *Program) LoadAccount(accounts repositories.AccountReader, address pubkey.PublicKey) (*Account, error) {
	return LoadAccount(accounts, address)
}

// CreateMint allocates and initializes a mint at address. mintSeeds are the
// caller's signer seeds for address when it is a derived address; pass nil
// when address signed the transaction itself.
func (p *Program) CreateMint(ctx *runtime.InvokeContext, payer, address, authority pubkey.PublicKey, decimals uint8, mintSeeds [][]byte) error {
	var signerSeeds [][][]byte
	if mintSeeds != nil {
		signerSeeds = [][][]byte{mintSeeds}
	}
	return ctx.InvokeSigned(pubkey.TokenProgramID, signerSeeds, func(tc *runtime.InvokeContext) error {
		if existing, err := LoadMint(tc, address); err == nil && existing.IsInitialized {
			return fmt.Errorf("%w: %s", ErrMintAlreadyInUse, address)
		}
		data, _ := (&Mint{Authority: authority, Decimals: decimals, IsInitialized: true}).MarshalBinary()
		if err := tc.Invoke(pubkey.SystemProgramID, func(sys *runtime.InvokeContext) error {
			return sys.CreateAccount(payer, address, pubkey.TokenProgramID, data)
		}); err != nil {
			return err
		}
		tc.Msg("Instruction: InitializeMint2")
		return nil
	})
}

// CreateAssociatedAccount creates the associated token account of owner for
// mint, paid by payer, and returns its address.
func (p *Program) CreateAssociatedAccount(ctx *runtime.InvokeContext, payer, owner, mint pubkey.PublicKey) (pubkey.PublicKey, error) {
	address, bump, err := DeriveAssociatedAddress(mint, owner)
	if err != nil {
		return pubkey.PublicKey{}, err
	}
	if _, err := LoadMint(ctx, mint); err != nil {
		return pubkey.PublicKey{}, fmt.Errorf("associated account mint: %w", err)
	}
	if !ctx.IsWritable(address) {
		return pubkey.PublicKey{}, fmt.Errorf("%w: %s is not writable", ErrAssociatedMismatch, address)
	}
	err = ctx.Invoke(pubkey.AssociatedTokenProgramID, func(ata *runtime.InvokeContext) error {
		seeds := [][]byte{owner.Bytes(), pubkey.TokenProgramID.Bytes(), mint.Bytes(), {bump}}
		data, _ := (&Account{Mint: mint, Owner: owner}).MarshalBinary()
		return ata.InvokeSigned(pubkey.SystemProgramID, [][][]byte{seeds}, func(sys *runtime.InvokeContext) error {
			return sys.CreateAccount(payer, address, pubkey.TokenProgramID, data)
		})
	})
	return address, err
}

// MintTo increases the supply of mint by amount and credits destination.
// authoritySeeds are the caller's signer seeds for the mint authority.
func (p *Program) MintTo(ctx *runtime.InvokeContext, mint, destination, authority pubkey.PublicKey, amount uint64, authoritySeeds [][]byte) error {
	var signerSeeds [][][]byte
	if authoritySeeds != nil {
		signerSeeds = [][][]byte{authoritySeeds}
	}
	return ctx.InvokeSigned(pubkey.TokenProgramID, signerSeeds, func(tc *runtime.InvokeContext) error {
		tc.Msg("Instruction: MintTo")
		m, err := LoadMint(tc, mint)
		if err != nil {
			return err
		}
		if !m.IsInitialized {
			return ErrUninitializedMint
		}
		if m.Authority != authority {
			return fmt.Errorf("%w: mint authority is %s", ErrOwnerMismatch, m.Authority)
		}
		if !tc.IsSigner(authority) {
			return ErrMissingAuthority
		}
		dest, err := LoadAccount(tc, destination)
		if err != nil {
			return err
		}
		if dest.Mint != mint {
			return ErrMintMismatch
		}
		if m.Supply > math.MaxUint64-amount || dest.Amount > math.MaxUint64-amount {
			return ErrOverflow
		}
		m.Supply += amount
		dest.Amount += amount
		if err := p.store(tc, mint, m); err != nil {
			return err
		}
		return p.store(tc, destination, dest)
	})
}

type binaryMarshaler interface {
	MarshalBinary() ([]byte, error)
}

func (p *Program) store(tc *runtime.InvokeContext, address pubkey.PublicKey, v binaryMarshaler) error {
	data, err := v.MarshalBinary()
	if err != nil {
		return err
	}
	return tc.Store(&models.Account{Address: address, Owner: pubkey.TokenProgramID, Data: data})
}
