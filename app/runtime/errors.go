package runtime

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTransaction           = errors.New("transaction contains no instructions")
	ErrMissingSignature           = errors.New("transaction is missing a required signature")
	ErrSignatureVerification      = errors.New("transaction signature verification failure")
	ErrAlreadyProcessed           = errors.New("transaction has already been processed")
	ErrBlockhashNotFound          = errors.New("blockhash not found")
	ErrUnknownProgram             = errors.New("attempt to load a program that does not exist")
	ErrInsufficientFunds          = errors.New("insufficient funds")
	ErrAccountAlreadyInUse        = errors.New("account already in use")
	ErrReadonlyDataModified       = errors.New("instruction modified data of a read-only account")
	ErrExternalAccountModified    = errors.New("instruction modified data of an account it does not own")
	ErrPrivilegeEscalation        = errors.New("cross-program invocation with unauthorized signer or writable account")
	ErrInvalidSeeds               = errors.New("provided seeds do not result in a valid address")
	ErrArithmeticOverflow         = errors.New("arithmetic overflow")
	ErrAirdropLimit               = errors.New("airdrop request exceeds the configured limit")
	ErrInvalidTransactionEncoding = errors.New("invalid transaction encoding")
)

// InstructionError reports which instruction of a transaction failed.
type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d: %v", e.Index, e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}
