package services

import (
	"errors"

	"moviereview/app/models"
	"moviereview/app/pubkey"
	"moviereview/app/repositories"
)

// Addresses derives the accounts of one deployment of the review program.
type Addresses struct {
	ProgramID pubkey.PublicKey
}

func (a Addresses) Review(title string, reviewer pubkey.PublicKey) (pubkey.PublicKey, uint8, error) {
	addr, bump, err := pubkey.FindProgramAddress(models.ReviewSeeds(title, reviewer), a.ProgramID)
	if err != nil {
		return pubkey.PublicKey{}, 0, Validation("title cannot be used as a seed: %v", err)
	}
	return addr, bump, nil
}

func (a Addresses) Counter(review pubkey.PublicKey) (pubkey.PublicKey, uint8, error) {
	return pubkey.FindProgramAddress(models.CounterSeeds(review), a.ProgramID)
}

func (a Addresses) Comment(review pubkey.PublicKey, value uint64) (pubkey.PublicKey, uint8, error) {
	return pubkey.FindProgramAddress(models.CommentSeeds(review, value), a.ProgramID)
}

func (a Addresses) Mint() (pubkey.PublicKey, uint8, error) {
	return pubkey.FindProgramAddress(models.MintSeeds(), a.ProgramID)
}

// loadOwned fetches an account that must exist and belong to programID.
func loadOwned(accounts repositories.AccountReader, programID, address pubkey.PublicKey, what string) (*models.Account, error) {
	account, err := accounts.Get(address)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NotFound("%s %s does not exist", what, address)
	}
	if err != nil {
		return nil, err
	}
	if account.Owner != programID {
		return nil, InvalidOwner("%s %s is owned by %s", what, address, account.Owner)
	}
	return account, nil
}

func exists(accounts repositories.AccountReader, address pubkey.PublicKey) (bool, error) {
	_, err := accounts.Get(address)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
