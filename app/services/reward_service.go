package services

import (
	"errors"

	"moviereview/app/models"
	"moviereview/app/pubkey"
	"moviereview/app/repositories"
	"moviereview/app/runtime"
)

// RewardService controls the reward mint. The mint is its own authority, so
// only this program can mint, by signing with the mint seeds.
type RewardService struct {
	addresses Addresses
	token     TokenProgram
}

func NewRewardService(programID pubkey.PublicKey, token TokenProgram) *RewardService {
	return &RewardService{
		addresses: Addresses{ProgramID: programID},
		token:     token,
	}
}

// InitializeMint creates the reward mint, paid by payer.
func (s *RewardService) InitializeMint(ctx *runtime.InvokeContext, payer pubkey.PublicKey) (pubkey.PublicKey, error) {
	mint, bump, err := s.addresses.Mint()
	if err != nil {
		return pubkey.PublicKey{}, err
	}
	found, err := exists(ctx, mint)
	if err != nil {
		return pubkey.PublicKey{}, err
	}
	if found {
		return pubkey.PublicKey{}, AlreadyExists("reward mint %s is already initialized", mint)
	}
	if err := s.token.CreateMint(ctx, payer, mint, mint, models.RewardDecimals, models.WithBump(models.MintSeeds(), bump)); err != nil {
		return pubkey.PublicKey{}, err
	}
	ctx.Msg("Token mint initialized")
	return mint, nil
}

// IssueReward mints the fixed review reward to the associated token account
// of author, creating that account first when needed.
func (s *RewardService) IssueReward(ctx *runtime.InvokeContext, author, tokenAccount pubkey.PublicKey) error {
	mint, bump, err := s.addresses.Mint()
	if err != nil {
		return err
	}
	if _, err := s.token.LoadMint(ctx, mint); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return NotFound("reward mint %s is not initialized", mint)
		}
		return InvalidOwner("reward mint %s: %v", mint, err)
	}

	expected, err := s.token.DeriveAssociatedAddress(mint, author)
	if err != nil {
		return err
	}
	if tokenAccount != expected {
		return SeedMismatch("token account %s is not the associated account %s", tokenAccount, expected)
	}

	found, err := exists(ctx, tokenAccount)
	if err != nil {
		return err
	}
	if found {
		account, err := s.token.LoadAccount(ctx, tokenAccount)
		if err != nil {
			return InvalidOwner("token account %s: %v", tokenAccount, err)
		}
		if account.Owner != author || account.Mint != mint {
			return Unauthorized("token account %s belongs to %s for mint %s", tokenAccount, account.Owner, account.Mint)
		}
	} else if _, err := s.token.CreateAssociatedAccount(ctx, author, author, mint); err != nil {
		return err
	}

	if err := s.token.MintTo(ctx, mint, tokenAccount, mint, models.RewardAmount, models.WithBump(models.MintSeeds(), bump)); err != nil {
		return err
	}
	ctx.Msg("Minted tokens")
	return nil
}

// Balance returns the reward token balance of owner, zero when the owner has
// no associated token account.
func (s *RewardService) Balance(accounts repositories.AccountReader, owner pubkey.PublicKey) (uint64, error) {
	mint, _, err := s.addresses.Mint()
	if err != nil {
		return 0, err
	}
	address, err := s.token.DeriveAssociatedAddress(mint, owner)
	if err != nil {
		return 0, err
	}
	account, err := s.token.LoadAccount(accounts, address)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Amount, nil
}
