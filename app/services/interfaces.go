package services

import (
	"moviereview/app/pubkey"
	"moviereview/app/repositories"
	"moviereview/app/runtime"
	"moviereview/app/token"
)

// TokenProgram is the part of the token program the reward controller uses.
type TokenProgram interface {
	DeriveAssociatedAddress(mint, owner pubkey.PublicKey) (pubkey.PublicKey, error)
	LoadMint(accounts repositories.AccountReader, address pubkey.PublicKey) (*token.Mint, error)
	LoadAccount(accounts repositories.AccountReader, address pubkey.PublicKey) (*token.Account, error)
	CreateMint(ctx *runtime.InvokeContext, payer, mint, authority pubkey.PublicKey, decimals uint8, mintSeeds [][]byte) error
	CreateAssociatedAccount(ctx *runtime.InvokeContext, payer, owner, mint pubkey.PublicKey) (pubkey.PublicKey, error)
	MintTo(ctx *runtime.InvokeContext, mint, destination, authority pubkey.PublicKey, amount uint64, authoritySeeds [][]byte) error
}
