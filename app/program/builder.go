package program

import (
	"moviereview/app/pubkey"
	"moviereview/app/runtime"
	"moviereview/app/services"
	"moviereview/app/token"
)

// Builder assembles instructions for one deployment of the program. Every
// derived account is computed here; the accounts structs let callers
// override any of them.
type Builder struct {
	addresses services.Addresses
}

func NewBuilder(programID pubkey.PublicKey) *Builder {
	return &Builder{addresses: services.Addresses{ProgramID: programID}}
}

func (b *Builder) ProgramID() pubkey.PublicKey {
	return b.addresses.ProgramID
}

func (b *Builder) Addresses() services.Addresses {
	return b.addresses
}

// Zero-valued addresses in the accounts structs below are derived.
type InitializeTokenMintAccounts struct {
	Mint  pubkey.PublicKey
	Payer pubkey.PublicKey
}

type AddMovieReviewAccounts struct {
	Review       pubkey.PublicKey
	Initializer  pubkey.PublicKey
	Mint         pubkey.PublicKey
	TokenAccount pubkey.PublicKey
	Counter      pubkey.PublicKey
}

type UpdateMovieReviewAccounts struct {
	Review      pubkey.PublicKey
	Initializer pubkey.PublicKey
}

type DeleteMovieReviewAccounts struct {
	Review      pubkey.PublicKey
	Initializer pubkey.PublicKey
}

// AddCommentAccounts needs CounterValue, the counter as currently stored,
// to derive the address of the new comment.
type AddCommentAccounts struct {
	Comment      pubkey.PublicKey
	Review       pubkey.PublicKey
	Counter      pubkey.PublicKey
	Initializer  pubkey.PublicKey
	CounterValue uint64
}

func (b *Builder) InitializeTokenMint(accounts InitializeTokenMintAccounts) (runtime.Instruction, error) {
	if accounts.Mint.IsZero() {
		mint, _, err := b.addresses.Mint()
		if err != nil {
			return runtime.Instruction{}, err
		}
		accounts.Mint = mint
	}
	return runtime.Instruction{
		ProgramID: b.addresses.ProgramID,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(accounts.Mint, false, true),
			runtime.Meta(accounts.Payer, true, true),
			runtime.Meta(pubkey.TokenProgramID, false, false),
			runtime.Meta(pubkey.SystemProgramID, false, false),
		},
		Data: EncodeInitializeTokenMint(),
	}, nil
}

func (b *Builder) AddMovieReview(accounts AddMovieReviewAccounts, args ReviewArgs) (runtime.Instruction, error) {
	var err error
	if accounts.Review.IsZero() {
		if accounts.Review, _, err = b.addresses.Review(args.Title, accounts.Initializer); err != nil {
			return runtime.Instruction{}, err
		}
	}
	if accounts.Mint.IsZero() {
		if accounts.Mint, _, err = b.addresses.Mint(); err != nil {
			return runtime.Instruction{}, err
		}
	}
	if accounts.TokenAccount.IsZero() {
		if accounts.TokenAccount, _, err = token.DeriveAssociatedAddress(accounts.Mint, accounts.Initializer); err != nil {
			return runtime.Instruction{}, err
		}
	}
	if accounts.Counter.IsZero() {
		if accounts.Counter, _, err = b.addresses.Counter(accounts.Review); err != nil {
			return runtime.Instruction{}, err
		}
	}
	return runtime.Instruction{
		ProgramID: b.addresses.ProgramID,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(accounts.Review, false, true),
			runtime.Meta(accounts.Initializer, true, true),
			runtime.Meta(accounts.Mint, false, true),
			runtime.Meta(accounts.TokenAccount, false, true),
			runtime.Meta(accounts.Counter, false, true),
			runtime.Meta(pubkey.TokenProgramID, false, false),
			runtime.Meta(pubkey.AssociatedTokenProgramID, false, false),
			runtime.Meta(pubkey.SystemProgramID, false, false),
		},
		Data: EncodeReviewArgs(AddMovieReview, args),
	}, nil
}

func (b *Builder) UpdateMovieReview(accounts UpdateMovieReviewAccounts, args ReviewArgs) (runtime.Instruction, error) {
	if accounts.Review.IsZero() {
		review, _, err := b.addresses.Review(args.Title, accounts.Initializer)
		if err != nil {
			return runtime.Instruction{}, err
		}
		accounts.Review = review
	}
	return runtime.Instruction{
		ProgramID: b.addresses.ProgramID,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(accounts.Review, false, true),
			runtime.Meta(accounts.Initializer, true, true),
			runtime.Meta(pubkey.SystemProgramID, false, false),
		},
		Data: EncodeReviewArgs(UpdateMovieReview, args),
	}, nil
}

func (b *Builder) DeleteMovieReview(accounts DeleteMovieReviewAccounts, args DeleteReviewArgs) (runtime.Instruction, error) {
	if accounts.Review.IsZero() {
		review, _, err := b.addresses.Review(args.Title, accounts.Initializer)
		if err != nil {
			return runtime.Instruction{}, err
		}
		accounts.Review = review
	}
	return runtime.Instruction{
		ProgramID: b.addresses.ProgramID,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(accounts.Review, false, true),
			runtime.Meta(accounts.Initializer, true, true),
		},
		Data: EncodeDeleteReviewArgs(args),
	}, nil
}

func (b *Builder) AddComment(accounts AddCommentAccounts, args CommentArgs) (runtime.Instruction, error) {
	var err error
	if accounts.Counter.IsZero() {
		if accounts.Counter, _, err = b.addresses.Counter(accounts.Review); err != nil {
			return runtime.Instruction{}, err
		}
	}
	if accounts.Comment.IsZero() {
		if accounts.Comment, _, err = b.addresses.Comment(accounts.Review, accounts.CounterValue); err != nil {
			return runtime.Instruction{}, err
		}
	}
	return runtime.Instruction{
		ProgramID: b.addresses.ProgramID,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(accounts.Comment, false, true),
			runtime.Meta(accounts.Review, false, false),
			runtime.Meta(accounts.Counter, false, true),
			runtime.Meta(accounts.Initializer, true, true),
			runtime.Meta(pubkey.SystemProgramID, false, false),
		},
		Data: EncodeCommentArgs(args),
	}, nil
}
