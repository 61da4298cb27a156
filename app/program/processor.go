// Package program is the entry point of the movie review program: it decodes
// instructions, checks every account against its expected role and hands
// the call to the services.
package program

import (
	"time"

	"moviereview/app/pubkey"
	"moviereview/app/runtime"
	"moviereview/app/services"
	"moviereview/app/token"
)

// Observer is told about every processed instruction.
type Observer interface {
	ObserveInstruction(name string, duration time.Duration, err error)
}

// Processor implements runtime.Processor for the movie review program.
type Processor struct {
	addresses services.Addresses
	reviews   *services.ReviewService
	comments  *services.CommentService
	rewards   *services.RewardService
	observer  Observer
}

type Option func(*Processor)

func WithObserver(o Observer) Option {
	return func(p *Processor) { p.observer = o }
}

// New wires the services of the program deployed at programID.
func New(programID pubkey.PublicKey, tokens services.TokenProgram, opts ...Option) *Processor {
	comments := services.NewCommentService(programID)
	rewards := services.NewRewardService(programID, tokens)
	p := &Processor{
		addresses: services.Addresses{ProgramID: programID},
		reviews:   services.NewReviewService(programID, comments, rewards),
		comments:  comments,
		rewards:   rewards,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register installs the program and its token collaborator in rt.
func Register(rt *runtime.Runtime, programID pubkey.PublicKey, opts ...Option) *Processor {
	p := New(programID, token.NewProgram(), opts...)
	rt.Register(programID, p)
	return p
}

func (p *Processor) Reviews() *services.ReviewService   { return p.reviews }
func (p *Processor) Comments() *services.CommentService { return p.comments }
func (p *Processor) Rewards() *services.RewardService   { return p.rewards }

func (p *Processor) Process(ctx *runtime.InvokeContext, accounts []runtime.AccountMeta, data []byte) error {
	name, args, err := decodeName(data)
	if err != nil {
		return err
	}
	start := time.Now()
	err = p.dispatch(ctx, name, accounts, args)
	if p.observer != nil {
		p.observer.ObserveInstruction(name, time.Since(start), err)
	}
	return err
}

func (p *Processor) dispatch(ctx *runtime.InvokeContext, name string, accounts []runtime.AccountMeta, args []byte) error {
	switch name {
	case InitializeTokenMint:
		ctx.Msg("Instruction: InitializeTokenMint")
		return p.initializeTokenMint(ctx, accounts)
	case AddMovieReview:
		ctx.Msg("Instruction: AddMovieReview")
		return p.addMovieReview(ctx, accounts, args)
	case UpdateMovieReview:
		ctx.Msg("Instruction: UpdateMovieReview")
		return p.updateMovieReview(ctx, accounts, args)
	case DeleteMovieReview:
		ctx.Msg("Instruction: DeleteMovieReview")
		return p.deleteMovieReview(ctx, accounts, args)
	case AddComment:
		ctx.Msg("Instruction: AddComment")
		return p.addComment(ctx, accounts, args)
	}
	return services.Validation("unknown instruction %s", name)
}

func (p *Processor) initializeTokenMint(ctx *runtime.InvokeContext, accounts []runtime.AccountMeta) error {
	if err := expectCount(accounts, 4); err != nil {
		return err
	}
	mint, _, err := p.addresses.Mint()
	if err != nil {
		return err
	}
	if err := firstError(
		expectAddress(accounts[0], "mint", mint),
		expectWritable(accounts[0], "mint"),
		expectSigner(accounts[1], "payer"),
		expectWritable(accounts[1], "payer"),
		expectAddress(accounts[2], "token_program", pubkey.TokenProgramID),
		expectAddress(accounts[3], "system_program", pubkey.SystemProgramID),
	); err != nil {
		return err
	}
	_, err = p.rewards.InitializeMint(ctx, accounts[1].PublicKey)
	return err
}

func (p *Processor) addMovieReview(ctx *runtime.InvokeContext, accounts []runtime.AccountMeta, data []byte) error {
	args, err := decodeReviewArgs(data)
	if err != nil {
		return err
	}
	if err := expectCount(accounts, 8); err != nil {
		return err
	}
	initializer := accounts[1].PublicKey
	review, _, err := p.addresses.Review(args.Title, initializer)
	if err != nil {
		return err
	}
	mint, _, err := p.addresses.Mint()
	if err != nil {
		return err
	}
	counter, _, err := p.addresses.Counter(review)
	if err != nil {
		return err
	}
	if err := firstError(
		expectAddress(accounts[0], "movie_review", review),
		expectWritable(accounts[0], "movie_review"),
		expectSigner(accounts[1], "initializer"),
		expectWritable(accounts[1], "initializer"),
		expectAddress(accounts[2], "mint", mint),
		expectWritable(accounts[2], "mint"),
		expectWritable(accounts[3], "token_account"),
		expectAddress(accounts[4], "comment_counter", counter),
		expectWritable(accounts[4], "comment_counter"),
		expectAddress(accounts[5], "token_program", pubkey.TokenProgramID),
		expectAddress(accounts[6], "associated_token_program", pubkey.AssociatedTokenProgramID),
		expectAddress(accounts[7], "system_program", pubkey.SystemProgramID),
	); err != nil {
		return err
	}
	_, err = p.reviews.AddReview(ctx, initializer, accounts[3].PublicKey, args.Title, args.Description, args.Rating)
	return err
}

func (p *Processor) updateMovieReview(ctx *runtime.InvokeContext, accounts []runtime.AccountMeta, data []byte) error {
	args, err := decodeReviewArgs(data)
	if err != nil {
		return err
	}
	if err := expectCount(accounts, 3); err != nil {
		return err
	}
	initializer := accounts[1].PublicKey
	review, _, err := p.addresses.Review(args.Title, initializer)
	if err != nil {
		return err
	}
	if err := firstError(
		expectAddress(accounts[0], "movie_review", review),
		expectWritable(accounts[0], "movie_review"),
		expectSigner(accounts[1], "initializer"),
		expectWritable(accounts[1], "initializer"),
		expectAddress(accounts[2], "system_program", pubkey.SystemProgramID),
	); err != nil {
		return err
	}
	return p.reviews.UpdateReview(ctx, initializer, args.Title, args.Description, args.Rating)
}

func (p *Processor) deleteMovieReview(ctx *runtime.InvokeContext, accounts []runtime.AccountMeta, data []byte) error {
	args, err := decodeDeleteReviewArgs(data)
	if err != nil {
		return err
	}
	if err := expectCount(accounts, 2); err != nil {
		return err
	}
	initializer := accounts[1].PublicKey
	review, _, err := p.addresses.Review(args.Title, initializer)
	if err != nil {
		return err
	}
	if err := firstError(
		expectAddress(accounts[0], "movie_review", review),
		expectWritable(accounts[0], "movie_review"),
		expectSigner(accounts[1], "initializer"),
		expectWritable(accounts[1], "initializer"),
	); err != nil {
		return err
	}
	return p.reviews.DeleteReview(ctx, initializer, args.Title)
}

func (p *Processor) addComment(ctx *runtime.InvokeContext, accounts []runtime.AccountMeta, data []byte) error {
	args, err := decodeCommentArgs(data)
	if err != nil {
		return err
	}
	if err := expectCount(accounts, 5); err != nil {
		return err
	}
	review := accounts[1].PublicKey
	counter, _, err := p.addresses.Counter(review)
	if err != nil {
		return err
	}
	value, err := p.comments.Counter(ctx, review)
	if err != nil {
		return err
	}
	comment, _, err := p.addresses.Comment(review, value)
	if err != nil {
		return err
	}
	if err := firstError(
		expectAddress(accounts[0], "movie_comment", comment),
		expectWritable(accounts[0], "movie_comment"),
		expectAddress(accounts[2], "comment_counter", counter),
		expectWritable(accounts[2], "comment_counter"),
		expectSigner(accounts[3], "initializer"),
		expectWritable(accounts[3], "initializer"),
		expectAddress(accounts[4], "system_program", pubkey.SystemProgramID),
	); err != nil {
		return err
	}
	_, _, err = p.comments.AddComment(ctx, accounts[3].PublicKey, review, args.Comment)
	return err
}
