package services

import (
	"errors"
	"math"

	"moviereview/app/models"
	"moviereview/app/pubkey"
	"moviereview/app/repositories"
	"moviereview/app/runtime"
)

// CommentService handles comment counters and comments
type CommentService struct {
	addresses Addresses
}

// NewCommentService creates a new CommentService
func NewCommentService(programID pubkey.PublicKey) *CommentService {
	return &CommentService{addresses: Addresses{ProgramID: programID}}
}

// EnsureCounter creates the comment counter of review with value zero unless
// it already exists. It returns the counter address either way.
func (s *CommentService) EnsureCounter(ctx *runtime.InvokeContext, payer, review pubkey.PublicKey) (pubkey.PublicKey, error) {
	address, bump, err := s.addresses.Counter(review)
	if err != nil {
		return pubkey.PublicKey{}, err
	}
	account, err := ctx.Get(address)
	switch {
	case err == nil:
		if account.Owner != s.addresses.ProgramID {
			return pubkey.PublicKey{}, InvalidOwner("counter %s is owned by %s", address, account.Owner)
		}
		return address, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return pubkey.PublicKey{}, err
	}

	ctx.Msg("Comment counter account created")
	data, _ := (&models.MovieCommentCounter{}).MarshalBinary()
	seeds := models.WithBump(models.CounterSeeds(review), bump)
	if err := ctx.CreateDerivedAccount(payer, address, seeds, data); err != nil {
		return pubkey.PublicKey{}, err
	}
	return address, nil
}

// AddComment stores text as the next comment on review. The comment lives at
// the address derived from the counter value before the increment and
// carries the value after it.
func (s *CommentService) AddComment(ctx *runtime.InvokeContext, commenter, review pubkey.PublicKey, text string) (pubkey.PublicKey, *models.MovieComment, error) {
	comment := &models.MovieComment{
		Review:    review,
		Commenter: commenter,
		Comment:   text,
	}
	if err := comment.Validate(); err != nil {
		return pubkey.PublicKey{}, nil, Validation("invalid comment: %v", err)
	}

	reviewAccount, err := loadOwned(ctx, s.addresses.ProgramID, review, "review")
	if err != nil {
		return pubkey.PublicKey{}, nil, err
	}
	if !models.IsMovieReview(reviewAccount.Data) {
		return pubkey.PublicKey{}, nil, InvalidOwner("account %s is not a review", review)
	}

	counterAddress, err := s.EnsureCounter(ctx, commenter, review)
	if err != nil {
		return pubkey.PublicKey{}, nil, err
	}
	counter, err := s.loadCounter(ctx, counterAddress)
	if err != nil {
		return pubkey.PublicKey{}, nil, err
	}
	if counter.Counter == math.MaxUint64 {
		return pubkey.PublicKey{}, nil, runtime.ErrArithmeticOverflow
	}

	address, bump, err := s.addresses.Comment(review, counter.Counter)
	if err != nil {
		return pubkey.PublicKey{}, nil, err
	}
	comment.Count = counter.Counter + 1

	ctx.Msg("Comment account created")
	ctx.Msg("Comment: %s", text)
	ctx.Msg("Comment count: %d", comment.Count)

	data, _ := comment.MarshalBinary()
	seeds := models.WithBump(models.CommentSeeds(review, counter.Counter), bump)
	if err := ctx.CreateDerivedAccount(commenter, address, seeds, data); err != nil {
		return pubkey.PublicKey{}, nil, err
	}

	counter.Counter++
	data, _ = counter.MarshalBinary()
	if err := ctx.Store(&models.Account{Address: counterAddress, Owner: s.addresses.ProgramID, Data: data}); err != nil {
		return pubkey.PublicKey{}, nil, err
	}
	return address, comment, nil
}

// Counter returns how many comments were ever added to review. A review
// that never had a counter reports zero.
func (s *CommentService) Counter(accounts repositories.AccountReader, review pubkey.PublicKey) (uint64, error) {
	address, _, err := s.addresses.Counter(review)
	if err != nil {
		return 0, err
	}
	found, err := exists(accounts, address)
	if err != nil || !found {
		return 0, err
	}
	counter, err := s.loadCounter(accounts, address)
	if err != nil {
		return 0, err
	}
	return counter.Counter, nil
}

// Comments returns the comments of review in count order.
func (s *CommentService) Comments(accounts repositories.AccountReader, review pubkey.PublicKey) ([]*models.MovieComment, error) {
	n, err := s.Counter(accounts, review)
	if err != nil {
		return nil, err
	}
	comments := make([]*models.MovieComment, 0, n)
	for i := uint64(0); i < n; i++ {
		address, _, err := s.addresses.Comment(review, i)
		if err != nil {
			return nil, err
		}
		found, err := exists(accounts, address)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		account, err := loadOwned(accounts, s.addresses.ProgramID, address, "comment")
		if err != nil {
			return nil, err
		}
		var c models.MovieComment
		if err := c.UnmarshalBinary(account.Data); err != nil {
			return nil, err
		}
		comments = append(comments, &c)
	}
	return comments, nil
}

func (s *CommentService) loadCounter(accounts repositories.AccountReader, address pubkey.PublicKey) (*models.MovieCommentCounter, error) {
	account, err := loadOwned(accounts, s.addresses.ProgramID, address, "counter")
	if err != nil {
		return nil, err
	}
	var counter models.MovieCommentCounter
	if err := counter.UnmarshalBinary(account.Data); err != nil {
		return nil, err
	}
	return &counter, nil
}
