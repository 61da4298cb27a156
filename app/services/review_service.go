package services

import (
	"moviereview/app/models"
	"moviereview/app/pubkey"
	"moviereview/app/repositories"
	"moviereview/app/runtime"
)

// ReviewService handles the lifecycle of review accounts
type ReviewService struct {
	addresses Addresses
	comments  *CommentService
	rewards   *RewardService
}

// NewReviewService creates a new ReviewService
func NewReviewService(programID pubkey.PublicKey, comments *CommentService, rewards *RewardService) *ReviewService {
	return &ReviewService{
		addresses: Addresses{ProgramID: programID},
		comments:  comments,
		rewards:   rewards,
	}
}

// AddReview stores a new review at the address derived from (title,
// initializer), creates its comment counter and pays the reward into
// tokenAccount.
func (s *ReviewService) AddReview(ctx *runtime.InvokeContext, initializer, tokenAccount pubkey.PublicKey, title, description string, rating uint8) (pubkey.PublicKey, error) {
	review := &models.MovieReview{
		Reviewer:    initializer,
		Rating:      rating,
		Title:       title,
		Description: description,
	}
	if err := review.Validate(); err != nil {
		return pubkey.PublicKey{}, Validation("invalid review: %v", err)
	}

	address, bump, err := s.addresses.Review(title, initializer)
	if err != nil {
		return pubkey.PublicKey{}, err
	}
	found, err := exists(ctx, address)
	if err != nil {
		return pubkey.PublicKey{}, err
	}
	if found {
		return pubkey.PublicKey{}, AlreadyExists("review %q by %s already exists", title, initializer)
	}

	ctx.Msg("Movie review account created")
	ctx.Msg("Title: %s", title)
	ctx.Msg("Description: %s", description)
	ctx.Msg("Rating: %d", rating)

	data, _ := review.MarshalBinary()
	seeds := models.WithBump(models.ReviewSeeds(title, initializer), bump)
	if err := ctx.CreateDerivedAccount(initializer, address, seeds, data); err != nil {
		return pubkey.PublicKey{}, err
	}
	if _, err := s.comments.EnsureCounter(ctx, initializer, address); err != nil {
		return pubkey.PublicKey{}, err
	}
	if err := s.rewards.IssueReward(ctx, initializer, tokenAccount); err != nil {
		return pubkey.PublicKey{}, err
	}
	return address, nil
}

// UpdateReview replaces rating and description. The account is resized to
// the new content; the initializer pays or is refunded the rent difference.
func (s *ReviewService) UpdateReview(ctx *runtime.InvokeContext, initializer pubkey.PublicKey, title, description string, rating uint8) error {
	update := &models.MovieReview{
		Reviewer:    initializer,
		Rating:      rating,
		Title:       title,
		Description: description,
	}
	if err := update.Validate(); err != nil {
		return Validation("invalid review: %v", err)
	}

	address, review, err := s.owned(ctx, initializer, title)
	if err != nil {
		return err
	}

	ctx.Msg("Movie review account space reallocated")
	ctx.Msg("Title: %s", title)
	ctx.Msg("Description: %s", description)
	ctx.Msg("Rating: %d", rating)

	review.Rating = rating
	review.Description = description
	data, _ := review.MarshalBinary()
	return ctx.Realloc(address, initializer, data)
}

// DeleteReview closes the review and returns its lamports to the initializer.
// The comment counter is left in place so numbering continues if the review
// is created again.
func (s *ReviewService) DeleteReview(ctx *runtime.InvokeContext, initializer pubkey.PublicKey, title string) error {
	address, _, err := s.owned(ctx, initializer, title)
	if err != nil {
		return err
	}
	ctx.Msg("Movie review for %s deleted", title)
	return ctx.CloseAccount(address, initializer)
}

// GetReview decodes the review at address.
func (s *ReviewService) GetReview(accounts repositories.AccountReader, address pubkey.PublicKey) (*models.MovieReview, error) {
	account, err := loadOwned(accounts, s.addresses.ProgramID, address, "review")
	if err != nil {
		return nil, err
	}
	if !models.IsMovieReview(account.Data) {
		return nil, InvalidOwner("account %s is not a review", address)
	}
	var review models.MovieReview
	if err := review.UnmarshalBinary(account.Data); err != nil {
		return nil, err
	}
	return &review, nil
}

// owned loads the review of (title, initializer) and checks authorship.
func (s *ReviewService) owned(accounts repositories.AccountReader, initializer pubkey.PublicKey, title string) (pubkey.PublicKey, *models.MovieReview, error) {
	address, _, err := s.addresses.Review(title, initializer)
	if err != nil {
		return pubkey.PublicKey{}, nil, err
	}
	review, err := s.GetReview(accounts, address)
	if err != nil {
		return pubkey.PublicKey{}, nil, err
	}
	if review.Reviewer != initializer {
		return pubkey.PublicKey{}, nil, Unauthorized("review %s belongs to %s", address, review.Reviewer)
	}
	return address, review, nil
}
