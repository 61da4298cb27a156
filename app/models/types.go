package models

import "moviereview/app/pubkey"

const (
	MaxTitleLength       = 20
	MaxDescriptionLength = 50
	MaxCommentLength     = 500

	MinRating = 1
	MaxRating = 5

	// RewardDecimals is the precision of the reward token.
	RewardDecimals = 6
	// RewardAmount is minted to the reviewer for every new review.
	RewardAmount = 10 * 1_000_000

	// DiscriminatorLength prefixes every program-owned account.
	DiscriminatorLength = 8

	// ReviewBaseSpace covers the discriminator, reviewer, rating and the two
	// string length prefixes. Title and description bytes are added on top.
	ReviewBaseSpace = DiscriminatorLength + pubkey.PublicKeyLength + 1 + 4 + 4
	// CounterSpace is the fixed size of a comment counter account.
	CounterSpace = DiscriminatorLength + 8
	// CommentBaseSpace covers everything in a comment except the text bytes.
	CommentBaseSpace = DiscriminatorLength + pubkey.PublicKeyLength + pubkey.PublicKeyLength + 4 + 8
)

// Account is a single entry of the ledger: an address holding lamports and
// opaque data, owned by exactly one program.
type Account struct {
	Address  pubkey.PublicKey `json:"address"`
	Owner    pubkey.PublicKey `json:"owner"`
	Lamports uint64           `json:"lamports"`
	Data     []byte           `json:"data"`
}

// MovieReview is stored at the address derived from (title, reviewer).
type MovieReview struct {
	Reviewer    pubkey.PublicKey `json:"reviewer"`
	Rating      uint8            `json:"rating" validate:"min=1,max=5"`
	Title       string           `json:"title" validate:"maxbytes=20"`
	Description string           `json:"description" validate:"maxbytes=50"`
}

// MovieCommentCounter holds the number of comments ever added to a review.
type MovieCommentCounter struct {
	Counter uint64 `json:"counter"`
}

// MovieComment is stored at the address derived from (review, counter value).
type MovieComment struct {
	Review    pubkey.PublicKey `json:"review"`
	Commenter pubkey.PublicKey `json:"commenter"`
	Comment   string           `json:"comment" validate:"maxbytes=500"`
	Count     uint64           `json:"count"`
}
