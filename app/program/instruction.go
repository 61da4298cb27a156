package program

import (
	"moviereview/app/models"
	"moviereview/app/services"
)

// Instruction names as exposed by the program interface.
const (
	InitializeTokenMint = "initialize_token_mint"
	AddMovieReview      = "add_movie_review"
	UpdateMovieReview   = "update_movie_review"
	DeleteMovieReview   = "delete_movie_review"
	AddComment          = "add_comment"
)

type discriminator = [models.DiscriminatorLength]byte

var (
	instructionNames = []string{
		InitializeTokenMint,
		AddMovieReview,
		UpdateMovieReview,
		DeleteMovieReview,
		AddComment,
	}
	byDiscriminator = make(map[discriminator]string, len(instructionNames))
)

func init() {
	for _, name := range instructionNames {
		byDiscriminator[Discriminator(name)] = name
	}
}

// Discriminator is the 8-byte prefix that selects an instruction.
func Discriminator(name string) discriminator {
	return models.Discriminator("global", name)
}

// ReviewArgs are the arguments of add_movie_review and update_movie_review.
type ReviewArgs struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Rating      uint8  `json:"rating"`
}

type DeleteReviewArgs struct {
	Title string `json:"title"`
}

type CommentArgs struct {
	Comment string `json:"comment"`
}

// EncodeReviewArgs builds the data of a review instruction.
func EncodeReviewArgs(name string, args ReviewArgs) []byte {
	d := Discriminator(name)
	return models.NewWriter(len(d) + 4 + len(args.Title) + 4 + len(args.Description) + 1).
		Raw(d[:]).
		Str(args.Title).
		Str(args.Description).
		Uint8(args.Rating).
		Bytes()
}

func EncodeDeleteReviewArgs(args DeleteReviewArgs) []byte {
	d := Discriminator(DeleteMovieReview)
	return models.NewWriter(len(d) + 4 + len(args.Title)).Raw(d[:]).Str(args.Title).Bytes()
}

func EncodeCommentArgs(args CommentArgs) []byte {
	d := Discriminator(AddComment)
	return models.NewWriter(len(d) + 4 + len(args.Comment)).Raw(d[:]).Str(args.Comment).Bytes()
}

func EncodeInitializeTokenMint() []byte {
	d := Discriminator(InitializeTokenMint)
	return d[:]
}

// decodeName splits instruction data into its name and argument bytes.
func decodeName(data []byte) (string, []byte, error) {
	if len(data) < models.DiscriminatorLength {
		return "", nil, services.Validation("instruction data shorter than discriminator")
	}
	name, ok := byDiscriminator[discriminator(data[:models.DiscriminatorLength])]
	if !ok {
		return "", nil, services.Validation("unknown instruction %x", data[:models.DiscriminatorLength])
	}
	return name, data[models.DiscriminatorLength:], nil
}

func decodeReviewArgs(data []byte) (ReviewArgs, error) {
	rd := models.NewReader(data)
	args := ReviewArgs{Title: rd.Str(), Description: rd.Str(), Rating: rd.Uint8()}
	if err := rd.Err(); err != nil {
		return args, services.Validation("instruction did not deserialize: %v", err)
	}
	return args, nil
}

func decodeDeleteReviewArgs(data []byte) (DeleteReviewArgs, error) {
	rd := models.NewReader(data)
	args := DeleteReviewArgs{Title: rd.Str()}
	if err := rd.Err(); err != nil {
		return args, services.Validation("instruction did not deserialize: %v", err)
	}
	return args, nil
}

func decodeCommentArgs(data []byte) (CommentArgs, error) {
	rd := models.NewReader(data)
	args := CommentArgs{Comment: rd.Str()}
	if err := rd.Err(); err != nil {
		return args, services.Validation("instruction did not deserialize: %v", err)
	}
	return args, nil
}
