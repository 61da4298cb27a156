package program

import (
	"context"
	"crypto/sha256"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"moviereview/app/models"
	"moviereview/app/pubkey"
	"moviereview/app/repositories"
	"moviereview/app/repositories/mock"
	"moviereview/app/runtime"
	"moviereview/app/services"
	"moviereview/app/token"
	"moviereview/keygen"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTitle       = "Just a test movie"
	testDescription = "Wow what a good movie it was real great"
	testComment     = "Just a test comment"
)

type recorder struct {
	mutex sync.Mutex
	calls map[string]int
	fails map[string]int
}

func (r *recorder) ObserveInstruction(name string, _ time.Duration, err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.calls[name]++
	if err != nil {
		r.fails[name]++
	}
}

type env struct {
	rt       *runtime.Runtime
	proc     *Processor
	builder  *Builder
	user     *keygen.Keypair
	recorder *recorder
}

func newEnv(t *testing.T, store repositories.Store) *env {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	rt, err := runtime.New(store, runtime.WithLogger(log))
	require.NoError(t, err)

	rec := &recorder{calls: map[string]int{}, fails: map[string]int{}}
	proc := Register(rt, pubkey.MovieReviewProgramID, WithObserver(rec))

	e := &env{rt: rt, proc: proc, builder: NewBuilder(pubkey.MovieReviewProgramID), recorder: rec}
	e.user = e.fundedKeypair(t)
	return e
}

func (e *env) fundedKeypair(t *testing.T) *keygen.Keypair {
	t.Helper()
	kp, err := keygen.NewKeypair()
	require.NoError(t, err)
	require.NoError(t, e.rt.Airdrop(context.Background(), kp.PublicKey(), 10_000_000_000))
	return kp
}

func (e *env) send(t *testing.T, signer *keygen.Keypair, ixs ...runtime.Instruction) (*runtime.Receipt, error) {
	t.Helper()
	hash, err := e.rt.RecentHash(context.Background())
	require.NoError(t, err)
	tx := runtime.NewTransaction(signer.PublicKey(), hash, ixs...)
	require.NoError(t, tx.Sign(signer))
	return e.rt.Submit(context.Background(), tx)
}

func (e *env) initMint(t *testing.T) error {
	t.Helper()
	ix, err := e.builder.InitializeTokenMint(InitializeTokenMintAccounts{Payer: e.user.PublicKey()})
	require.NoError(t, err)
	_, err = e.send(t, e.user, ix)
	return err
}

func (e *env) addReview(t *testing.T, user *keygen.Keypair, args ReviewArgs) error {
	t.Helper()
	ix, err := e.builder.AddMovieReview(AddMovieReviewAccounts{Initializer: user.PublicKey()}, args)
	require.NoError(t, err)
	_, err = e.send(t, user, ix)
	return err
}

func (e *env) addComment(t *testing.T, user *keygen.Keypair, review pubkey.PublicKey, text string) error {
	t.Helper()
	ix, err := e.builder.AddComment(AddCommentAccounts{
		Review:       review,
		Initializer:  user.PublicKey(),
		CounterValue: e.counter(t, review),
	}, CommentArgs{Comment: text})
	require.NoError(t, err)
	_, err = e.send(t, user, ix)
	return err
}

func (e *env) reviewAddress(t *testing.T, title string, user *keygen.Keypair) pubkey.PublicKey {
	t.Helper()
	addr, _, err := e.builder.Addresses().Review(title, user.PublicKey())
	require.NoError(t, err)
	return addr
}

func (e *env) review(t *testing.T, address pubkey.PublicKey) (*models.MovieReview, error) {
	t.Helper()
	var review *models.MovieReview
	err := e.rt.View(context.Background(), func(accounts repositories.AccountReader) error {
		var err error
		review, err = e.proc.Reviews().GetReview(accounts, address)
		return err
	})
	return review, err
}

func (e *env) counter(t *testing.T, review pubkey.PublicKey) uint64 {
	t.Helper()
	var n uint64
	require.NoError(t, e.rt.View(context.Background(), func(accounts repositories.AccountReader) error {
		var err error
		n, err = e.proc.Comments().Counter(accounts, review)
		return err
	}))
	return n
}

func (e *env) comments(t *testing.T, review pubkey.PublicKey) []*models.MovieComment {
	t.Helper()
	var comments []*models.MovieComment
	require.NoError(t, e.rt.View(context.Background(), func(accounts repositories.AccountReader) error {
		var err error
		comments, err = e.proc.Comments().Comments(accounts, review)
		return err
	}))
	return comments
}

func (e *env) rewardBalance(t *testing.T, owner pubkey.PublicKey) uint64 {
	t.Helper()
	var n uint64
	require.NoError(t, e.rt.View(context.Background(), func(accounts repositories.AccountReader) error {
		var err error
		n, err = e.proc.Rewards().Balance(accounts, owner)
		return err
	}))
	return n
}

func (e *env) lamports(t *testing.T, key pubkey.PublicKey) uint64 {
	t.Helper()
	account, err := e.rt.Account(context.Background(), key)
	require.NoError(t, err)
	return account.Lamports
}

func scenarioArgs() ReviewArgs {
	return ReviewArgs{Title: testTitle, Description: testDescription, Rating: 5}
}

func TestDiscriminator(t *testing.T) {
	for _, name := range instructionNames {
		sum := sha256.Sum256([]byte("global:" + name))
		d := Discriminator(name)
		assert.Equal(t, sum[:8], d[:], name)
	}
}

func TestDecode(t *testing.T) {
	t.Run("ReviewArgs", func(t *testing.T) {
		data := EncodeReviewArgs(AddMovieReview, scenarioArgs())
		name, rest, err := decodeName(data)
		require.NoError(t, err)
		assert.Equal(t, AddMovieReview, name)
		args, err := decodeReviewArgs(rest)
		require.NoError(t, err)
		assert.Equal(t, scenarioArgs(), args)
	})

	t.Run("Truncated", func(t *testing.T) {
		data := EncodeReviewArgs(AddMovieReview, scenarioArgs())
		_, err := decodeReviewArgs(data[8 : len(data)-1])
		assert.ErrorIs(t, err, services.ErrValidation)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, _, err := decodeName([]byte{1, 2, 3, 4, 5, 6, 7, 8})
		assert.ErrorIs(t, err, services.ErrValidation)
		_, _, err = decodeName([]byte{1})
		assert.ErrorIs(t, err, services.ErrValidation)
	})
}

func TestInitializeTokenMint(t *testing.T) {
	e := newEnv(t, mock.NewStore())
	require.NoError(t, e.initMint(t))

	mint, _, err := e.builder.Addresses().Mint()
	require.NoError(t, err)
	account, err := e.rt.Account(context.Background(), mint)
	require.NoError(t, err)
	assert.Equal(t, pubkey.TokenProgramID, account.Owner)

	err = e.initMint(t)
	assert.ErrorIs(t, err, services.ErrAlreadyExists)
	assert.Equal(t, 2, e.recorder.calls[InitializeTokenMint])
	assert.Equal(t, 1, e.recorder.fails[InitializeTokenMint])
}

func TestReviewScenario(t *testing.T) {
	stores := map[string]func(t *testing.T) repositories.Store{
		"Mock": func(t *testing.T) repositories.Store { return mock.NewStore() },
		"Badger": func(t *testing.T) repositories.Store {
			repo, err := repositories.NewRepository(t.TempDir())
			require.NoError(t, err)
			t.Cleanup(func() { repo.Close() })
			return repo
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t, newStore(t))
			require.NoError(t, e.initMint(t))
			review := e.reviewAddress(t, testTitle, e.user)
			start := e.lamports(t, e.user.PublicKey())

			require.NoError(t, e.addReview(t, e.user, scenarioArgs()))

			stored, err := e.review(t, review)
			require.NoError(t, err)
			assert.Equal(t, e.user.PublicKey(), stored.Reviewer)
			assert.Equal(t, testTitle, stored.Title)
			assert.Equal(t, testDescription, stored.Description)
			assert.Equal(t, uint8(5), stored.Rating)
			assert.Equal(t, uint64(0), e.counter(t, review))
			assert.Equal(t, uint64(models.RewardAmount), e.rewardBalance(t, e.user.PublicKey()))

			space := models.ReviewBaseSpace + len(testTitle) + len(testDescription)
			assert.Equal(t, runtime.DefaultRent.MinimumBalance(space), e.lamports(t, review))
			assert.Less(t, e.lamports(t, e.user.PublicKey()), start)

			require.NoError(t, e.addComment(t, e.user, review, testComment))
			assert.Equal(t, uint64(1), e.counter(t, review))
			comments := e.comments(t, review)
			require.Len(t, comments, 1)
			assert.Equal(t, uint64(1), comments[0].Count)
			assert.Equal(t, testComment, comments[0].Comment)
			assert.Equal(t, review, comments[0].Review)
			assert.Equal(t, e.user.PublicKey(), comments[0].Commenter)

			first, _, err := e.builder.Addresses().Comment(review, 0)
			require.NoError(t, err)
			_, err = e.rt.Account(context.Background(), first)
			assert.NoError(t, err)
		})
	}
}

func TestUpdateReview(t *testing.T) {
	e := newEnv(t, mock.NewStore())
	require.NoError(t, e.initMint(t))
	require.NoError(t, e.addReview(t, e.user, scenarioArgs()))
	review := e.reviewAddress(t, testTitle, e.user)

	before := e.lamports(t, e.user.PublicKey())
	beforeReview := e.lamports(t, review)
	reward := e.rewardBalance(t, e.user.PublicKey())
	assert.Equal(t, uint64(models.RewardAmount), reward)

	update := ReviewArgs{Title: testTitle, Description: "Even better the second time around!!", Rating: 4}
	ix, err := e.builder.UpdateMovieReview(UpdateMovieReviewAccounts{Initializer: e.user.PublicKey()}, update)
	require.NoError(t, err)
	receipt, err := e.send(t, e.user, ix)
	require.NoError(t, err)
	assert.Contains(t, receipt.Logs, "Program log: Movie review account space reallocated")

	stored, err := e.review(t, review)
	require.NoError(t, err)
	assert.Equal(t, uint8(4), stored.Rating)
	assert.Equal(t, update.Description, stored.Description)
	assert.Equal(t, testTitle, stored.Title)

	space := models.ReviewBaseSpace + len(testTitle) + len(update.Description)
	after := runtime.DefaultRent.MinimumBalance(space)
	assert.Equal(t, after, e.lamports(t, review))
	// description shrank, so the surplus went back to the author
	assert.Equal(t, before+beforeReview-after, e.lamports(t, e.user.PublicKey()))
	assert.Equal(t, reward, e.rewardBalance(t, e.user.PublicKey()))

	t.Run("Grow", func(t *testing.T) {
		grow := ReviewArgs{Title: testTitle, Description: strings.Repeat("x", models.MaxDescriptionLength), Rating: 3}
		ix, err := e.builder.UpdateMovieReview(UpdateMovieReviewAccounts{Initializer: e.user.PublicKey()}, grow)
		require.NoError(t, err)
		_, err = e.send(t, e.user, ix)
		require.NoError(t, err)
		space := models.ReviewBaseSpace + len(testTitle) + models.MaxDescriptionLength
		assert.Equal(t, runtime.DefaultRent.MinimumBalance(space), e.lamports(t, review))
		assert.Equal(t, reward, e.rewardBalance(t, e.user.PublicKey()))
	})

	t.Run("Missing", func(t *testing.T) {
		ix, err := e.builder.UpdateMovieReview(UpdateMovieReviewAccounts{Initializer: e.user.PublicKey()},
			ReviewArgs{Title: "Nope", Description: "x", Rating: 3})
		require.NoError(t, err)
		_, err = e.send(t, e.user, ix)
		assert.ErrorIs(t, err, services.ErrNotFound)
	})

	t.Run("InvalidRating", func(t *testing.T) {
		for _, rating := range []uint8{0, 6, 9} {
			existing, err := e.review(t, review)
			require.NoError(t, err)
			lamports := e.lamports(t, review)

			ix, err := e.builder.UpdateMovieReview(UpdateMovieReviewAccounts{Initializer: e.user.PublicKey()},
				ReviewArgs{Title: testTitle, Description: "x", Rating: rating})
			require.NoError(t, err)
			_, err = e.send(t, e.user, ix)
			assert.ErrorIs(t, err, services.ErrValidation, "rating %d", rating)

			stored, err := e.review(t, review)
			require.NoError(t, err)
			assert.Equal(t, existing.Rating, stored.Rating, "rating %d", rating)
			assert.Equal(t, existing.Description, stored.Description, "rating %d", rating)
			assert.Equal(t, lamports, e.lamports(t, review), "rating %d", rating)
		}
		assert.Equal(t, reward, e.rewardBalance(t, e.user.PublicKey()))
	})

	t.Run("OtherUsersReview", func(t *testing.T) {
		other := e.fundedKeypair(t)
		ix, err := e.builder.UpdateMovieReview(UpdateMovieReviewAccounts{
			Review:      review,
			Initializer: other.PublicKey(),
		}, scenarioArgs())
		require.NoError(t, err)
		_, err = e.send(t, other, ix)
		assert.ErrorIs(t, err, services.ErrSeedMismatch)
	})
}

func TestDeleteReview(t *testing.T) {
	e := newEnv(t, mock.NewStore())
	require.NoError(t, e.initMint(t))
	require.NoError(t, e.addReview(t, e.user, scenarioArgs()))
	review := e.reviewAddress(t, testTitle, e.user)
	require.NoError(t, e.addComment(t, e.user, review, "one"))
	require.NoError(t, e.addComment(t, e.user, review, "two"))

	before := e.lamports(t, e.user.PublicKey())
	reviewLamports := e.lamports(t, review)
	reward := e.rewardBalance(t, e.user.PublicKey())

	ix, err := e.builder.DeleteMovieReview(DeleteMovieReviewAccounts{Initializer: e.user.PublicKey()}, DeleteReviewArgs{Title: testTitle})
	require.NoError(t, err)
	_, err = e.send(t, e.user, ix)
	require.NoError(t, err)

	_, err = e.rt.Account(context.Background(), review)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = e.review(t, review)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Equal(t, before+reviewLamports, e.lamports(t, e.user.PublicKey()))
	assert.Equal(t, reward, e.rewardBalance(t, e.user.PublicKey()))

	t.Run("DeleteAgain", func(t *testing.T) {
		ix, err := e.builder.DeleteMovieReview(DeleteMovieReviewAccounts{Initializer: e.user.PublicKey()}, DeleteReviewArgs{Title: testTitle})
		require.NoError(t, err)
		_, err = e.send(t, e.user, ix)
		assert.ErrorIs(t, err, services.ErrNotFound)
	})

	t.Run("CommentOnDeleted", func(t *testing.T) {
		assert.ErrorIs(t, e.addComment(t, e.user, review, "late"), services.ErrNotFound)
	})

	t.Run("RecreatedReviewKeepsCounting", func(t *testing.T) {
		require.NoError(t, e.addReview(t, e.user, scenarioArgs()))
		assert.Equal(t, uint64(2), e.counter(t, review))
		require.NoError(t, e.addComment(t, e.user, review, "three"))

		comments := e.comments(t, review)
		require.Len(t, comments, 3)
		for i, c := range comments {
			assert.Equal(t, uint64(i+1), c.Count)
		}
		assert.Equal(t, uint64(2*models.RewardAmount), e.rewardBalance(t, e.user.PublicKey()))
	})
}

func TestAddReviewRejects(t *testing.T) {
	e := newEnv(t, mock.NewStore())
	require.NoError(t, e.initMint(t))

	tests := []struct {
		name string
		args ReviewArgs
		want error
	}{
		{"TitleTooLong", ReviewArgs{Title: strings.Repeat("t", models.MaxTitleLength+1), Description: "d", Rating: 3}, services.ErrValidation},
		{"DescriptionTooLong", ReviewArgs{Title: "t", Description: strings.Repeat("d", models.MaxDescriptionLength+1), Rating: 3}, services.ErrValidation},
		{"RatingZero", ReviewArgs{Title: "t", Description: "d", Rating: 0}, services.ErrValidation},
		{"RatingSix", ReviewArgs{Title: "t", Description: "d", Rating: 6}, services.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := e.lamports(t, e.user.PublicKey())
			assert.ErrorIs(t, e.addReview(t, e.user, tt.args), tt.want)
			assert.Equal(t, before, e.lamports(t, e.user.PublicKey()))
		})
	}

	t.Run("MaximumLengths", func(t *testing.T) {
		args := ReviewArgs{
			Title:       strings.Repeat("t", models.MaxTitleLength),
			Description: strings.Repeat("d", models.MaxDescriptionLength),
			Rating:      1,
		}
		assert.NoError(t, e.addReview(t, e.user, args))
	})

	t.Run("Duplicate", func(t *testing.T) {
		require.NoError(t, e.addReview(t, e.user, scenarioArgs()))
		review := e.reviewAddress(t, testTitle, e.user)
		first, err := e.review(t, review)
		require.NoError(t, err)
		reward := e.rewardBalance(t, e.user.PublicKey())

		again := ReviewArgs{Title: testTitle, Description: "A different opinion", Rating: 1}
		assert.ErrorIs(t, e.addReview(t, e.user, again), services.ErrAlreadyExists)

		stored, err := e.review(t, review)
		require.NoError(t, err)
		assert.Equal(t, first, stored)
		assert.Equal(t, reward, e.rewardBalance(t, e.user.PublicKey()))
	})

	t.Run("SameTitleOtherAuthor", func(t *testing.T) {
		other := e.fundedKeypair(t)
		assert.NoError(t, e.addReview(t, other, scenarioArgs()))
	})

	t.Run("InitializerMustSign", func(t *testing.T) {
		other := e.fundedKeypair(t)
		ix, err := e.builder.AddMovieReview(AddMovieReviewAccounts{Initializer: other.PublicKey()}, ReviewArgs{Title: "unsigned", Description: "d", Rating: 2})
		require.NoError(t, err)
		ix.Accounts[1].IsSigner = false
		_, err = e.send(t, e.user, ix)
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})

	t.Run("WrongReviewAddress", func(t *testing.T) {
		ix, err := e.builder.AddMovieReview(AddMovieReviewAccounts{
			Initializer: e.user.PublicKey(),
			Review:      e.reviewAddress(t, "something else", e.user),
		}, ReviewArgs{Title: "mismatch", Description: "d", Rating: 2})
		require.NoError(t, err)
		_, err = e.send(t, e.user, ix)
		assert.ErrorIs(t, err, services.ErrSeedMismatch)
	})

	t.Run("WrongTokenAccount", func(t *testing.T) {
		other := e.fundedKeypair(t)
		require.NoError(t, e.addReview(t, other, ReviewArgs{Title: "other", Description: "d", Rating: 2}))

		mint, _, err := e.builder.Addresses().Mint()
		require.NoError(t, err)
		ix, err := e.builder.AddMovieReview(AddMovieReviewAccounts{Initializer: other.PublicKey()}, ReviewArgs{Title: "steal", Description: "d", Rating: 2})
		require.NoError(t, err)
		// point the reward at the first user's token account
		userATA, _, err := token.DeriveAssociatedAddress(mint, e.user.PublicKey())
		require.NoError(t, err)
		ix.Accounts[3].PublicKey = userATA
		_, err = e.send(t, other, ix)
		assert.ErrorIs(t, err, services.ErrSeedMismatch)
	})

	t.Run("WrongProgram", func(t *testing.T) {
		ix, err := e.builder.AddMovieReview(AddMovieReviewAccounts{Initializer: e.user.PublicKey()}, ReviewArgs{Title: "prog", Description: "d", Rating: 2})
		require.NoError(t, err)
		ix.Accounts[5].PublicKey = pubkey.SystemProgramID
		_, err = e.send(t, e.user, ix)
		assert.ErrorIs(t, err, services.ErrSeedMismatch)
	})

	t.Run("NotEnoughAccounts", func(t *testing.T) {
		ix, err := e.builder.AddMovieReview(AddMovieReviewAccounts{Initializer: e.user.PublicKey()}, ReviewArgs{Title: "short", Description: "d", Rating: 2})
		require.NoError(t, err)
		ix.Accounts = ix.Accounts[:4]
		_, err = e.send(t, e.user, ix)
		assert.ErrorIs(t, err, services.ErrValidation)
	})
}

func TestAddReviewWithoutMintRollsBack(t *testing.T) {
	e := newEnv(t, mock.NewStore())
	before := e.lamports(t, e.user.PublicKey())

	err := e.addReview(t, e.user, scenarioArgs())
	assert.ErrorIs(t, err, services.ErrNotFound)

	review := e.reviewAddress(t, testTitle, e.user)
	_, err = e.rt.Account(context.Background(), review)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	counter, _, err := e.builder.Addresses().Counter(review)
	require.NoError(t, err)
	_, err = e.rt.Account(context.Background(), counter)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.Equal(t, before, e.lamports(t, e.user.PublicKey()))
}

func TestAddComment(t *testing.T) {
	e := newEnv(t, mock.NewStore())
	require.NoError(t, e.initMint(t))
	require.NoError(t, e.addReview(t, e.user, scenarioArgs()))
	review := e.reviewAddress(t, testTitle, e.user)

	t.Run("OtherCommenter", func(t *testing.T) {
		other := e.fundedKeypair(t)
		require.NoError(t, e.addComment(t, other, review, "from someone else"))
		comments := e.comments(t, review)
		require.Len(t, comments, 1)
		assert.Equal(t, other.PublicKey(), comments[0].Commenter)
	})

	t.Run("TooLong", func(t *testing.T) {
		err := e.addComment(t, e.user, review, strings.Repeat("c", models.MaxCommentLength+1))
		assert.ErrorIs(t, err, services.ErrValidation)
		assert.Equal(t, uint64(1), e.counter(t, review))
	})

	t.Run("MaximumLength", func(t *testing.T) {
		require.NoError(t, e.addComment(t, e.user, review, strings.Repeat("c", models.MaxCommentLength)))
		assert.Equal(t, uint64(2), e.counter(t, review))
	})

	t.Run("StaleCounter", func(t *testing.T) {
		ix, err := e.builder.AddComment(AddCommentAccounts{
			Review:       review,
			Initializer:  e.user.PublicKey(),
			CounterValue: 0,
		}, CommentArgs{Comment: "reuses slot zero"})
		require.NoError(t, err)
		_, err = e.send(t, e.user, ix)
		assert.ErrorIs(t, err, services.ErrSeedMismatch)
	})

	t.Run("MissingReview", func(t *testing.T) {
		missing := e.reviewAddress(t, "never written", e.user)
		assert.ErrorIs(t, e.addComment(t, e.user, missing, "hello"), services.ErrNotFound)
	})

	t.Run("NotAReview", func(t *testing.T) {
		counter, _, err := e.builder.Addresses().Counter(review)
		require.NoError(t, err)
		assert.ErrorIs(t, e.addComment(t, e.user, counter, "hello"), services.ErrInvalidOwner)

		mint, _, err := e.builder.Addresses().Mint()
		require.NoError(t, err)
		assert.ErrorIs(t, e.addComment(t, e.user, mint, "hello"), services.ErrInvalidOwner)
	})

	t.Run("CommentCountsAreSequential", func(t *testing.T) {
		comments := e.comments(t, review)
		for i, c := range comments {
			assert.Equal(t, uint64(i+1), c.Count)
		}
	})
}
