package repositories

import (
	"errors"
	"testing"

	"moviereview/app/models"
	"moviereview/app/pubkey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository(t *testing.T) {
	// Create temporary directory for test database
	tmpDir := t.TempDir()
	repo, err := NewRepository(tmpDir + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})

	address := pubkey.MovieReviewProgramID

	t.Run("missing account", func(t *testing.T) {
		err := repo.View(func(l Ledger) error {
			_, err := l.Get(address)
			return err
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put and get account", func(t *testing.T) {
		account := &models.Account{
			Address:  address,
			Owner:    pubkey.TokenProgramID,
			Lamports: 42,
			Data:     []byte{1, 2, 3},
		}
		require.NoError(t, repo.Update(func(l Ledger) error {
			return l.Put(account)
		}))

		var got *models.Account
		require.NoError(t, repo.View(func(l Ledger) error {
			var err error
			got, err = l.Get(address)
			return err
		}))
		assert.Equal(t, account, got)
	})

	t.Run("failed update leaves no trace", func(t *testing.T) {
		other := pubkey.AssociatedTokenProgramID
		boom := errors.New("boom")
		err := repo.Update(func(l Ledger) error {
			if err := l.Put(&models.Account{Address: other, Lamports: 1}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		err = repo.View(func(l Ledger) error {
			_, err := l.Get(other)
			return err
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete account", func(t *testing.T) {
		require.NoError(t, repo.Update(func(l Ledger) error {
			return l.Delete(address)
		}))
		err := repo.Update(func(l Ledger) error {
			return l.Delete(address)
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSignaturesAndHashes(t *testing.T) {
	repo, err := NewInMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})

	t.Run("empty ledger has no hash", func(t *testing.T) {
		require.NoError(t, repo.View(func(l Ledger) error {
			slot, hash, err := l.LatestHash()
			assert.Zero(t, slot)
			assert.Nil(t, hash)
			return err
		}))
	})

	t.Run("append hashes", func(t *testing.T) {
		require.NoError(t, repo.Update(func(l Ledger) error {
			for i := byte(1); i <= 5; i++ {
				slot, err := l.AppendHash([]byte{i})
				require.NoError(t, err)
				assert.Equal(t, uint64(i), slot)
			}
			return nil
		}))

		require.NoError(t, repo.View(func(l Ledger) error {
			slot, hash, err := l.LatestHash()
			require.NoError(t, err)
			assert.Equal(t, uint64(5), slot)
			assert.Equal(t, []byte{5}, hash)

			recent, err := l.IsRecentHash([]byte{4}, 2)
			require.NoError(t, err)
			assert.True(t, recent)

			recent, err = l.IsRecentHash([]byte{3}, 2)
			require.NoError(t, err)
			assert.False(t, recent)
			return nil
		}))
	})

	t.Run("signatures", func(t *testing.T) {
		sig := []byte("signature-bytes")
		require.NoError(t, repo.Update(func(l Ledger) error {
			seen, err := l.HasSignature(sig)
			require.NoError(t, err)
			assert.False(t, seen)
			return l.RecordSignature(sig, 5)
		}))
		require.NoError(t, repo.View(func(l Ledger) error {
			seen, err := l.HasSignature(sig)
			require.NoError(t, err)
			assert.True(t, seen)
			return nil
		}))
	})
}
