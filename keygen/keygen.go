package keygen

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"moviereview/app/pubkey"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
)

// base58 alphabet; a prefix using anything else can never match.
const alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var ErrInvalidPrefix = errors.New("prefix contains characters outside the base58 alphabet")

// Keypair is an ed25519 signing key. It satisfies runtime.Signer.
type Keypair struct {
	private ed25519.PrivateKey
	public  pubkey.PublicKey
}

func NewKeypair() (*Keypair, error) {
	return newKeypair(rand.Reader)
}

// FromSeed derives a keypair deterministically from a 32-byte seed.
func FromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return fromPrivate(ed25519.NewKeyFromSeed(seed)), nil
}

func newKeypair(r io.Reader) (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return fromPrivate(priv), nil
}

func fromPrivate(priv ed25519.PrivateKey) *Keypair {
	var pk pubkey.PublicKey
	copy(pk[:], priv.Public().(ed25519.PublicKey))
	return &Keypair{private: priv, public: pk}
}

func (k *Keypair) PublicKey() pubkey.PublicKey {
	return k.public
}

func (k *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.private, message)
}

// MarshalJSON encodes the keypair as a JSON array of the 64 secret key bytes.
func (k *Keypair) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(k.private))
	for i, b := range k.private {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

// Save writes the keypair in the MarshalJSON form.
func (k *Keypair) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	data, err := k.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Load reads a keypair written by Save.
func Load(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("parse keypair %s: %w", path, err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair %s has %d bytes, want %d", path, len(ints), ed25519.PrivateKeySize)
	}
	raw := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keypair %s: byte %d out of range", path, i)
		}
		raw[i] = byte(v)
	}
	kp, err := FromSeed(raw[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}
	if !kp.public.Equals(pubkey.PublicKey(raw[ed25519.SeedSize:])) {
		return nil, fmt.Errorf("keypair %s: public key does not match secret", path)
	}
	return kp, nil
}

// Result is a ground keypair and the number of keys tried to find it.
type Result struct {
	Keypair  *Keypair
	Attempts uint64
}

// Grind generates keys on workers goroutines until one has a base58 address
// starting with prefix, or ctx is done.
func Grind(ctx context.Context, prefix string, workers int) (*Result, error) {
	for _, c := range prefix {
		if !strings.ContainsRune(alphabet, c) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, c)
		}
	}
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var totalAttempts uint64
	resultChan := make(chan *Result, workers)
	errChan := make(chan error, workers)

	worker := func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			kp, err := NewKeypair()
			if err != nil {
				errChan <- err
				return
			}
			attempts := atomic.AddUint64(&totalAttempts, 1)
			if strings.HasPrefix(base58.Encode(kp.public[:]), prefix) {
				resultChan <- &Result{Keypair: kp, Attempts: attempts}
				return
			}
			if attempts%1000000 == 0 {
				logrus.WithField("attempts", attempts).Info("Still grinding")
			}
		}
	}

	for i := 0; i < workers; i++ {
		go worker()
	}

	select {
	case res := <-resultChan:
		return res, nil
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RunKeygen is the keygen subcommand.
func RunKeygen(args []string) error {
	return runKeygen(args, os.Stdout)
}

func runKeygen(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	prefix := fs.String("prefix", "", "base58 prefix the address must start with")
	outfile := fs.String("outfile", "", "write the keypair to this file instead of stdout")
	workers := fs.Int("workers", runtime.NumCPU(), "number of parallel workers")
	show := fs.String("pubkey", "", "print the public key of an existing keypair file and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *show != "" {
		kp, err := Load(*show)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, kp.PublicKey().String())
		return nil
	}

	res, err := Grind(context.Background(), *prefix, *workers)
	if err != nil {
		return err
	}

	log := logrus.WithFields(logrus.Fields{
		"pubkey":   res.Keypair.PublicKey().String(),
		"attempts": res.Attempts,
	})
	if *outfile == "" {
		data, err := res.Keypair.MarshalJSON()
		if err != nil {
			return err
		}
		log.Warn("No -outfile given, printing the secret key to stdout")
		fmt.Fprintln(out, string(data))
		return nil
	}
	if err := res.Keypair.Save(*outfile); err != nil {
		return err
	}
	log.WithField("path", *outfile).Info("Keypair saved")
	return nil
}
