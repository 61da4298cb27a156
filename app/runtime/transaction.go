package runtime

import (
	"crypto/ed25519"
	"fmt"

	"moviereview/app/models"
	"moviereview/app/pubkey"

	"github.com/mr-tron/base58"
)

const (
	SignatureLength = ed25519.SignatureSize
	HashLength      = 32
)

// AccountMeta names an account an instruction touches and how.
type AccountMeta struct {
	PublicKey  pubkey.PublicKey `json:"pubkey"`
	IsSigner   bool             `json:"isSigner"`
	IsWritable bool             `json:"isWritable"`
}

// Meta is shorthand for building an AccountMeta.
func Meta(key pubkey.PublicKey, signer, writable bool) AccountMeta {
	return AccountMeta{PublicKey: key, IsSigner: signer, IsWritable: writable}
}

// Instruction is a single call into a program.
type Instruction struct {
	ProgramID pubkey.PublicKey `json:"programId"`
	Accounts  []AccountMeta    `json:"accounts"`
	Data      []byte           `json:"data"`
}

// Signature is an ed25519 signature over a transaction message.
type Signature [SignatureLength]byte

func (s Signature) String() string {
	return base58.Encode(s[:])
}

func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Signature) UnmarshalText(text []byte) error {
	raw, err := base58.Decode(string(text))
	if err != nil || len(raw) != SignatureLength {
		return fmt.Errorf("%w: bad signature %q", ErrInvalidTransactionEncoding, text)
	}
	copy(s[:], raw)
	return nil
}

// Hash is a bank hash. Transactions name a recent one to bound their lifetime.
type Hash [HashLength]byte

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	raw, err := base58.Decode(string(text))
	if err != nil || len(raw) != HashLength {
		return fmt.Errorf("%w: bad hash %q", ErrInvalidTransactionEncoding, text)
	}
	copy(h[:], raw)
	return nil
}

// Signer produces signatures for one public key.
type Signer interface {
	PublicKey() pubkey.PublicKey
	Sign(message []byte) []byte
}

// Transaction is an ordered list of instructions executed atomically.
type Transaction struct {
	FeePayer     pubkey.PublicKey `json:"feePayer"`
	RecentHash   Hash             `json:"recentHash"`
	Instructions []Instruction    `json:"instructions"`
	Signatures   []Signature      `json:"signatures"`
}

func NewTransaction(feePayer pubkey.PublicKey, recentHash Hash, instructions ...Instruction) *Transaction {
	return &Transaction{
		FeePayer:     feePayer,
		RecentHash:   recentHash,
		Instructions: instructions,
	}
}

// Signers lists the required signers: the fee payer first, then every
// account flagged as signer, in first-seen order.
func (tx *Transaction) Signers() []pubkey.PublicKey {
	seen := map[pubkey.PublicKey]bool{tx.FeePayer: true}
	signers := []pubkey.PublicKey{tx.FeePayer}
	for _, ix := range tx.Instructions {
		for _, meta := range ix.Accounts {
			if meta.IsSigner && !seen[meta.PublicKey] {
				seen[meta.PublicKey] = true
				signers = append(signers, meta.PublicKey)
			}
		}
	}
	return signers
}

// Message is the byte string every signer signs.
func (tx *Transaction) Message() []byte {
	w := models.NewWriter(256).
		PublicKey(tx.FeePayer).
		Raw(tx.RecentHash[:]).
		Uint32(uint32(len(tx.Instructions)))
	for _, ix := range tx.Instructions {
		w.PublicKey(ix.ProgramID).Uint32(uint32(len(ix.Accounts)))
		for _, meta := range ix.Accounts {
			w.PublicKey(meta.PublicKey).Bool(meta.IsSigner).Bool(meta.IsWritable)
		}
		w.Blob(ix.Data)
	}
	return w.Bytes()
}

// Sign fills Signatures from the given signers. Every required signer must
// be present.
func (tx *Transaction) Sign(signers ...Signer) error {
	byKey := make(map[pubkey.PublicKey]Signer, len(signers))
	for _, s := range signers {
		byKey[s.PublicKey()] = s
	}
	msg := tx.Message()
	required := tx.Signers()
	tx.Signatures = make([]Signature, len(required))
	for i, key := range required {
		s, ok := byKey[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSignature, key)
		}
		copy(tx.Signatures[i][:], s.Sign(msg))
	}
	return nil
}

// Verify checks one valid signature per required signer.
func (tx *Transaction) Verify() error {
	if len(tx.Instructions) == 0 {
		return ErrEmptyTransaction
	}
	required := tx.Signers()
	if len(tx.Signatures) != len(required) {
		return fmt.Errorf("%w: want %d signatures, got %d", ErrMissingSignature, len(required), len(tx.Signatures))
	}
	msg := tx.Message()
	for i, key := range required {
		if !ed25519.Verify(ed25519.PublicKey(key[:]), msg, tx.Signatures[i][:]) {
			return fmt.Errorf("%w: signer %s", ErrSignatureVerification, key)
		}
	}
	return nil
}

// ID is the first signature, which identifies the transaction.
func (tx *Transaction) ID() Signature {
	if len(tx.Signatures) == 0 {
		return Signature{}
	}
	return tx.Signatures[0]
}
