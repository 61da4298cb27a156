package models

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"moviereview/app/pubkey"
)

var (
	ErrAccountDiscriminatorMismatch = errors.New("account discriminator did not match what was expected")
	ErrAccountDidNotDeserialize     = errors.New("failed to deserialize the account")
)

// Discriminator returns the 8-byte tag for a namespaced name, e.g.
// "account:MovieAccountState" or "global:add_movie_review".
func Discriminator(namespace, name string) [DiscriminatorLength]byte {
	var d [DiscriminatorLength]byte
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	copy(d[:], sum[:DiscriminatorLength])
	return d
}

// Writer appends little-endian fields in declaration order.
type Writer struct {
	buf []byte
}

func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) Raw(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

func (w *Writer) Uint8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) Bool(v bool) *Writer {
	if v {
		return w.Uint8(1)
	}
	return w.Uint8(0)
}

func (w *Writer) Uint32(v uint32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

func (w *Writer) Uint64(v uint64) *Writer {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	return w
}

func (w *Writer) PublicKey(k pubkey.PublicKey) *Writer {
	w.buf = append(w.buf, k[:]...)
	return w
}

// Str writes a u32 length prefix followed by the raw bytes.
func (w *Writer) Str(s string) *Writer {
	w.Uint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
	return w
}

// Blob writes a u32 length prefix followed by b.
func (w *Writer) Blob(b []byte) *Writer {
	w.Uint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
	return w
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reader consumes fields written by Writer. The first failure sticks and is
// reported by Err.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrAccountDidNotDeserialize, n, r.off, len(r.data))
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// Expect consumes a discriminator and fails if it differs from want.
func (r *Reader) Expect(want [DiscriminatorLength]byte) {
	got := r.take(DiscriminatorLength)
	if r.err != nil {
		return
	}
	if [DiscriminatorLength]byte(got) != want {
		r.err = ErrAccountDiscriminatorMismatch
	}
}

func (r *Reader) Uint8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Bool() bool {
	return r.Uint8() != 0
}

func (r *Reader) Uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) Uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) PublicKey() pubkey.PublicKey {
	var k pubkey.PublicKey
	b := r.take(pubkey.PublicKeyLength)
	if b != nil {
		copy(k[:], b)
	}
	return k
}

func (r *Reader) Str() string {
	n := r.Uint32()
	b := r.take(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *Reader) Err() error {
	return r.err
}
