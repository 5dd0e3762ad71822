package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	defaultBlockSize = 64 * 1024
	nonceSize        = 24
	keySize          = 32
)

// Service seals and opens single blocks of data.
type Service interface {
	Seal(data []byte) ([]byte, error)
	Open(encrypted []byte) ([]byte, error)
	NonceSize() int
	BlockSize() int
	Overhead() int
}

type srv struct {
	key       [keySize]byte
	blockSize int
}

// NewService creates a secretbox based Service. The key is hex encoded and
// must decode to at least 32 bytes. A blockSize <= 0 selects 64KiB.
func NewService(encryptionKey string, blockSize int) (Service, error) {
	b, err := hex.DecodeString(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decoding encryption key: %w", err)
	}
	if len(b) < keySize {
		return nil, fmt.Errorf("encryption key too short: %d bytes, want %d", len(b), keySize)
	}
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	s := &srv{blockSize: blockSize}
	copy(s.key[:], b)
	return s, nil
}

func (s *srv) Seal(data []byte) ([]byte, error) {
	nonce, err := genNonce()
	if err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], data, &nonce, &s.key), nil
}

func (s *srv) Open(encrypted []byte) ([]byte, error) {
	if len(encrypted) < nonceSize+secretbox.Overhead {
		return nil, errors.New("encrypted block too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], encrypted[:nonceSize])
	d, ok := secretbox.Open(nil, encrypted[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, errors.New("could not decrypt data")
	}
	return d, nil
}

func (s *srv) NonceSize() int { return nonceSize }

func (s *srv) BlockSize() int { return s.blockSize }

func (s *srv) Overhead() int { return secretbox.Overhead }

// GenerateSha256 returns the hex encoded sha256 of b.
func GenerateSha256(b []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(b))
}

func genNonce() ([nonceSize]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return [nonceSize]byte{}, err
	}
	return nonce, nil
}
