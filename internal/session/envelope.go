package session

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const envelopeVersion = 1

// ErrWrongPassphrase is returned when a sealed session cannot be opened.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted session")

// envelope is the stored form of a sealed session.
type envelope struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_n"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// scrypt cost parameters; tests lower N.
var scryptN, scryptR, scryptP = 1 << 15, 8, 1

// Limits on parameters read back from a stored envelope. scrypt needs
// about 128*N*r bytes.
const (
	maxScryptMemory = 64 << 20
	maxScryptP      = 4
	saltSize        = 16
)

// ErrEnvelopeParams is returned for a stored envelope whose key
// derivation parameters are out of range.
var ErrEnvelopeParams = errors.New("session envelope parameters out of range")

func checkParams(env envelope) error {
	switch {
	case env.N < 2 || env.N&(env.N-1) != 0:
	case env.R < 1 || env.P < 1 || env.P > maxScryptP:
	case int64(env.N)*int64(env.R)*128 > maxScryptMemory:
	case len(env.Salt) != saltSize:
	default:
		return nil
	}
	return fmt.Errorf("%w: N=%d r=%d p=%d salt=%d bytes", ErrEnvelopeParams, env.N, env.R, env.P, len(env.Salt))
}

func seal(passphrase string, plain []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}
	aead, err := deriveAEAD(passphrase, salt, scryptN, scryptR, scryptP)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}

	return json.Marshal(envelope{
		V:      envelopeVersion,
		Salt:   salt,
		N:      scryptN,
		R:      scryptR,
		P:      scryptP,
		Nonce:  nonce,
		Cipher: aead.Seal(nil, nonce, plain, salt),
	})
}

func open(passphrase string, sealed []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(sealed, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.V == 0 || env.V > envelopeVersion {
		return nil, fmt.Errorf("unsupported session envelope version %d", env.V)
	}
	if err := checkParams(env); err != nil {
		return nil, err
	}
	aead, err := deriveAEAD(passphrase, env.Salt, env.N, env.R, env.P)
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, env.Nonce, env.Cipher, env.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return plain, nil
}

func deriveAEAD(passphrase string, salt []byte, n, r, p int) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, n, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return aead, nil
}
