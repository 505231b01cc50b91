// Package cryptox implements end-to-end sealing of collaboration payloads.
//
// Room messages are encrypted with AES-GCM under a key derived from the room
// key, so the relay server never sees board content in the clear. The room
// key itself travels only in share-link fragments or the document metadata.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"golang.org/x/crypto/hkdf"
)

// roomKeyInfo namespaces the HKDF expansion so the same room key cannot be
// reused for a different purpose.
const roomKeyInfo = "boardsync/room-seal/v1"

// Fingerprint returns the hex SHA-256 of serialized board content. Content
// that hashes to the fingerprint recorded at the last successful save does
// not need another write.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// DeriveSealKey expands a room key string into a 32-byte AES-256 key using
// HKDF-SHA256. The same room key always yields the same seal key, so every
// participant holding the share link derives identical material.
func DeriveSealKey(roomKey string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(roomKey), nil, []byte(roomKeyInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// SealPayload serializes v to JSON and encrypts it using AES-GCM.
//
// A new random 12-byte nonce is generated for each call; ciphertext and
// nonce are returned separately.
func SealPayload(v any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// OpenPayload decrypts ciphertext produced by SealPayload and unmarshals the
// resulting JSON into v. The key and nonce must match the sealing call.
func OpenPayload(ciphertext, nonce, key []byte, v any) error {
	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return err
	}

	return json.Unmarshal(plaintext, v)
}
