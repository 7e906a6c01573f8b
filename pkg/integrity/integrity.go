// Package integrity hashes, signs and verifies health record content.
//
// The signed payload is the hex SHA-256 of a canonical JSON document whose
// field order is fixed by struct declaration, so the same logical record
// always produces the same hash no matter how it was assembled.
package integrity

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const KeyBits = 2048

var (
	ErrInvalidPrivateKey = errors.New("private key is not a PEM encoded RSA key")
	ErrInvalidPublicKey  = errors.New("public key is not a PEM encoded RSA key")
)

// Content mirrors the structured body of a record.
type Content struct {
	Notes        string
	Diagnosis    string
	Treatment    string
	PrivateNotes string
}

// Fields is the immutable subset of a record covered by the hash.
type Fields struct {
	PatientUUID uuid.UUID
	Title       string
	Date        time.Time
	RecordType  string
	Content     Content
	Facility    string
}

type canonicalContent struct {
	Notes        string `json:"notes"`
	Diagnosis    string `json:"diagnosis"`
	Treatment    string `json:"treatment"`
	PrivateNotes string `json:"privateNotes"`
}

type canonicalRecord struct {
	PatientUUID string           `json:"patientUuid"`
	Title       string           `json:"title"`
	Date        string           `json:"date"`
	RecordType  string           `json:"recordType"`
	Content     canonicalContent `json:"content"`
	Facility    string           `json:"facility"`
}

// Canonical returns the exact bytes that get hashed.
func Canonical(f Fields) ([]byte, error) {
	return json.Marshal(canonicalRecord{
		PatientUUID: f.PatientUUID.String(),
		Title:       f.Title,
		Date:        f.Date.UTC().Truncate(time.Second).Format(time.RFC3339),
		RecordType:  f.RecordType,
		Content: canonicalContent{
			Notes:        f.Content.Notes,
			Diagnosis:    f.Content.Diagnosis,
			Treatment:    f.Content.Treatment,
			PrivateNotes: f.Content.PrivateNotes,
		},
		Facility: f.Facility,
	})
}

// CanonicalHash returns the lowercase hex SHA-256 of the canonical form.
func CanonicalHash(f Fields) (string, error) {
	doc, err := Canonical(f)
	if err != nil {
		return "", fmt.Errorf("canonicalize record: %w", err)
	}
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:]), nil
}

// Sign produces a base64 RSASSA-PKCS1-v1_5 / SHA-256 signature over the
// canonical hash string.
func Sign(f Fields, privateKeyPEM string) (string, error) {
	key, err := ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return "", err
	}

	hash, err := CanonicalHash(f)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256([]byte(hash))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign record hash: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify reports whether signature was produced over f by the holder of the
// private half of publicKeyPEM. Any malformed input yields false.
func Verify(f Fields, signature, publicKeyPEM string) bool {
	if signature == "" || publicKeyPEM == "" {
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(sig) == 0 {
		return false
	}

	key, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return false
	}

	hash, err := CanonicalHash(f)
	if err != nil {
		return false
	}

	digest := sha256.Sum256([]byte(hash))
	return rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], sig) == nil
}

// GenerateKeyPair creates an RSA-2048 keypair: public key as PKIX
// "PUBLIC KEY", private key as PKCS#8 "PRIVATE KEY".
func GenerateKeyPair() (publicPEM, privatePEM string, err error) {
	key, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return "", "", fmt.Errorf("generate rsa key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("marshal public key: %w", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", "", fmt.Errorf("marshal private key: %w", err)
	}

	publicPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	privatePEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}))
	return publicPEM, privatePEM, nil
}

// ParsePrivateKey accepts PKCS#8 and PKCS#1 encodings.
func ParsePrivateKey(privateKeyPEM string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, ErrInvalidPrivateKey
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		if rsaKey, ok := key.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
		return nil, ErrInvalidPrivateKey
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	return key, nil
}

// ParsePublicKey accepts PKIX and PKCS#1 encodings.
func ParsePublicKey(publicKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, ErrInvalidPublicKey
	}

	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		if rsaKey, ok := key.(*rsa.PublicKey); ok {
			return rsaKey, nil
		}
		return nil, ErrInvalidPublicKey
	}

	key, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	return key, nil
}
