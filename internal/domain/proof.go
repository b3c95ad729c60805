package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Hash256 is a hex-encoded SHA-256 digest.
type Hash256 string

// IsZero reports whether the hash is empty.
func (h Hash256) IsZero() bool { return h == "" }

// sum256 computes the hex-encoded SHA-256 digest of data.
func sum256(data []byte) Hash256 {
	sum := sha256.Sum256(data)
	return Hash256(hex.EncodeToString(sum[:]))
}

// Proof configuration constants.
const (
	// ProofMaxAge is the staleness window after which a proof no longer
	// verifies, regardless of its confidence.
	ProofMaxAge = 24 * time.Hour

	// MinProofConfidence is the exclusive lower bound a proof's
	// confidence must clear to verify.
	MinProofConfidence = 0.70
)

// Proof is a hashed, timestamped, confidence-scored attestation that one
// piece of evidence was gathered for a claim. A Proof is immutable after
// creation; ownership transfers to the verdict that aggregates it and no
// proof is ever mutated in place.
type Proof struct {
	// Kind is the corroboration channel this proof attests.
	Kind EvidenceKind `json:"kind"`

	// DataHash is the SHA-256 of the canonicalized evidence input.
	DataHash Hash256 `json:"data_hash"`

	// ProofHash binds DataHash with GeneratedAt, preventing replay of a
	// proof across time without re-hashing.
	ProofHash Hash256 `json:"proof_hash"`

	// Confidence is the deterministic quality score of the underlying
	// evidence, in [0, 1].
	Confidence float64 `json:"confidence"`

	// GeneratedAt records when the proof was produced.
	GeneratedAt time.Time `json:"generated_at"`

	// Valid reports whether generation succeeded end to end.
	Valid bool `json:"valid"`
}

// Generator turns typed evidence payloads into hashed Proof records.
// The zero-argument NewGenerator constructor is all that is needed;
// the generator is stateless and safe for concurrent use. Generation is
// pure except for reading the supplied clock.
type Generator struct {
	validate *validator.Validate
}

// NewGenerator creates a proof Generator.
func NewGenerator() *Generator {
	return &Generator{validate: validator.New()}
}

// Generate produces a Proof for the given evidence input. The data hash
// is the SHA-256 of the RFC 8785 canonical form of the input; the proof
// hash chains the data hash with the generation timestamp. Confidence is
// derived deterministically from the input's own quality signals.
// Generate performs no I/O and fails with ErrMalformedEvidence when the
// input is missing required fields or cannot be canonicalized.
func (g *Generator) Generate(input EvidenceInput, now time.Time) (Proof, error) {
	if input == nil {
		return Proof{}, NewEvidenceError("", "", ErrMalformedEvidence)
	}

	if err := g.validate.Struct(input); err != nil {
		return Proof{}, NewEvidenceError(input.Kind(), firstFailedField(err),
			fmt.Errorf("%w: %v", ErrMalformedEvidence, err))
	}

	canonical, err := Canonicalize(input)
	if err != nil {
		return Proof{}, err
	}

	dataHash := sum256(canonical)
	generatedAt := now.UTC()
	proofHash := sum256(append([]byte(dataHash), []byte(generatedAt.Format(time.RFC3339Nano))...))

	return Proof{
		Kind:        input.Kind(),
		DataHash:    dataHash,
		ProofHash:   proofHash,
		Confidence:  input.Quality(),
		GeneratedAt: generatedAt,
		Valid:       true,
	}, nil
}

// Verify performs a recomputation-free structural check of a proof.
// It returns false, never an error, when either hash is empty, the
// confidence does not clear MinProofConfidence, or the proof is older
// than ProofMaxAge relative to now. The check is pure and total.
func (g *Generator) Verify(proof Proof, now time.Time) bool {
	if proof.DataHash.IsZero() || proof.ProofHash.IsZero() {
		return false
	}
	if proof.Confidence <= MinProofConfidence {
		return false
	}
	if now.Sub(proof.GeneratedAt) > ProofMaxAge {
		return false
	}
	return proof.Valid
}

// firstFailedField pulls the leading field name out of a validator error
// so EvidenceError can point at the offending field.
func firstFailedField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}
