package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainPayload = "tracker/payload/v1"
	DomainState   = "tracker/state/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// payloadHash identifies a payload by its canonical form, so documents that
// differ only in key order or whitespace hash the same.
func payloadHash(payload []byte) (string, error) {
	canonical, err := Canonicalize(payload)
	if err != nil {
		return "", fmt.Errorf("payload hash: failed to canonicalize: %w", err)
	}
	return hashWithDomain(DomainPayload, canonical), nil
}

// StateID computes a content-addressed ID for a state.
// Seq is part of the identity: two arrivals of the same payload on the same
// side are distinct states.
func StateID(s State) (string, error) {
	hash, err := payloadHash(s.Event.Payload)
	if err != nil {
		return "", fmt.Errorf("StateID: %w", err)
	}
	obj := map[string]any{
		"side":    s.Side.String(),
		"seq":     strconv.FormatInt(s.Seq, 10),
		"payload": hash,
	}
	if k, ok := s.Key.Get(); ok {
		obj["key"] = k
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("StateID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// MustStateID is like StateID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustStateID(s State) string {
	id, err := StateID(s)
	if err != nil {
		panic(err)
	}
	return id
}
