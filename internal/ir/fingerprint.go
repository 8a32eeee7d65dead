package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for request fingerprints. The version suffix changes
// whenever the canonical form of a request changes.
const (
	DomainQuery    = "weavebridge/query/v1"
	DomainMutation = "weavebridge/mutation/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint hashes the canonical JSON of v under domain. Requests that
// differ only in key order or number spelling share a fingerprint.
func Fingerprint(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// QueryFingerprint identifies a query request in logs and plan output.
func QueryFingerprint(req *QueryRequest) string {
	return mustFingerprint(DomainQuery, req)
}

// MutationFingerprint identifies a mutation request in logs and plan output.
func MutationFingerprint(req *MutationRequest) string {
	return mustFingerprint(DomainMutation, req)
}

// mustFingerprint returns "" when v cannot be marshaled; a request that
// decoded from JSON always can.
func mustFingerprint(domain string, v any) string {
	fp, err := Fingerprint(domain, v)
	if err != nil {
		return ""
	}
	return fp
}
