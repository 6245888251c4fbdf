package safety

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

// DefaultMaxSkew is the default tolerated clock skew for Verify.
const DefaultMaxSkew = 5 * time.Minute

// Signer signs and verifies webhook envelopes with a server-wide secret.
type Signer struct {
	secret []byte
}

// NewSigner builds a Signer from the configured HMAC_SECRET.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign computes HMAC-SHA256 over "<timestampISO>.<payloadBytes>" and returns
// the hex-encoded digest.
func (s *Signer) Sign(payload []byte, timestampISO string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(timestampISO))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature against a freshly computed one, using a
// constant-time comparison, and rejects stale or malformed timestamps.
// maxSkew<=0 uses DefaultMaxSkew.
func (s *Signer) Verify(payload []byte, signatureHex, timestampISO string, maxSkew time.Duration) error {
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}

	ts, err := time.Parse(time.RFC3339Nano, timestampISO)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, timestampISO)
		if err != nil {
			return fmt.Errorf("unparseable timestamp %q", timestampISO)
		}
	}

	skew := time.Since(ts)
	if skew < 0 {
		skew = -skew
	}
	if skew > maxSkew {
		return fmt.Errorf("signature too old: skew %s exceeds max %s", skew, maxSkew)
	}

	expected := s.Sign(payload, timestampISO)

	if len(expected) != len(signatureHex) {
		return fmt.Errorf("signature mismatch")
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signatureHex)) != 1 {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
