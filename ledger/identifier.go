package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"

	"github.com/quillpay/quill/models"
)

// accountIDDomain is the domain separator prepended to the digest
// preimage, per the ledger's account identifier specification. The
// leading byte is the separator length.
var accountIDDomain = []byte("\x0Aaccount-id")

// defaultSubaccount is the all-zero subaccount. The wallet only ever
// addresses the default subaccount of a principal.
var defaultSubaccount [32]byte

// ValidatePrincipal checks that a principal has the textual shape the
// network issues: non-empty groups of lowercase base32 characters
// joined by dashes. A malformed principal fails with a ValidationError
// rather than being silently hashed into a garbage account identifier.
func ValidatePrincipal(principal string) error {
	if principal == "" {
		return models.ValidationError{Reason: "principal is empty"}
	}
	if len(principal) > 63 {
		return models.ValidationError{Reason: "principal exceeds maximum length"}
	}
	lastDash := true
	for _, r := range principal {
		switch {
		case r == '-':
			if lastDash {
				return models.ValidationError{Reason: "principal contains an empty group"}
			}
			lastDash = true
		case (r >= 'a' && r <= 'z') || (r >= '2' && r <= '7') || (r >= '0' && r <= '9'):
			lastDash = false
		default:
			return models.ValidationError{Reason: "principal contains invalid characters"}
		}
	}
	if lastDash {
		return models.ValidationError{Reason: "principal ends with a dash"}
	}
	return nil
}

// DeriveAccountID maps a principal to its canonical ledger-addressable
// account identifier. The identifier is the SHA-224 digest of the
// domain separator, the principal, and the default subaccount, prefixed
// with a big-endian CRC-32 checksum of the digest and hex encoded. The
// derivation is deterministic: the same principal yields the same
// identifier across calls and process restarts.
func DeriveAccountID(principal string) (string, error) {
	if err := ValidatePrincipal(principal); err != nil {
		return "", err
	}

	h := sha256.New224()
	h.Write(accountIDDomain)
	h.Write([]byte(principal))
	h.Write(defaultSubaccount[:])
	digest := h.Sum(nil)

	checksum := make([]byte, 4)
	binary.BigEndian.PutUint32(checksum, crc32.ChecksumIEEE(digest))

	return hex.EncodeToString(append(checksum, digest...)), nil
}
