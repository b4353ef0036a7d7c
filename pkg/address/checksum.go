package address

import (
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// ChecksumValid reports whether a mixed-case EVM address satisfies the
// EIP-55 checksum: the keccak256 hash of the lowercase hex address
// decides, nibble by nibble, which hex letters must be uppercase.
func ChecksumValid(address string) bool {
	hex := strings.TrimPrefix(address, "0x")
	if len(hex) != 40 {
		return false
	}

	hash := crypto.Keccak256([]byte(strings.ToLower(hex)))

	for i := 0; i < len(hex); i++ {
		c := hex[i]
		if c >= '0' && c <= '9' {
			continue
		}

		isLetter := (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isLetter {
			return false
		}

		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}

		wantUpper := nibble >= 8
		if wantUpper != (c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
