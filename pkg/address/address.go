package address

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	"flowswap/pkg/network"
)

// Result is the verdict for a single validation call. It is never
// persisted and Validate never fails with an error: malformed input
// yields IsValid false with a reason message.
type Result struct {
	IsValid bool
	Message string
}

func valid(format string, args ...interface{}) Result {
	return Result{IsValid: true, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...interface{}) Result {
	return Result{IsValid: false, Message: fmt.Sprintf(format, args...)}
}

var (
	bitcoinRe      = regexp.MustCompile(`^(1|3|bc1)[a-zA-Z0-9]{24,61}$`)
	solanaRe       = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
	cardanoRe      = regexp.MustCompile(`^addr1[a-z0-9]{98,}$`)
	xrpClassicRe   = regexp.MustCompile(`^r[1-9A-HJ-NP-Za-km-z]{24,34}$`)
	xrpXRe         = regexp.MustCompile(`^X[1-9A-HJ-NP-Za-km-z]{46}$`)
	litecoinRe     = regexp.MustCompile(`^(L|M|ltc1)[a-zA-Z0-9]{24,58}$`)
	tronRe         = regexp.MustCompile(`^T[1-9A-HJ-NP-Za-km-z]{33}$`)
	stellarRe      = regexp.MustCompile(`^G[A-Z2-7]{55}$`)
	cosmosRe       = regexp.MustCompile(`^cosmos1[a-z0-9]{38}$`)
	bchLegacyRe    = regexp.MustCompile(`^[13][1-9A-HJ-NP-Za-km-z]{25,34}$`)
	bchCashRe      = regexp.MustCompile(`^[qp][a-z0-9]{41}$`)
	dogecoinRe     = regexp.MustCompile(`^D[1-9A-HJ-NP-Za-km-z]{33}$`)
	polkadotRe     = regexp.MustCompile(`^1[1-9A-HJ-NP-Za-km-z]{46,47}$`)
	kusamaRe       = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{47,48}$`)
	nearNamedRe    = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*\.(near|testnet)$`)
	nearImplicitRe = regexp.MustCompile(`^[0-9a-f]{64}$`)
	algorandRe     = regexp.MustCompile(`^[A-Z2-7]{58}$`)
	tezosRe        = regexp.MustCompile(`^(tz1|tz2|tz3|KT1)[1-9A-HJ-NP-Za-km-z]{33}$`)
	eosRe          = regexp.MustCompile(`^[a-z1-5]{12}$`)
)

// Validate checks a candidate recipient address against the format rules
// of the given network.
func Validate(addr string, tag network.Tag) Result {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return invalid("Please enter a wallet address")
	}

	if network.IsEVM(tag) {
		return validateEVM(addr, tag)
	}

	switch tag {
	case network.Bitcoin:
		return validateBitcoin(addr)
	case network.Solana:
		return validateSolana(addr)
	case network.Cardano:
		if len(addr) >= 103 && cardanoRe.MatchString(addr) {
			return valid("Valid Cardano address")
		}
		return invalid("Invalid Cardano address format")
	case network.XRP:
		if xrpClassicRe.MatchString(addr) || xrpXRe.MatchString(addr) {
			return valid("Valid XRP address")
		}
		return invalid("Invalid XRP address format")
	case network.Litecoin:
		if len(addr) >= 25 && len(addr) <= 62 && litecoinRe.MatchString(addr) {
			return valid("Valid Litecoin address")
		}
		return invalid("Invalid Litecoin address format")
	case network.Tron:
		if tronRe.MatchString(addr) {
			return valid("Valid Tron address")
		}
		return invalid("Invalid Tron address format")
	case network.Stellar:
		if stellarRe.MatchString(addr) {
			return valid("Valid Stellar address")
		}
		return invalid("Invalid Stellar address format")
	case network.Cosmos:
		if cosmosRe.MatchString(addr) {
			return valid("Valid Cosmos address")
		}
		return invalid("Invalid Cosmos address format")
	case network.BitcoinCash:
		cash := strings.TrimPrefix(addr, "bitcoincash:")
		if bchLegacyRe.MatchString(addr) || bchCashRe.MatchString(cash) {
			return valid("Valid Bitcoin Cash address")
		}
		return invalid("Invalid Bitcoin Cash address format")
	case network.Dogecoin:
		if dogecoinRe.MatchString(addr) {
			return valid("Valid Dogecoin address")
		}
		return invalid("Invalid Dogecoin address format")
	case network.Polkadot:
		if polkadotRe.MatchString(addr) {
			return valid("Valid Polkadot address")
		}
		return invalid("Invalid Polkadot address format")
	case network.Kusama:
		if kusamaRe.MatchString(addr) {
			return valid("Valid Kusama address")
		}
		return invalid("Invalid Kusama address format")
	case network.Near:
		if nearNamedRe.MatchString(addr) || nearImplicitRe.MatchString(addr) {
			return valid("Valid NEAR account")
		}
		return invalid("Invalid NEAR account format")
	case network.Algorand:
		if algorandRe.MatchString(addr) {
			return valid("Valid Algorand address")
		}
		return invalid("Invalid Algorand address format")
	case network.Tezos:
		if tezosRe.MatchString(addr) {
			return valid("Valid Tezos address")
		}
		return invalid("Invalid Tezos address format")
	case network.EOS:
		if eosRe.MatchString(addr) {
			return valid("Valid EOS account name")
		}
		return invalid("Invalid EOS account name")
	}

	// Unknown tags fall through to Ethereum-style validation rather than
	// refusing (accepted tradeoff for unclassifiable tokens).
	return validateEVM(addr, network.Ethereum)
}

func validateBitcoin(addr string) Result {
	if len(addr) < 25 || len(addr) > 62 || !bitcoinRe.MatchString(addr) {
		return invalid("Invalid Bitcoin address format")
	}
	if strings.HasPrefix(addr, "bc1") && len(addr) < 42 {
		return invalid("Invalid SegWit address length")
	}
	if (strings.HasPrefix(addr, "1") || strings.HasPrefix(addr, "3")) && len(addr) < 26 {
		return invalid("Invalid legacy address length")
	}
	return valid("Valid Bitcoin address")
}

func validateSolana(addr string) Result {
	if !solanaRe.MatchString(addr) {
		return invalid("Invalid Solana address format")
	}
	if len(addr) != 44 {
		return invalid("Invalid Solana address length")
	}
	if _, err := solana.PublicKeyFromBase58(addr); err != nil {
		return invalid("Invalid Solana address encoding")
	}
	return valid("Valid Solana address")
}

func validateEVM(addr string, tag network.Tag) Result {
	name := tag.DisplayName()

	if !strings.HasPrefix(addr, "0x") || !common.IsHexAddress(addr) {
		return invalid("Invalid %s address format", name)
	}

	hex := addr[2:]
	hasUpper := strings.ContainsAny(hex, "ABCDEF")
	hasLower := strings.ContainsAny(hex, "abcdef")

	if hasUpper && hasLower {
		if !ChecksumValid(addr) {
			return invalid("Wallet address is not valid. Reason: Invalid checksum")
		}
		return valid("Valid %s address", name)
	}
	return valid("Valid %s address (non-checksummed)", name)
}
