package network

import "strings"

// Tag identifies the blockchain network a token settles on.
type Tag string

const (
	Bitcoin     Tag = "bitcoin"
	Ethereum    Tag = "ethereum"
	BSC         Tag = "bsc"
	Polygon     Tag = "polygon"
	Arbitrum    Tag = "arbitrum"
	Optimism    Tag = "optimism"
	Avalanche   Tag = "avalanche"
	Solana      Tag = "solana"
	Cardano     Tag = "cardano"
	XRP         Tag = "xrp"
	Litecoin    Tag = "litecoin"
	BitcoinCash Tag = "bitcoincash"
	Dogecoin    Tag = "dogecoin"
	Tron        Tag = "tron"
	Stellar     Tag = "stellar"
	Cosmos      Tag = "cosmos"
	Polkadot    Tag = "polkadot"
	Kusama      Tag = "kusama"
	Near        Tag = "near"
	Algorand    Tag = "algorand"
	Tezos       Tag = "tezos"
	EOS         Tag = "eos"
)

// rule is one ordered classification predicate. A ticker matches when it
// equals one of the exact tickers, carries one of the provider's network
// suffixes, or belongs to the curated token list for the network.
type rule struct {
	tag      Tag
	exact    []string
	suffixes []string
	tokens   []string
}

func (r rule) matches(s string) bool {
	if s == "" {
		return false
	}
	for _, e := range r.exact {
		if s == e {
			return true
		}
	}
	for _, suf := range r.suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	for _, t := range r.tokens {
		if s == t {
			return true
		}
	}
	return false
}

// Rule order is significant: some tickers would match more than one
// heuristic (a Solana-wrapped asset vs. a generically named token), and
// the first match wins. Keep this order stable or classification stops
// being deterministic across releases.
var rules = []rule{
	{tag: Bitcoin, exact: []string{"btc", "bitcoin"}},
	{tag: Solana, exact: []string{"sol", "solana"}, suffixes: []string{"spl"},
		tokens: []string{"ray", "srm", "bonk", "jup", "wif", "orca", "pyth", "usdtsol", "usdcsol"}},
	{tag: BSC, exact: []string{"bnb", "bsc", "bnbmainnet"}, suffixes: []string{"bsc", "bep20"},
		tokens: []string{"cake", "busd"}},
	{tag: Polygon, exact: []string{"matic", "pol", "polygon"}, suffixes: []string{"matic", "polygon"}},
	{tag: Arbitrum, exact: []string{"arb", "arbitrum"}, suffixes: []string{"arbitrum"}},
	{tag: Optimism, exact: []string{"op", "optimism"}, suffixes: []string{"optimism"}},
	{tag: Avalanche, exact: []string{"avax", "avalanche"}, suffixes: []string{"avax", "cchain"}},
	{tag: Cardano, exact: []string{"ada", "cardano"}},
	{tag: XRP, exact: []string{"xrp", "ripple"}},
	{tag: Litecoin, exact: []string{"ltc", "litecoin"}},
	{tag: BitcoinCash, exact: []string{"bch", "bitcoincash"}},
	{tag: Dogecoin, exact: []string{"doge", "dogecoin"}},
	{tag: Tron, exact: []string{"trx", "tron"}, suffixes: []string{"trc20"},
		tokens: []string{"btt", "jst", "sun"}},
	{tag: Stellar, exact: []string{"xlm", "stellar"}},
	{tag: Cosmos, exact: []string{"atom", "cosmos"}},
	{tag: Polkadot, exact: []string{"dot", "polkadot"}},
	{tag: Kusama, exact: []string{"ksm", "kusama"}},
	{tag: Near, exact: []string{"near"}},
	{tag: Algorand, exact: []string{"algo", "algorand"}},
	{tag: Tezos, exact: []string{"xtz", "tezos"}},
	{tag: EOS, exact: []string{"eos"}},
}

// Classify maps a provider ticker and display symbol to a network tag.
// Unrecognized tokens are treated as ERC-20 style assets on Ethereum.
func Classify(tokenID, tokenSymbol string) Tag {
	id := strings.ToLower(strings.TrimSpace(tokenID))
	sym := strings.ToLower(strings.TrimSpace(tokenSymbol))

	for _, r := range rules {
		if r.matches(id) || r.matches(sym) {
			return r.tag
		}
	}
	return Ethereum
}

// IsEVM reports whether addresses on the network follow the Ethereum
// 0x-hex format.
func IsEVM(tag Tag) bool {
	switch tag {
	case Ethereum, BSC, Polygon, Arbitrum, Optimism, Avalanche:
		return true
	}
	return false
}

var displayNames = map[Tag]string{
	Bitcoin:     "Bitcoin",
	Ethereum:    "Ethereum",
	BSC:         "BNB Smart Chain",
	Polygon:     "Polygon",
	Arbitrum:    "Arbitrum",
	Optimism:    "Optimism",
	Avalanche:   "Avalanche",
	Solana:      "Solana",
	Cardano:     "Cardano",
	XRP:         "XRP",
	Litecoin:    "Litecoin",
	BitcoinCash: "Bitcoin Cash",
	Dogecoin:    "Dogecoin",
	Tron:        "Tron",
	Stellar:     "Stellar",
	Cosmos:      "Cosmos",
	Polkadot:    "Polkadot",
	Kusama:      "Kusama",
	Near:        "NEAR",
	Algorand:    "Algorand",
	Tezos:       "Tezos",
	EOS:         "EOS",
}

// DisplayName returns the human-readable network name for messages.
func (t Tag) DisplayName() string {
	if name, ok := displayNames[t]; ok {
		return name
	}
	return string(t)
}
