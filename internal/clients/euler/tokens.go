package euler

// knownTokens maps common collateral addresses (lower case) to display
// names, saving one name() call per collateral for the assets that actually
// appear in Euler vaults today. Unknown addresses fall through to the
// on-chain lookup.
var knownTokens = map[string]string{
	// Ethereum
	"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": "Wrapped Ether",
	"0x7f39c581f595b53c5cb19bd0b3f8da6c935e2ca0": "Wrapped liquid staked Ether 2.0",
	"0xae7ab96520de3a18e5e111b5eaab095312d7fe84": "Liquid staked Ether 2.0",
	"0x2260fac5e5542a773aa44fbcfedf7c193bc2c599": "Wrapped BTC",
	"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48": "USD Coin",
	"0xdac17f958d2ee523a2206206994597c13d831ec7": "Tether USD",
	"0x6b175474e89094c44da98b954eedeac495271d0f": "Dai Stablecoin",
	"0xbe9895146f7af43049ca1c1ae358b0541ea49704": "Coinbase Wrapped Staked ETH",
	"0xcbb7c0000ab88b473b1f5afd9ef808440eed33bf": "Coinbase Wrapped BTC",

	// Base
	"0x4200000000000000000000000000000000000006": "Wrapped Ether",
	"0x833589fcd6edb6e08f4c7c32d4f71b54bda02913": "USD Coin",
	"0xc1cba3fcea344f92d9239c08c0568f6f2f0ee452": "Wrapped liquid staked Ether 2.0",
	"0x2ae3f1ec7f1f5012cfeab0185bfc7aa3cf0dec22": "Coinbase Wrapped Staked ETH",
	"0x04c0599ae5a44757c0af6f9ec3b93da8976c150a": "Wrapped eETH",
}
