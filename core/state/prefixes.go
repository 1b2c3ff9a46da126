package state

// Raw key prefixes. Keys built from these are keccak-hashed before hitting
// the database, so the prefixes only need to be mutually distinct.
var (
	accountPrefix  = []byte("acct:")
	custodyPrefix  = []byte("custody:")
	pausePrefix    = []byte("pause:")
	escrowPrefix   = []byte("escrow:")
	htlcPrefix     = []byte("htlc:")
	betPrefix      = []byte("bet:")
	priceBetPrefix = []byte("pricebet:")
	vestingPrefix  = []byte("vesting:")
	splitterPrefix = []byte("splitter:")
	vaultPrefix    = []byte("vault:")
	campaignPrefix = []byte("campaign:")
	auctionPrefix  = []byte("auction:")
)
