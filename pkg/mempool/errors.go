package mempool

import "github.com/botho-project/botho/pkg/bothoerr"

var (
	errTooLarge               = bothoerr.New(bothoerr.KindValidation, "mempool.Submit", "transaction exceeds 100KB size limit")
	errFailedVerify           = bothoerr.New(bothoerr.KindValidation, "mempool.Submit", "transaction failed ledger verification")
	errAlreadyInMempool       = bothoerr.New(bothoerr.KindValidation, "mempool.Submit", "key image already referenced by a pending transaction")
	errFeeBelowRequired       = bothoerr.New(bothoerr.KindValidation, "mempool.Submit", "fee below required_fee for this transaction's size and source wealth")
	errPoolFull               = bothoerr.New(bothoerr.KindResourceExhaustion, "mempool.Submit", "mempool at capacity and no lower fee-rate entry to evict")
	errInsufficientCandidates = bothoerr.New(bothoerr.KindValidation, "mempool.SelectDecoys", "fewer than 19 eligible decoy candidates in the live UTXO set")
)
