package ledger

import "github.com/botho-project/botho/pkg/bothoerr"

var (
	errInvalidHeight           = bothoerr.New(bothoerr.KindValidation, "ledger.ValidateHeader", "height is not parent height + 1")
	errInvalidPrevHash         = bothoerr.New(bothoerr.KindValidation, "ledger.ValidateHeader", "previous_hash does not match parent")
	errTimestampNotMonotonic   = bothoerr.New(bothoerr.KindValidation, "ledger.ValidateHeader", "timestamp precedes parent timestamp")
	errTimestampTooFarInFuture = bothoerr.New(bothoerr.KindValidation, "ledger.ValidateHeader", "timestamp more than 2h in the future")
	errPowNotSatisfied         = bothoerr.New(bothoerr.KindValidation, "ledger.ValidateHeader", "header hash does not satisfy difficulty target")

	errWrongHeight           = bothoerr.New(bothoerr.KindValidation, "ledger.ApplyBlock", "block height is not tip height + 1")
	errDuplicateKeyImageTx   = bothoerr.New(bothoerr.KindValidation, "ledger.ApplyBlock", "two transactions in the same block share a key image")
	errSameBlockUTXORef      = bothoerr.New(bothoerr.KindValidation, "ledger.ApplyBlock", "transaction references an output created earlier in the same block")
	errUTXONotFound          = bothoerr.New(bothoerr.KindValidation, "ledger.GetUTXO", "utxo not found")
	errReorgTooDeep          = bothoerr.New(bothoerr.KindFatal, "ledger.ApplyBlock", "reorg depth exceeds 1: cannot replace an externalized slot")
	errMintingVerifyFailed   = bothoerr.New(bothoerr.KindValidation, "ledger.ApplyBlock", "minting transaction failed verification")
	errPrivateTxVerifyFailed = bothoerr.New(bothoerr.KindValidation, "ledger.ApplyBlock", "private transaction failed verification")

	errTruncatedRecord = bothoerr.New(bothoerr.KindConsistency, "ledger.DecodeUTXO", "on-disk record is shorter than its encoding requires")
)
