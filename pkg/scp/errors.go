package scp

import "github.com/botho-project/botho/pkg/bothoerr"

const opHandleEnvelope = "scp.HandleEnvelope"

var (
	errBadSignature     = bothoerr.New(bothoerr.KindValidation, opHandleEnvelope, "envelope signature does not validate")
	errUnknownSender    = bothoerr.New(bothoerr.KindValidation, opHandleEnvelope, "sender is not a member of this slot's quorum set universe")
	errSlotMismatch     = bothoerr.New(bothoerr.KindValidation, opHandleEnvelope, "envelope slot does not match this slot")
	errUnsortedBallot   = bothoerr.New(bothoerr.KindValidation, opHandleEnvelope, "ballot values are not in ascending order")
	errMalformedPayload = bothoerr.New(bothoerr.KindValidation, opHandleEnvelope, "payload does not decode for its declared kind")
	errUnknownValue     = bothoerr.New(bothoerr.KindValidation, opHandleEnvelope, "value references a minting transaction this node cannot validate")
)
