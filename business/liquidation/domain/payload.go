package domain

import (
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/internal/apperror"
)

// payloadSize is the wire size of the callback payload: one 256-bit word,
// big-endian, matching the protocol's uint256 encoding.
const payloadSize = 32

// EncodePayload serializes the repay target into the opaque payload the
// borrowing mechanism hands back verbatim to the continuation.
func EncodePayload(repayTarget *uint256.Int) []byte {
	buf := repayTarget.Bytes32()
	return buf[:]
}

// DecodePayload recovers the repay target from the callback payload.
func DecodePayload(payload []byte) (*uint256.Int, error) {
	if len(payload) != payloadSize {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "callback payload size")
	}
	target := new(uint256.Int).SetBytes(payload)
	if target.IsZero() {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "zero repay target")
	}
	return target, nil
}
