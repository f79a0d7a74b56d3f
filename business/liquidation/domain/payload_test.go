package domain

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/internal/apperror"
)

func TestPayloadRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{name: "one_wei", target: "1"},
		{name: "typical_repay", target: "45000000000000000000000"},
		{name: "max_word", target: "115792089237316195423570985008687907853269984665640564039457584007913129639935"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := uint256.MustFromDecimal(tt.target)
			payload := EncodePayload(target)

			if len(payload) != 32 {
				t.Fatalf("payload length = %d, want 32", len(payload))
			}
			decoded, err := DecodePayload(payload)
			if err != nil {
				t.Fatalf("DecodePayload error: %v", err)
			}
			if !decoded.Eq(target) {
				t.Errorf("decoded = %s, want %s", decoded, target)
			}
		})
	}
}

func TestDecodePayload_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "empty", payload: nil},
		{name: "short", payload: make([]byte, 31)},
		{name: "long", payload: make([]byte, 33)},
		{name: "zero_target", payload: make([]byte, 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload(tt.payload)
			if apperror.GetCode(err) != apperror.CodeInvalidInput {
				t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeInvalidInput)
			}
		})
	}
}
