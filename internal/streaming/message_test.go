package streaming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePoisoning(t *testing.T) {
	msg := Message{
		Type:            MessageTypePoisoning,
		ChainID:         1,
		TraceID:         "4bf92f3577b34da6a3ce929d0e0e4736",
		Address:         "0x1111111111111111111111111111111111111111",
		Chain:           "ethereum",
		TxHash:          "0xlure",
		From:            "0xaaaa12ffffffffffffffffffffffffffffcd1111",
		To:              "0x1111111111111111111111111111111111111111",
		PoisoningTarget: "0xaaaa120000000000000000000000000000cd1111",
		Value:           "0",
		Timestamp:       1770734040,
	}

	payload, err := Encode(msg)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"poisoning_target":"0xaaaa120000000000000000000000000000cd1111"`)

	decoded, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestEncodeRejectsIncompleteMessages(t *testing.T) {
	_, err := Encode(Message{ChainID: 1, Address: "0x1"})
	assert.Error(t, err)

	_, err = Encode(Message{Type: MessageTypeSummary, Address: "0x1"})
	assert.Error(t, err)

	_, err = Encode(Message{Type: "reorg", ChainID: 1, Address: "0x1"})
	assert.Error(t, err)

	_, err = Encode(Message{Type: MessageTypeSummary, ChainID: 1})
	assert.Error(t, err)
}

func TestDecodeRejectsInvalidPayloads(t *testing.T) {
	_, err := Decode([]byte(`{"type":"summary"`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"type":"summary","address":"0x1"}`))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "walletclear-events-56", Topic("walletclear-events", 56))
}
