package streaming

import (
	"encoding/json"
	"errors"
	"fmt"
)

type MessageType string

const (
	MessageTypeSummary   MessageType = "summary"
	MessageTypePoisoning MessageType = "poisoning"
)

// Message is the event published after a wallet analysis. Summary messages
// carry the counters; poisoning messages carry one flagged record each.
type Message struct {
	Type            MessageType `json:"type"`
	ChainID         uint64      `json:"chain_id"`
	TraceID         string      `json:"trace_id,omitempty"`
	Address         string      `json:"address"`
	Chain           string      `json:"chain,omitempty"`
	TxHash          string      `json:"tx_hash,omitempty"`
	From            string      `json:"from,omitempty"`
	To              string      `json:"to,omitempty"`
	PoisoningTarget string      `json:"poisoning_target,omitempty"`
	Value           string      `json:"value,omitempty"`
	Total           int         `json:"total,omitempty"`
	SpamCount       int         `json:"spam_count,omitempty"`
	PoisoningCount  int         `json:"poisoning_count,omitempty"`
	Timestamp       int64       `json:"timestamp,omitempty"`
}

func (m Message) validate() error {
	switch m.Type {
	case MessageTypeSummary, MessageTypePoisoning:
	case "":
		return errors.New("message type is required")
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	if m.ChainID == 0 {
		return errors.New("chain_id is required")
	}
	if m.Address == "" {
		return errors.New("address is required")
	}
	return nil
}

func Encode(msg Message) ([]byte, error) {
	if err := msg.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

func Decode(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if err := msg.validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Topic names the per-chain topic under prefix.
func Topic(prefix string, chainID uint64) string {
	return fmt.Sprintf("%s-%d", prefix, chainID)
}
