package protocol

import (
	"encoding/json"
	"fmt"
)

func EncodeCommand(c Command) ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode command %s: %w", c.Type, err)
	}
	return b, nil
}

func DecodeCommand(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if c.Type == "" {
		return Command{}, fmt.Errorf("decode command: missing type")
	}
	return c, nil
}

func EncodeBroadcast(b Broadcast) ([]byte, error) {
	buf, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode broadcast %s: %w", b.Type, err)
	}
	return buf, nil
}

func DecodeBroadcast(data []byte) (Broadcast, error) {
	var b Broadcast
	if err := json.Unmarshal(data, &b); err != nil {
		return Broadcast{}, fmt.Errorf("decode broadcast: %w", err)
	}
	if b.Type == "" {
		return Broadcast{}, fmt.Errorf("decode broadcast: missing type")
	}
	return b, nil
}
