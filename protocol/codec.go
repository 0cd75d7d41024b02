package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrUnknownCodec = errors.New("protocol: unknown codec")
	ErrUnknownType  = errors.New("protocol: missing message type")
)

// Codec 信封的编解码；FrameType 为 websocket 帧类型
type Codec interface {
	Name() string
	FrameType() int
	Encode(e Envelope) ([]byte, error)
	Decode(b []byte) (Envelope, error)
}

// JSON 文本帧
type JSON struct{}

func (JSON) Name() string   { return "json" }
func (JSON) FrameType() int { return websocket.TextMessage }

func (JSON) Encode(e Envelope) ([]byte, error) { return json.Marshal(e) }

func (JSON) Decode(b []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, fmt.Errorf("protocol: decode json: %w", err)
	}
	return checkType(e)
}

// Msgpack 二进制帧
type Msgpack struct{}

func (Msgpack) Name() string   { return "msgpack" }
func (Msgpack) FrameType() int { return websocket.BinaryMessage }

func (Msgpack) Encode(e Envelope) ([]byte, error) { return msgpack.Marshal(&e) }

func (Msgpack) Decode(b []byte) (Envelope, error) {
	var e Envelope
	if err := msgpack.Unmarshal(b, &e); err != nil {
		return Envelope{}, fmt.Errorf("protocol: decode msgpack: %w", err)
	}
	return checkType(e)
}

func checkType(e Envelope) (Envelope, error) {
	e.Type = strings.ToLower(strings.TrimSpace(e.Type))
	if e.Type == "" {
		return Envelope{}, ErrUnknownType
	}
	return e, nil
}

// CodecByName json / msgpack
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON{}, nil
	case "msgpack", "mp":
		return Msgpack{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}
