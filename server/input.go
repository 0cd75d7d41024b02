package server

import (
	"errors"

	"gridsync/netsync"
	"gridsync/protocol"
)

var (
	ErrPlayerExists   = errors.New("server: player already in room")
	ErrUnknownPlayer  = errors.New("server: unknown player")
	ErrNotOwner       = errors.New("server: sender does not own entity")
	ErrRateLimited    = errors.New("server: override rate limited")
	ErrRoomStopped    = errors.New("server: room stopped")
	ErrInvalidRequest = errors.New("server: invalid request")
	ErrSlowConsumer   = errors.New("server: send queue full")
	ErrConnClosed     = errors.New("server: connection closed")
)

// Inbound 客户端入站消息（已解码），由 Tick 线程按接收顺序处理
type Inbound struct {
	From     PlayerID
	Conn     *ClientConn // 发送方连接；同名重复连接的消息据此丢弃
	Envelope protocol.Envelope
}

// OverrideRequest 手动覆盖（拖拽/传送）
type OverrideRequest struct {
	Source   PlayerID
	Target   PlayerID
	Position netsync.Vec3
	Trusted  bool // 管理接口发起，跳过来源校验与限流
}

type joinRequest struct {
	id   PlayerID
	conn *ClientConn
}

type leaveRequest struct {
	id   PlayerID
	conn *ClientConn
}
