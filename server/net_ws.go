package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendQueueSize = 256
	writeWait     = 5 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
	maxFrameSize  = 1 << 20 // 1MB
)

// outbound 待发送帧；due 为模拟延迟后的最早发送时间
type outbound struct {
	frame int
	data  []byte
	due   time.Time
	close bool // 发完前面的帧后关闭连接
}

// ClientConn 负责发送（写）数据到客户端的轻量包装。
// Enqueue 只由房间 Tick 线程调用。
type ClientConn struct {
	ID string

	ws   *websocket.Conn
	send chan outbound

	lastDue   time.Time
	done      chan struct{}
	closeOnce sync.Once
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ID:   uuid.NewString(),
		ws:   ws,
		send: make(chan outbound, sendQueueSize),
		done: make(chan struct{}),
	}
}

// Enqueue 压入发送队列。延迟只会推后、不会重排：due 不早于上一帧。
// 队列满说明对端消费太慢，直接踢掉而不是丢帧（通道必须可靠有序）。
func (c *ClientConn) Enqueue(frame int, b []byte, delay time.Duration) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	due := time.Now().Add(delay)
	if due.Before(c.lastDue) {
		due = c.lastDue
	}
	c.lastDue = due
	select {
	case c.send <- outbound{frame: frame, data: b, due: due}:
		return nil
	default:
		c.Kick("slow consumer")
		return ErrSlowConsumer
	}
}

// CloseAfterFlush 排在已入队的帧之后关闭
func (c *ClientConn) CloseAfterFlush() {
	select {
	case c.send <- outbound{close: true, due: c.lastDue}:
	default:
		c.Close()
	}
}

// Kick 发送关闭帧并断开
func (c *ClientConn) Kick(reason string) {
	if c.ws != nil {
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	}
	c.Close()
}

// Close 关闭底层连接；可重复调用
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

// Done 连接关闭后可读
func (c *ClientConn) Done() <-chan struct{} { return c.done }

// writePump 独立协程，负责从 send 队列写出到 WS，并定时 ping 保活
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if wait := time.Until(msg.due); wait > 0 {
				select {
				case <-time.After(wait):
				case <-c.done:
					return
				}
			}
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if msg.close {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(msg.frame, msg.data); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端消息，解码后交给房间（阻塞投递，保证不丢、按序）
func (c *ClientConn) readPump(room *Room, playerID PlayerID) {
	defer c.Close()
	// 读泵退出时，通知房间在 Tick 线程中移除该玩家
	defer room.RequestLeave(playerID, c)
	c.ws.SetReadLimit(maxFrameSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { c.ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Debugw("read closed", "room", room.ID, "player", playerID, "conn", c.ID, "err", err)
			}
			return
		}
		env, err := room.codec.Decode(payload)
		if err != nil {
			Log.Debugw("decode failed", "room", room.ID, "player", playerID, "err", err)
			continue
		}
		if err := room.OnInbound(Inbound{From: playerID, Conn: c, Envelope: env}); err != nil {
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 跨域由 cors 中间件负责
		return true
	},
}

// HandleWS WebSocket 接入：?room=room-1&player=alice（player 为空时分配 uuid）
func (m *RoomManager) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = m.Config().DefaultRoom
	}
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		playerID = uuid.NewString()
	}

	room, err := m.GetOrCreateRoom(roomID)
	if err != nil {
		Log.Errorw("room unavailable", "room", roomID, "err", err)
		http.Error(w, "room unavailable", http.StatusServiceUnavailable)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnw("upgrade error", "err", err)
		return
	}

	client := NewClientConn(ws)
	if err := room.RequestJoin(PlayerID(playerID), client); err != nil {
		client.Kick(err.Error())
		return
	}
	Log.Infow("ws connected", "room", roomID, "player", playerID, "conn", client.ID)

	go client.writePump()
	go client.readPump(room, PlayerID(playerID))
}
