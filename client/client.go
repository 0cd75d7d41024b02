package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gridsync/netsync"
	"gridsync/protocol"
	"gridsync/world"
)

var ErrClosed = errors.New("client: connection closed")

// Options 连接与本地模拟参数；零值字段使用默认值
type Options struct {
	URL    string // ws://host:8080/ws
	Room   string
	Player string // 为空时由服务端分配

	Codec    protocol.Codec
	Grid     *world.Grid // 与服务端一致的地图，默认内置地图
	TickRate int
	Speed    float64
	Policy   netsync.TrimPolicy
	Headless bool

	Input  InputSource
	Logger *zap.SugaredLogger
}

func (o *Options) defaults() {
	if o.Codec == nil {
		o.Codec = protocol.JSON{}
	}
	if o.Grid == nil {
		o.Grid = world.Station()
	}
	if o.TickRate <= 0 {
		o.TickRate = 20
	}
	if o.Speed <= 0 {
		o.Speed = 6
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
}

// Client 一个连接到房间的客户端进程。
// 所有副本状态只由 Run 的 Tick 循环读写；读写协程只搬运消息。
type Client struct {
	opts Options
	log  *zap.SugaredLogger
	ws   *websocket.Conn

	self     netsync.EntityID
	replicas map[netsync.EntityID]*netsync.Replica
	dispatch *netsync.Dispatcher
	damage   map[netsync.EntityID]int
	lastErr  string

	inbox      chan protocol.Envelope
	outbox     chan protocol.Envelope
	writerDone chan struct{}
	cmds       chan func(*Client)
}

// Dial 建立 WebSocket 连接
func Dial(ctx context.Context, opts Options) (*Client, error) {
	opts.defaults()
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("client: parse url: %w", err)
	}
	q := u.Query()
	if opts.Room != "" {
		q.Set("room", opts.Room)
	}
	if opts.Player != "" {
		q.Set("player", opts.Player)
	}
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", u.Redacted(), err)
	}
	return &Client{
		opts:       opts,
		log:        opts.Logger,
		ws:         ws,
		replicas:   make(map[netsync.EntityID]*netsync.Replica),
		dispatch:   netsync.NewDispatcher(),
		damage:     make(map[netsync.EntityID]int),
		inbox:      make(chan protocol.Envelope, 256),
		outbox:     make(chan protocol.Envelope, 64),
		writerDone: make(chan struct{}),
		cmds:       make(chan func(*Client), 16),
	}, nil
}

// Run 驱动客户端直到 ctx 取消或连接断开
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.ws.Close()

	readErr := make(chan error, 1)
	go func() { readErr <- c.readLoop(ctx) }()
	go c.writeLoop(ctx)

	dt := time.Second / time.Duration(c.opts.TickRate)
	ticker := time.NewTicker(dt)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return ctx.Err()
		case err := <-readErr:
			return err
		case <-ticker.C:
			c.step(dt)
		}
	}
}

func (c *Client) readLoop(ctx context.Context) error {
	for {
		_, b, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ErrClosed
			}
			return fmt.Errorf("client: read: %w", err)
		}
		env, err := c.opts.Codec.Decode(b)
		if err != nil {
			c.log.Debugw("decode failed", "err", err)
			continue
		}
		select {
		case c.inbox <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) writeLoop(ctx context.Context) {
	defer close(c.writerDone)
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-c.outbox:
			b, err := c.opts.Codec.Encode(env)
			if err != nil {
				c.log.Errorw("encode failed", "type", env.Type, "err", err)
				continue
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.ws.WriteMessage(c.opts.Codec.FrameType(), b); err != nil {
				c.log.Warnw("write failed", "err", err)
				return
			}
		}
	}
}

// step 单个 Tick：消息 → 命令 → 输入 → 副本推进
func (c *Client) step(dt time.Duration) {
	for n := len(c.inbox); n > 0; n-- {
		c.handle(<-c.inbox)
	}
	for n := len(c.cmds); n > 0; n-- {
		(<-c.cmds)(c)
	}
	if owner := c.replicas[c.self]; owner != nil && c.opts.Input != nil && owner.ReadyForInput() {
		if a, ok := c.opts.Input.Sample(); ok {
			if _, err := owner.Submit(a); err != nil {
				c.log.Debugw("submit rejected", "err", err)
			} else {
				c.send(protocol.ActionEnvelope(c.self, a))
			}
		}
	}
	for _, r := range c.replicas {
		r.Tick(dt)
	}
}

// send 写协程退出后丢弃
func (c *Client) send(env protocol.Envelope) {
	select {
	case c.outbox <- env:
	case <-c.writerDone:
	}
}

func (c *Client) handle(env protocol.Envelope) {
	id := netsync.EntityID(env.Entity)
	var err error
	switch env.Type {
	case protocol.TypeWelcome:
		c.self = id
		c.add(netsync.NewOwnerReplica(id, c.opts.Grid, env.Position(), c.opts.Policy, c.replicaConfig()))
	case protocol.TypeSpawn:
		if _, ok := c.replicas[id]; !ok && id != c.self {
			c.add(netsync.NewObserverReplica(id, env.Position(), c.replicaConfig()))
		}
	case protocol.TypeCached:
		if _, ok := c.replicas[id]; !ok && id != c.self {
			c.add(netsync.NewObserverReplica(id, netsync.Vec3{}, c.replicaConfig()))
		}
		err = c.dispatch.Dispatch(env.Cached())
	case protocol.TypeState:
		err = c.dispatch.Dispatch(env.State())
	case protocol.TypeReset:
		err = c.dispatch.Dispatch(env.Reset())
	case protocol.TypeGhost:
		if r, ok := c.replicas[id]; ok {
			r.SetGhost(env.On)
		}
	case protocol.TypeDamage:
		d := env.Damage()
		c.damage[d.Target] += d.Amount
		c.log.Debugw("damage", "target", d.Target, "amount", d.Amount, "kind", d.Kind, "region", d.Region)
	case protocol.TypeLeave:
		c.dispatch.Unregister(id)
		delete(c.replicas, id)
	case protocol.TypeError:
		c.lastErr = env.Reason
		c.log.Warnw("server error", "reason", env.Reason)
	default:
		c.log.Debugw("unknown message", "type", env.Type)
	}
	if err != nil {
		c.log.Debugw("dispatch failed", "type", env.Type, "err", err)
	}
}

func (c *Client) replicaConfig() netsync.ReplicaConfig {
	return netsync.ReplicaConfig{Speed: c.opts.Speed, Headless: c.opts.Headless}
}

// add 注册副本并挂上客户端侧的悬空漂移检查（不调度伤害）
func (c *Client) add(r *netsync.Replica) {
	r.AttachHazard(netsync.NewHazardMonitor(r.ID(), c.opts.Grid, nil, nil, netsync.DefaultHazardConfig(false)))
	c.replicas[r.ID()] = r
	c.dispatch.Register(r.ID(), r)
}

// SetPosition 请求把 target 放到 pos（来源为本地实体）
func (c *Client) SetPosition(ctx context.Context, target netsync.EntityID, pos netsync.Vec3) error {
	return c.Do(ctx, func(c *Client) {
		c.send(protocol.SetPositionEnvelope(c.self, target, pos))
	})
}

// Do 在 Tick 循环中执行 fn 并等待完成
func (c *Client) Do(ctx context.Context, fn func(*Client)) error {
	done := make(chan struct{})
	select {
	case c.cmds <- func(c *Client) { defer close(done); fn(c) }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View 只读视图，仅在 Inspect 回调内有效
type View struct {
	c *Client
}

func (v View) Self() netsync.EntityID { return v.c.self }

func (v View) Replica(id netsync.EntityID) (*netsync.Replica, bool) {
	r, ok := v.c.replicas[id]
	return r, ok
}

func (v View) Entities() int { return len(v.c.replicas) }

// DamageTaken 收到的伤害效果累计
func (v View) DamageTaken(id netsync.EntityID) int { return v.c.damage[id] }

func (v View) LastError() string { return v.c.lastErr }

// Inspect 在 Tick 循环中读取状态
func (c *Client) Inspect(ctx context.Context, fn func(View)) error {
	return c.Do(ctx, func(c *Client) { fn(View{c: c}) })
}
