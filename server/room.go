package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"gridsync/config"
	"gridsync/netsync"
	"gridsync/protocol"
	"gridsync/world"
)

// RoomConfig 可热更新的房间参数（只在 Tick 线程读写）
type RoomConfig struct {
	MoveSpeed          float64 `json:"moveSpeed"`
	SimulateDelayMinMs int     `json:"simulateDelayMinMs"`
	SimulateDelayMaxMs int     `json:"simulateDelayMaxMs"`
}

// Room 房间世界：权威状态维护在内存，单线程 Tick 推进。
// 其他协程只能通过通道投递请求（RequestJoin / RequestLeave / OnInbound / Do）。
type Room struct {
	ID string

	players map[PlayerID]*Player
	order   []PlayerID // 加入顺序，广播与 Tick 按此遍历

	grid   *world.Grid
	codec  protocol.Codec
	hazard netsync.HazardConfig
	guard  *OverrideGuard
	rcfg   RoomConfig

	maxHealth    int
	tickInterval time.Duration
	nextSpawn    int
	tickSeq      uint64
	rng          *rand.Rand

	joinChan  chan joinRequest
	leaveChan chan leaveRequest
	inbox     chan Inbound
	cmdChan   chan func(*Room)
	stopChan  chan struct{}
	stopOnce  sync.Once

	mu            sync.Mutex
	tickerStarted bool
	stopped       bool
	tickerDone    chan struct{}

	metrics *RoomMetrics
}

// NewRoom 创建房间，初始化数据结构
func NewRoom(id string, cfg config.Config, grid *world.Grid, codec protocol.Codec) *Room {
	hz := netsync.DefaultHazardConfig(true)
	hz.Interval = cfg.DamageInterval
	hz.Amount = cfg.DamageAmount
	return &Room{
		ID:           id,
		players:      make(map[PlayerID]*Player),
		grid:         grid,
		codec:        codec,
		hazard:       hz,
		guard:        NewOverrideGuard(cfg.OverrideRate, cfg.OverrideBurst),
		rcfg:         RoomConfig{MoveSpeed: cfg.MoveSpeed},
		maxHealth:    cfg.MaxHealth,
		tickInterval: cfg.TickInterval(),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		joinChan:     make(chan joinRequest, 64),
		leaveChan:    make(chan leaveRequest, 64),
		inbox:        make(chan Inbound, 1024),
		cmdChan:      make(chan func(*Room), 64),
		stopChan:     make(chan struct{}),
		tickerDone:   make(chan struct{}),
		metrics:      &RoomMetrics{},
	}
}

func (r *Room) Metrics() *RoomMetrics { return r.metrics }
func (r *Room) Codec() protocol.Codec { return r.codec }

// RequestJoin 请求在 Tick 线程中加入玩家
func (r *Room) RequestJoin(id PlayerID, conn *ClientConn) error {
	if r.isStopped() {
		return ErrRoomStopped
	}
	select {
	case r.joinChan <- joinRequest{id: id, conn: conn}:
		return nil
	case <-r.stopChan:
		return ErrRoomStopped
	}
}

// RequestLeave 请求在 Tick 线程中移除玩家；conn 不是当前连接时忽略
func (r *Room) RequestLeave(id PlayerID, conn *ClientConn) {
	select {
	case r.leaveChan <- leaveRequest{id: id, conn: conn}:
	case <-r.stopChan:
	}
}

// OnInbound 入站消息（不立即生效），阻塞投递以保证不丢不乱序
func (r *Room) OnInbound(in Inbound) error {
	if r.isStopped() {
		return ErrRoomStopped
	}
	select {
	case r.inbox <- in:
		return nil
	case <-r.stopChan:
		return ErrRoomStopped
	}
}

// Do 在 Tick 线程中执行 fn 并等待完成（管理接口读写房间状态用）
func (r *Room) Do(ctx context.Context, fn func(*Room)) error {
	if r.isStopped() {
		return ErrRoomStopped
	}
	done := make(chan struct{})
	cmd := func(room *Room) {
		defer close(done)
		fn(room)
	}
	select {
	case r.cmdChan <- cmd:
	case <-r.stopChan:
		return ErrRoomStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-r.stopChan:
		return ErrRoomStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) isStopped() bool {
	select {
	case <-r.stopChan:
		return true
	default:
		return false
	}
}

// ProcessInputs 处理当前帧的所有请求（非阻塞 drain）：加入 → 离开 → 命令 → 入站消息
func (r *Room) ProcessInputs() {
	// 只处理 Tick 开始时已到达的请求，本帧新到的留给下一帧
	for n := len(r.joinChan); n > 0; n-- {
		r.addPlayer(<-r.joinChan)
	}
	for n := len(r.leaveChan); n > 0; n-- {
		r.removePlayer(<-r.leaveChan)
	}
	for n := len(r.cmdChan); n > 0; n-- {
		(<-r.cmdChan)(r)
	}
	for n := len(r.inbox); n > 0; n-- {
		r.handleInbound(<-r.inbox)
	}
}

// UpdateWorld 推进插值、漂移与真空伤害计时
func (r *Room) UpdateWorld(dt time.Duration) {
	for _, id := range r.order {
		if p, ok := r.players[id]; ok {
			p.Replica.Tick(dt)
		}
	}
}

// Step 单个 Tick：处理输入 → 更新世界 → 记录指标
func (r *Room) Step(dt time.Duration) {
	start := time.Now()
	r.tickSeq++
	r.ProcessInputs()
	r.UpdateWorld(dt)
	r.metrics.AddTick(time.Since(start).Nanoseconds())
}

func (r *Room) addPlayer(req joinRequest) {
	if _, ok := r.players[req.id]; ok {
		Log.Warnw("duplicate join", "room", r.ID, "player", req.id, "conn", req.conn.ID)
		r.send(req.conn, protocol.ErrorEnvelope(ErrPlayerExists.Error()))
		req.conn.CloseAfterFlush()
		return
	}

	id := netsync.EntityID(req.id)
	spawn := r.nextSpawnPoint()
	rep := netsync.NewAuthorityReplica(id, r.grid, spawn, netsync.ReplicaConfig{Speed: r.rcfg.MoveSpeed})
	p := &Player{ID: req.id, Replica: rep, Health: r.maxHealth, Conn: req.conn}
	rep.AttachHazard(netsync.NewHazardMonitor(id, r.grid, r, p, r.hazard))
	pos := rep.Authority().State().Position

	r.send(p.Conn, protocol.WelcomeEnvelope(id, pos))
	for _, oid := range r.order {
		other := r.players[oid]
		auth := other.Replica.Authority()
		r.send(p.Conn, protocol.SpawnEnvelope(other.EntityID(), auth.State().Position))
		r.send(p.Conn, protocol.CachedEnvelope(netsync.CachedState{Entity: other.EntityID(), Position: auth.Cached().Position}))
		if other.Replica.Ghost() {
			r.send(p.Conn, protocol.GhostEnvelope(other.EntityID(), true))
		}
		r.send(other.Conn, protocol.SpawnEnvelope(id, pos))
	}

	r.players[req.id] = p
	r.order = append(r.order, req.id)
	r.metrics.IncJoin()
	Log.Infow("player joined", "room", r.ID, "player", req.id, "x", pos.X, "y", pos.Y)
}

func (r *Room) removePlayer(req leaveRequest) {
	p, ok := r.players[req.id]
	if !ok || (req.conn != nil && p.Conn != req.conn) {
		return
	}
	if p.Conn != nil {
		p.Conn.Close()
	}
	delete(r.players, req.id)
	for i, id := range r.order {
		if id == req.id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.guard.Forget(req.id)
	r.broadcast(protocol.LeaveEnvelope(p.EntityID()))
	r.metrics.IncLeave()
	Log.Infow("player left", "room", r.ID, "player", req.id)
}

func (r *Room) handleInbound(in Inbound) {
	p, ok := r.players[in.From]
	if !ok || (in.Conn != nil && p.Conn != in.Conn) {
		return
	}
	switch in.Envelope.Type {
	case protocol.TypeAction:
		r.handleAction(p, in.Envelope)
	case protocol.TypeSetPosition:
		env := in.Envelope
		req := OverrideRequest{
			Source:   PlayerID(env.Source),
			Target:   PlayerID(env.Target),
			Position: env.Position(),
		}
		if req.Source != p.ID {
			r.rejectOverride(p, req, ErrNotOwner)
			return
		}
		if _, err := r.applyOverride(req); err != nil {
			r.rejectOverride(p, req, err)
		}
	default:
		Log.Debugw("unknown message", "room", r.ID, "player", p.ID, "type", in.Envelope.Type)
	}
}

// handleAction 权威地执行动作并广播新状态
func (r *Room) handleAction(p *Player, env protocol.Envelope) {
	msg, err := env.Action()
	if err == nil && msg.Entity != "" && msg.Entity != p.EntityID() {
		err = ErrNotOwner
	}
	var s netsync.State
	if err == nil {
		s, err = p.Replica.Authority().Apply(msg.Action)
	}
	if err != nil {
		r.metrics.IncRejected()
		Log.Debugw("action rejected", "room", r.ID, "player", p.ID, "err", err)
		return
	}
	r.metrics.IncAccepted()
	r.broadcast(protocol.StateEnvelope(netsync.StateUpdate{Entity: p.EntityID(), State: s}))
	r.metrics.IncBroadcast()
}

// applyOverride 手动覆盖：权威状态与缓存同时改为 move 0，服务端本体直接放置
func (r *Room) applyOverride(req OverrideRequest) (netsync.Vec3, error) {
	if !req.Position.Finite() {
		return netsync.Vec3{}, fmt.Errorf("%w: non-finite position %+v", ErrInvalidRequest, req.Position)
	}
	target, ok := r.players[req.Target]
	if !ok {
		return netsync.Vec3{}, fmt.Errorf("%w: target %q", ErrUnknownPlayer, req.Target)
	}
	if !req.Trusted {
		if _, ok := r.players[req.Source]; !ok {
			return netsync.Vec3{}, fmt.Errorf("%w: source %q", ErrUnknownPlayer, req.Source)
		}
		if !r.guard.Allow(req.Source, time.Now()) {
			return netsync.Vec3{}, ErrRateLimited
		}
	}
	target.Replica.OnReset(req.Position)
	pos := target.Replica.Authority().State().Position
	r.broadcast(protocol.ResetEnvelope(netsync.ResetState{Entity: target.EntityID(), Position: pos}))
	r.metrics.IncOverride()
	Log.Infow("position override", "room", r.ID, "source", req.Source, "target", req.Target,
		"x", pos.X, "y", pos.Y, "trusted", req.Trusted)
	return pos, nil
}

func (r *Room) rejectOverride(p *Player, req OverrideRequest, err error) {
	r.metrics.IncOverrideRejected()
	Log.Warnw("override rejected", "room", r.ID, "player", p.ID, "source", req.Source, "target", req.Target, "err", err)
	r.send(p.Conn, protocol.ErrorEnvelope(err.Error()))
}

// Override 从管理接口发起的受信任覆盖
func (r *Room) Override(ctx context.Context, target PlayerID, pos netsync.Vec3) (netsync.Vec3, error) {
	var (
		out netsync.Vec3
		err error
	)
	if doErr := r.Do(ctx, func(room *Room) {
		out, err = room.applyOverride(OverrideRequest{Target: target, Position: pos, Trusted: true})
	}); doErr != nil {
		return netsync.Vec3{}, doErr
	}
	return out, err
}

// Players 玩家快照（按加入顺序）
func (r *Room) Players(ctx context.Context) ([]PlayerView, error) {
	var views []PlayerView
	err := r.Do(ctx, func(room *Room) {
		views = make([]PlayerView, 0, len(room.order))
		for _, id := range room.order {
			views = append(views, room.players[id].view())
		}
	})
	return views, err
}

// Settings 读取当前房间参数
func (r *Room) Settings(ctx context.Context) (RoomConfig, error) {
	var c RoomConfig
	err := r.Do(ctx, func(room *Room) { c = room.rcfg })
	return c, err
}

// UpdateSettings 热更新：速度立即作用于已有玩家
func (r *Room) UpdateSettings(ctx context.Context, c RoomConfig) error {
	if c.MoveSpeed <= 0 || c.SimulateDelayMinMs < 0 || c.SimulateDelayMaxMs < c.SimulateDelayMinMs {
		return fmt.Errorf("%w: %+v", ErrInvalidRequest, c)
	}
	return r.Do(ctx, func(room *Room) {
		room.rcfg = c
		for _, p := range room.players {
			p.Replica.SetSpeed(c.MoveSpeed)
		}
	})
}

func (r *Room) nextSpawnPoint() netsync.Vec3 {
	spawns := r.grid.Spawns()
	if len(spawns) == 0 {
		return netsync.Vec3{}
	}
	p := spawns[r.nextSpawn%len(spawns)]
	r.nextSpawn++
	return p
}

// delay 模拟网络延迟：[min,max] 毫秒内随机
func (r *Room) delay() time.Duration {
	lo, hi := r.rcfg.SimulateDelayMinMs, r.rcfg.SimulateDelayMaxMs
	if hi <= 0 {
		return 0
	}
	return time.Duration(lo+r.rng.Intn(hi-lo+1)) * time.Millisecond
}

func (r *Room) send(c *ClientConn, env protocol.Envelope) {
	if c == nil {
		return
	}
	b, err := r.codec.Encode(env)
	if err != nil {
		Log.Errorw("encode failed", "room", r.ID, "type", env.Type, "err", err)
		return
	}
	r.deliver(c, b)
}

// broadcast 按加入顺序发送给房间内所有玩家
func (r *Room) broadcast(env protocol.Envelope) {
	b, err := r.codec.Encode(env)
	if err != nil {
		Log.Errorw("encode failed", "room", r.ID, "type", env.Type, "err", err)
		return
	}
	for _, id := range r.order {
		if c := r.players[id].Conn; c != nil {
			r.deliver(c, b)
		}
	}
}

func (r *Room) deliver(c *ClientConn, b []byte) {
	if err := c.Enqueue(r.codec.FrameType(), b, r.delay()); errors.Is(err, ErrSlowConsumer) {
		r.metrics.IncSlowKicked()
		Log.Warnw("slow consumer kicked", "room", r.ID, "conn", c.ID)
	}
}
