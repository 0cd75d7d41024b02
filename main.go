package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gridsync/client"
	"gridsync/config"
	"gridsync/netsync"
	"gridsync/protocol"
	"gridsync/server"
	"gridsync/world"
)

// gridsync 入口：-mode server 启动 HTTP + WebSocket 服务；-mode bot 启动随机游走的机器人客户端
func main() {
	var (
		envFile string
		mode    string
		addr    string
		room    string
		player  string
		wsURL   string
		seed    int64
	)
	flag.StringVar(&envFile, "env", ".env", "env file, missing file is ignored")
	flag.StringVar(&mode, "mode", "server", "server | bot")
	flag.StringVar(&addr, "addr", "", "server listen address, overrides ADDR")
	flag.StringVar(&room, "room", "", "room id, defaults to DEFAULT_ROOM")
	flag.StringVar(&player, "player", "", "bot player id, assigned by server when empty")
	flag.StringVar(&wsURL, "url", "ws://localhost:8080/ws", "bot: server websocket url")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "bot: random walk seed")
	flag.Parse()

	cfg, err := config.Load(envFile)
	if err != nil {
		panic(err)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if room == "" {
		room = cfg.DefaultRoom
	}
	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "server":
		runServer(ctx, cfg, room)
	case "bot":
		runBot(ctx, cfg, wsURL, room, player, seed)
	default:
		server.Log.Errorf("unknown mode %q", mode)
		os.Exit(2)
	}
}

func runServer(ctx context.Context, cfg config.Config, room string) {
	rm := server.GetRoomManager()
	if err := rm.Configure(cfg); err != nil {
		server.Log.Fatalf("config: %v", err)
	}
	// 先预创建一个默认房间，便于快速试跑
	if _, err := rm.GetOrCreateRoom(room); err != nil {
		server.Log.Fatalf("room: %v", err)
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: server.NewRouter(rm)}
	go func() {
		server.Log.Infof("gridsync listening on %s; ws://localhost%v/ws?room=%s&player=alice", cfg.Addr, cfg.Addr, room)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	<-ctx.Done()
	server.Log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	rm.StopAll()
}

func runBot(ctx context.Context, cfg config.Config, wsURL, room, player string, seed int64) {
	codec, err := protocol.CodecByName(cfg.Codec)
	if err != nil {
		server.Log.Fatalf("codec: %v", err)
	}
	policy, err := netsync.ParseTrimPolicy(cfg.TrimPolicy)
	if err != nil {
		server.Log.Fatalf("trim policy: %v", err)
	}
	grid, err := world.LoadPath(cfg.MapPath)
	if err != nil {
		server.Log.Fatalf("map: %v", err)
	}

	c, err := client.Dial(ctx, client.Options{
		URL:      wsURL,
		Room:     room,
		Player:   player,
		Codec:    codec,
		Grid:     grid,
		TickRate: cfg.TickRate,
		Speed:    cfg.MoveSpeed,
		Policy:   policy,
		Input:    client.NewRandomWalk(seed),
		Logger:   server.Log.Named("bot"),
	})
	if err != nil {
		server.Log.Fatalf("dial: %v", err)
	}
	server.Log.Infow("bot connected", "url", wsURL, "room", room, "player", player, "seed", seed)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		server.Log.Errorw("bot stopped", "err", err)
	}
}
