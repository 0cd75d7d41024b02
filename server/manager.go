package server

import (
	"fmt"
	"sort"
	"sync"

	"gridsync/config"
	"gridsync/protocol"
	"gridsync/world"
)

// RoomManager 管理多个房间的生命周期
type RoomManager struct {
	mu    sync.RWMutex
	cfg   config.Config
	codec protocol.Codec
	rooms map[string]*Room
}

var (
	defaultManager *RoomManager
	once           sync.Once
)

// GetRoomManager 单例房间管理器（默认配置，启动时用 Configure 覆盖）
func GetRoomManager() *RoomManager {
	once.Do(func() {
		defaultManager = &RoomManager{cfg: config.Default(), codec: protocol.JSON{}, rooms: make(map[string]*Room)}
	})
	return defaultManager
}

// NewRoomManager 独立的管理器，测试与嵌入使用
func NewRoomManager(cfg config.Config) (*RoomManager, error) {
	m := &RoomManager{rooms: make(map[string]*Room)}
	if err := m.Configure(cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// Configure 替换后续新建房间使用的配置；已存在的房间不受影响
func (m *RoomManager) Configure(cfg config.Config) error {
	codec, err := protocol.CodecByName(cfg.Codec)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	m.codec = codec
	return nil
}

func (m *RoomManager) Config() config.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// GetOrCreateRoom 获取或创建房间，并确保开始 Tick；每个房间有独立的地图实例
func (m *RoomManager) GetOrCreateRoom(id string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if ok {
		return r, nil
	}
	grid, err := world.LoadPath(m.cfg.MapPath)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", id, err)
	}
	r = NewRoom(id, m.cfg, grid, m.codec)
	m.rooms[id] = r
	r.StartTicker()
	Log.Infow("room created", "room", id, "codec", m.codec.Name(), "tick", m.cfg.TickInterval())
	return r, nil
}

// Room 只查找不创建
func (m *RoomManager) Room(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// RoomIDs 当前房间列表（排序）
func (m *RoomManager) RoomIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StopAll 停止所有房间（优雅退出）
func (m *RoomManager) StopAll() {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()
	for _, r := range rooms {
		r.Stop()
	}
}
