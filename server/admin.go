package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gridsync/netsync"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrUnknownPlayer):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, ErrRoomStopped):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"ok": false, "error": err.Error()})
}

// room 取路径参数中的房间；不存在时创建（与 ws 接入一致）
func (m *RoomManager) room(w http.ResponseWriter, r *http.Request) (*Room, bool) {
	room, err := m.GetOrCreateRoom(chi.URLParam(r, "room"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return room, true
}

// HandleGetConfig GET /admin/rooms/{room}/config 返回当前配置
func (m *RoomManager) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	room, ok := m.room(w, r)
	if !ok {
		return
	}
	cur, err := room.Settings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

// HandleUpdateConfig POST /admin/rooms/{room}/config 以 JSON 载荷更新部分字段
func (m *RoomManager) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	room, ok := m.room(w, r)
	if !ok {
		return
	}
	var body struct {
		MoveSpeed          *float64 `json:"moveSpeed,omitempty"`
		SimulateDelayMinMs *int     `json:"simulateDelayMinMs,omitempty"`
		SimulateDelayMaxMs *int     `json:"simulateDelayMaxMs,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	cur, err := room.Settings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if body.MoveSpeed != nil {
		cur.MoveSpeed = *body.MoveSpeed
	}
	if body.SimulateDelayMinMs != nil {
		cur.SimulateDelayMinMs = *body.SimulateDelayMinMs
	}
	if body.SimulateDelayMaxMs != nil {
		cur.SimulateDelayMaxMs = *body.SimulateDelayMaxMs
	}
	if err := room.UpdateSettings(r.Context(), cur); err != nil {
		writeError(w, err)
		return
	}
	Log.Infof("config updated: room=%s speed=%.2f delay=[%d,%d]",
		room.ID, cur.MoveSpeed, cur.SimulateDelayMinMs, cur.SimulateDelayMaxMs)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "config": cur})
}

// HandleRooms GET /admin/rooms 当前房间列表
func (m *RoomManager) HandleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rooms": m.RoomIDs()})
}

// HandleMetrics GET /admin/rooms/{room}/metrics 输出指定房间的运行指标
func (m *RoomManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	room, ok := m.room(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room":    room.ID,
		"codec":   room.Codec().Name(),
		"metrics": room.Metrics().Snapshot(),
	})
}

// HandlePlayers GET /admin/rooms/{room}/players
func (m *RoomManager) HandlePlayers(w http.ResponseWriter, r *http.Request) {
	room, ok := m.room(w, r)
	if !ok {
		return
	}
	views, err := room.Players(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"room": room.ID, "players": views})
}

// HandleSetPosition POST /admin/rooms/{room}/players/{player}/position
// 载荷 {"x":3,"y":4,"z":0}；受信任的手动覆盖
func (m *RoomManager) HandleSetPosition(w http.ResponseWriter, r *http.Request) {
	room, ok := m.room(w, r)
	if !ok {
		return
	}
	var body struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	target := PlayerID(chi.URLParam(r, "player"))
	pos, err := room.Override(r.Context(), target, netsync.Vec3{X: body.X, Y: body.Y, Z: body.Z})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "player": target, "x": pos.X, "y": pos.Y, "z": pos.Z})
}
