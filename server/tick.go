package server

import "time"

// StartTicker 启动房间的 Tick 循环（单线程推进世界）
func (r *Room) StartTicker() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tickerStarted || r.stopped {
		return
	}
	r.tickerStarted = true
	go func() {
		defer close(r.tickerDone)
		ticker := time.NewTicker(r.tickInterval)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-r.stopChan:
				r.closeAll()
				return
			case now := <-ticker.C:
				// 核心循环：处理输入 → 更新世界 → 记录指标
				r.Step(now.Sub(last))
				last = now
			}
		}
	}()
}

// Stop 停止 Tick 并断开所有连接；等待 Tick 协程退出
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.mu.Lock()
	r.stopped = true
	started := r.tickerStarted
	r.mu.Unlock()
	if started {
		<-r.tickerDone
		return
	}
	r.closeAll()
}

func (r *Room) closeAll() {
	for _, p := range r.players {
		if p.Conn != nil {
			p.Conn.Close()
		}
	}
}
