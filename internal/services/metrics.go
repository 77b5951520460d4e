package services

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics tracks server performance and resource usage.
type Metrics struct {
	// Connection metrics
	activeConnections int64
	totalConnections  int64
	activeGames       int64

	// Message metrics
	messagesSent    int64
	lastMessageTime int64 // Unix timestamp

	// Error metrics
	connectionErrors int64
	broadcastErrors  int64

	startTime time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// Connection tracking
func (m *Metrics) IncrementConnections() {
	atomic.AddInt64(&m.activeConnections, 1)
	atomic.AddInt64(&m.totalConnections, 1)
}

func (m *Metrics) DecrementConnections() {
	atomic.AddInt64(&m.activeConnections, -1)
}

func (m *Metrics) IncrementGames() {
	atomic.AddInt64(&m.activeGames, 1)
}

func (m *Metrics) DecrementGames() {
	atomic.AddInt64(&m.activeGames, -1)
}

func (m *Metrics) IncrementMessagesSent() {
	atomic.AddInt64(&m.messagesSent, 1)
	atomic.StoreInt64(&m.lastMessageTime, time.Now().Unix())
}

func (m *Metrics) IncrementConnectionErrors() {
	atomic.AddInt64(&m.connectionErrors, 1)
}

func (m *Metrics) IncrementBroadcastErrors() {
	atomic.AddInt64(&m.broadcastErrors, 1)
}

// MetricsSnapshot represents a point-in-time view of metrics.
type MetricsSnapshot struct {
	ActiveConnections int64  `json:"active_connections"`
	TotalConnections  int64  `json:"total_connections"`
	ActiveGames       int64  `json:"active_games"`
	MessagesSent      int64  `json:"messages_sent"`
	LastMessageTime   string `json:"last_message_time"`
	ConnectionErrors  int64  `json:"connection_errors"`
	BroadcastErrors   int64  `json:"broadcast_errors"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
	MemoryUsageMB     uint64 `json:"memory_usage_mb"`
	NumGoroutines     int    `json:"num_goroutines"`
}

// Snapshot returns a point-in-time view of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	lastMsgTime := atomic.LoadInt64(&m.lastMessageTime)
	lastMsgTimeStr := "never"
	if lastMsgTime > 0 {
		lastMsgTimeStr = time.Unix(lastMsgTime, 0).Format(time.RFC3339)
	}

	return MetricsSnapshot{
		ActiveConnections: atomic.LoadInt64(&m.activeConnections),
		TotalConnections:  atomic.LoadInt64(&m.totalConnections),
		ActiveGames:       atomic.LoadInt64(&m.activeGames),
		MessagesSent:      atomic.LoadInt64(&m.messagesSent),
		LastMessageTime:   lastMsgTimeStr,
		ConnectionErrors:  atomic.LoadInt64(&m.connectionErrors),
		BroadcastErrors:   atomic.LoadInt64(&m.broadcastErrors),
		UptimeSeconds:     int64(time.Since(m.startTime).Seconds()),
		MemoryUsageMB:     memStats.Alloc / 1024 / 1024,
		NumGoroutines:     runtime.NumGoroutine(),
	}
}
