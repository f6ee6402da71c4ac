package idgen

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator 十进制雪花 ID 生成器（费率表版本主键）
// ID格式: 秒级时间偏移 + 机器ID(2位) + 序列号(3位)
type Generator struct {
	mu        sync.Mutex
	epoch     int64 // 起始时间戳 (2024-01-01 00:00:00 UTC)
	machineID int64 // 0-99
	sequence  int64 // 0-999
	lastTime  int64
	now       func() time.Time
}

const (
	maxMachineID = 99
	maxSequence  = 999
)

// New 创建 ID 生成器，machineID 越界时按 0 处理
func New(machineID int64) *Generator {
	if machineID < 0 || machineID > maxMachineID {
		machineID = 0
	}
	return &Generator{
		epoch:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix(),
		machineID: machineID,
		now:       time.Now,
	}
}

// NextID 生成下一个ID
func (g *Generator) NextID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().Unix()
	if now < g.lastTime {
		// 时钟回拨时沿用上次时间，靠序列号保证递增
		now = g.lastTime
	}

	if now == g.lastTime {
		g.sequence = (g.sequence + 1) % (maxSequence + 1)
		if g.sequence == 0 {
			// 序列号用尽，等待下一秒
			for now <= g.lastTime {
				time.Sleep(time.Millisecond)
				now = g.now().Unix()
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTime = now

	return (now-g.epoch)*100000 + g.machineID*1000 + g.sequence
}

var (
	defaultMu        sync.Mutex
	defaultGenerator = New(1)
)

// SetMachineID 按配置重建默认生成器（启动时调用一次）
func SetMachineID(machineID int64) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultGenerator = New(machineID)
}

// GenerateID 生成ID（使用默认生成器）
func GenerateID() int64 {
	defaultMu.Lock()
	g := defaultGenerator
	defaultMu.Unlock()
	return g.NextID()
}

// NewBatchID 批次 ID
func NewBatchID() string {
	return uuid.New().String()
}

// NewRequestID 请求 ID
func NewRequestID() string {
	return uuid.New().String()
}

// NewRateCardVersion 费率表版本号，如 20261018T093000Z-1a2b3c4d
func NewRateCardVersion(at time.Time) string {
	return fmt.Sprintf("%s-%s", at.UTC().Format("20060102T150405Z"), uuid.New().String()[:8])
}
