package model

// Redis 频道
const (
	// ChannelRateTableUpdated 费率表更新广播，worker 收到后丢弃本地缓存
	ChannelRateTableUpdated = "rate_table:updated"
	// QuoteBatchResultChannelPrefix Smart Wait 结果频道前缀，后接批次 ID
	QuoteBatchResultChannelPrefix = "quote_batch:result:"
)

// QuoteBatchResultChannel 批次结果频道
func QuoteBatchResultChannel(batchID string) string {
	return QuoteBatchResultChannelPrefix + batchID
}

// RateTableUpdated 费率表更新通知
type RateTableUpdated struct {
	Version   string `json:"version"`
	UpdatedAt int64  `json:"updated_at"`
}

// QuoteBatchNotification 批次完成通知
type QuoteBatchNotification struct {
	BatchID   string `json:"batch_id"`
	Status    string `json:"status"` // QUOTED / FAILED
	Timestamp int64  `json:"timestamp"`
}
