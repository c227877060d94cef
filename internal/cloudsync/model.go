package cloudsync

import "time"

// QueueStatus 同步队列项状态。
type QueueStatus string

const (
	QueuePending QueueStatus = "pending"
	QueueSyncing QueueStatus = "syncing"
	QueueSynced  QueueStatus = "synced"
	QueueFailed  QueueStatus = "failed"
)

// MaxRetries 超过后队列项置 failed，不再重试。
const MaxRetries = 3

// QueueItem 是 sync_queue 表的 GORM 模型。
// 推送失败（离线、云端报错）的数据进队列，联网后批量补推。
type QueueItem struct {
	ID           string      `gorm:"primaryKey;size:36"`
	ModelName    string      `gorm:"size:64;not null"` // 例如 "tag"
	RecordID     string      `gorm:"size:36"`
	Action       string      `gorm:"size:16;not null"` // create / update / delete
	Data         string      `gorm:"type:text"`        // JSON 快照
	Status       QueueStatus `gorm:"type:varchar(16);index;not null;default:'pending'"`
	ErrorMessage string      `gorm:"type:text"`
	RetryCount   int         `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TagPayload 上云的标签快照。
type TagPayload struct {
	TagID     string     `json:"tag_id"`
	EPC       string     `json:"epc"`
	Status    string     `json:"status"`
	ValidFrom *time.Time `json:"valid_from,omitempty"`
	ValidTo   *time.Time `json:"valid_to,omitempty"`
	UpdatedAt time.Time  `json:"write_date"`
	PartnerID string     `json:"partner_id,omitempty"`
	VehicleID string     `json:"vehicle_id,omitempty"`
}
