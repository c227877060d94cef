package cloudsync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/NonStopParking/NonStopParking/internal/common/config"
	"github.com/NonStopParking/NonStopParking/internal/common/logger"
	"github.com/NonStopParking/NonStopParking/internal/tag"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pusher 周期性把本地标签变更推到云端，离线时落队列补推。
type Pusher struct {
	db     *gorm.DB
	client *Client
	cfg    config.SyncConfig
	log    logger.Logger
	now    func() time.Time
}

func NewPusher(db *gorm.DB, client *Client, cfg config.SyncConfig, log logger.Logger) *Pusher {
	return &Pusher{
		db:     db,
		client: client,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Run 同步循环：每个周期先补推队列，再推增量。ctx 取消后退出。
func (p *Pusher) Run(ctx context.Context) {
	interval := time.Duration(p.cfg.IntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.log.Infof("cloud sync started, interval=%s", interval)
	for {
		select {
		case <-ctx.Done():
			p.log.Infof("cloud sync stopped")
			return
		case <-ticker.C:
			if n, err := p.ProcessQueue(ctx); err != nil {
				p.log.Errorf("sync queue processing failed: %v", err)
			} else if n > 0 {
				p.log.Infof("sync queue: processed %d items", n)
			}
			if err := p.SyncTags(ctx, nil); err != nil {
				p.log.Errorf("tag sync failed: %v", err)
			}
		}
	}
}

// SyncTags 推送指定标签；tagIDs 为空时推从未同步过的和上次同步后又变更过的。
// 推送失败时整批转入队列等待补推。
func (p *Pusher) SyncTags(ctx context.Context, tagIDs []string) error {
	q := p.db.WithContext(ctx).Model(&tag.Tag{})
	if len(tagIDs) > 0 {
		q = q.Where("tag_id IN ?", tagIDs)
	} else {
		q = q.Where("last_sync_date IS NULL OR updated_at > last_sync_date")
	}

	var tags []tag.Tag
	if err := q.Find(&tags).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}

	payloads := make([]TagPayload, 0, len(tags))
	for _, t := range tags {
		payloads = append(payloads, toPayload(t))
	}

	res, err := p.client.PushTags(ctx, payloads)
	if err != nil || !res.Success {
		if err == nil {
			err = errors.New(res.Message)
		}
		if qErr := p.enqueue(ctx, payloads, err.Error()); qErr != nil {
			p.log.Errorf("enqueue failed: %v", qErr)
		}
		return err
	}

	now := p.now()
	ids := make([]string, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	// UpdateColumns：同步回写不能碰 updated_at，否则标签会被反复判定为脏数据
	return p.db.WithContext(ctx).Model(&tag.Tag{}).Where("id IN ?", ids).
		UpdateColumns(map[string]any{
			"last_sync_date": now,
			"sync_status":    tag.SyncSynced,
		}).Error
}

// ProcessQueue 补推 pending 队列项，单项最多重试 MaxRetries 次。
func (p *Pusher) ProcessQueue(ctx context.Context) (int, error) {
	batch := p.cfg.BatchSize
	if batch <= 0 {
		batch = 50
	}

	var items []QueueItem
	err := p.db.WithContext(ctx).
		Where("status = ? AND retry_count < ?", QueuePending, MaxRetries).
		Order("created_at asc").Limit(batch).
		Find(&items).Error
	if err != nil {
		return 0, err
	}

	for i := range items {
		item := &items[i]
		item.Status = QueueSyncing
		if err := p.db.WithContext(ctx).Save(item).Error; err != nil {
			return i, err
		}

		var payload TagPayload
		if err := json.Unmarshal([]byte(item.Data), &payload); err != nil {
			p.failItem(ctx, item, "corrupt payload: "+err.Error(), true)
			continue
		}

		res, err := p.client.PushTags(ctx, []TagPayload{payload})
		switch {
		case err != nil:
			p.failItem(ctx, item, err.Error(), false)
		case !res.Success:
			p.failItem(ctx, item, res.Message, false)
		default:
			item.Status = QueueSynced
			item.ErrorMessage = ""
			if err := p.db.WithContext(ctx).Save(item).Error; err != nil {
				return i, err
			}
		}
	}
	return len(items), nil
}

// PullFromCloud 拉取云端变更并合并：云端较新则覆盖，本地不存在则创建。
func (p *Pusher) PullFromCloud(ctx context.Context, lastSync string) (int, error) {
	remote, err := p.client.PullTags(ctx, lastSync)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, r := range remote {
		var existing tag.Tag
		err := p.db.WithContext(ctx).Where("tag_id = ?", r.TagID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			t := fromPayload(r)
			t.ID = uuid.NewString()
			if err := p.db.WithContext(ctx).Create(&t).Error; err != nil {
				return synced, err
			}
			synced++
			continue
		}
		if err != nil {
			return synced, err
		}
		if r.UpdatedAt.After(existing.UpdatedAt) {
			existing.EPC = r.EPC
			existing.Status = tag.Status(r.Status)
			existing.ValidFrom = r.ValidFrom
			existing.ValidTo = r.ValidTo
			existing.SyncFromCloud = true
			if err := p.db.WithContext(ctx).Save(&existing).Error; err != nil {
				return synced, err
			}
			synced++
		}
	}
	return synced, nil
}

// failItem 记录失败原因并推进重试计数；terminal 为真时直接置 failed。
func (p *Pusher) failItem(ctx context.Context, item *QueueItem, msg string, terminal bool) {
	item.RetryCount++
	item.ErrorMessage = msg
	if terminal || item.RetryCount >= MaxRetries {
		item.Status = QueueFailed
	} else {
		item.Status = QueuePending
	}
	if err := p.db.WithContext(ctx).Save(item).Error; err != nil {
		p.log.Errorf("update queue item %s failed: %v", item.ID, err)
	}
}

func (p *Pusher) enqueue(ctx context.Context, payloads []TagPayload, reason string) error {
	items := make([]QueueItem, 0, len(payloads))
	for _, pl := range payloads {
		raw, err := json.Marshal(pl)
		if err != nil {
			return err
		}
		items = append(items, QueueItem{
			ID:           uuid.NewString(),
			ModelName:    "tag",
			Action:       "create",
			Data:         string(raw),
			Status:       QueuePending,
			ErrorMessage: reason,
		})
	}
	return p.db.WithContext(ctx).Create(&items).Error
}

func toPayload(t tag.Tag) TagPayload {
	return TagPayload{
		TagID:     t.TagID,
		EPC:       t.EPC,
		Status:    string(t.Status),
		ValidFrom: t.ValidFrom,
		ValidTo:   t.ValidTo,
		UpdatedAt: t.UpdatedAt,
		PartnerID: t.PartnerID,
		VehicleID: t.VehicleID,
	}
}

func fromPayload(r TagPayload) tag.Tag {
	return tag.Tag{
		TagID:         r.TagID,
		EPC:           r.EPC,
		Status:        tag.Status(r.Status),
		ValidFrom:     r.ValidFrom,
		ValidTo:       r.ValidTo,
		SyncFromCloud: true,
		SyncStatus:    tag.SyncSynced,
	}
}
