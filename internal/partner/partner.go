package partner

import (
	"fmt"
	"time"
)

// Partner 是 partners 表的 GORM 模型（停车场账户持有人）。
type Partner struct {
	ID    string `gorm:"primaryKey;size:36"`
	Name  string `gorm:"size:128;not null"`
	Phone string `gorm:"size:32"`
	Email string `gorm:"size:128"`

	// 证件号（9 位旧证 / 12 位新证，纯数字）；未填写留空，填写后不允许重复
	CitizenID string `gorm:"index;size:12"`

	// 预付余额（VND）；是否允许为负由计费策略决定
	CurrentFunds int64 `gorm:"not null;default:0"`

	// 会员标签（最多一张）
	TagID string `gorm:"index;size:36"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// ValidateCitizenID 校验证件号格式：9 或 12 位，纯数字。
func ValidateCitizenID(citizenID string) error {
	if citizenID == "" {
		return nil
	}
	if len(citizenID) != 9 && len(citizenID) != 12 {
		return fmt.Errorf("citizen id must be 9 or 12 digits")
	}
	for _, r := range citizenID {
		if r < '0' || r > '9' {
			return fmt.Errorf("citizen id must contain digits only")
		}
	}
	return nil
}

// DisplayFunds 余额展示串。
func (p Partner) DisplayFunds() string {
	return fmt.Sprintf("%d VND", p.CurrentFunds)
}
