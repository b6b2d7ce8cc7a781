package dao

import (
	"context"
	"time"

	"gorm.io/gorm"

	"triphub/apps/recommend-service/model"
	"triphub/pkg/database"
)

// preferenceDAO 偏好分数数据访问实现
type preferenceDAO struct {
	db *database.PostgreSQL
}

// NewPreferenceDAO 创建偏好DAO实例
func NewPreferenceDAO(db *database.PostgreSQL) PreferenceDAO {
	return &preferenceDAO{db: db}
}

// ApplyDelta 原子增量更新某个(user, tag)的分数
// 必须用单条UPSERT完成，读回再写会在并发下丢失更新
func (d *preferenceDAO) ApplyDelta(ctx context.Context, userID int64, tag string, delta float64) error {
	now := time.Now()
	return d.db.WithContext(ctx).Exec(`
		INSERT INTO preference_scores (user_id, tag, score, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, tag)
		DO UPDATE SET score = preference_scores.score + EXCLUDED.score, updated_at = ?
	`, userID, tag, delta, now, now).Error
}

// GetUserScores 读取用户的全部偏好分数
func (d *preferenceDAO) GetUserScores(ctx context.Context, userID int64) (map[string]float64, error) {
	var rows []*model.PreferenceScore
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(rows))
	for _, row := range rows {
		scores[row.Tag] = row.Score
	}
	return scores, nil
}

// ReplaceUserScores 整体替换用户偏好（偏好重建用），在一个事务内删旧插新
func (d *preferenceDAO) ReplaceUserScores(ctx context.Context, userID int64, scores map[string]float64) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.PreferenceScore{}).Error; err != nil {
			return err
		}

		for tag, score := range scores {
			row := &model.PreferenceScore{
				UserID: userID,
				Tag:    tag,
				Score:  score,
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteUserScores 隐私清除：删除用户的全部偏好分数
func (d *preferenceDAO) DeleteUserScores(ctx context.Context, userID int64) error {
	return d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.PreferenceScore{}).Error
}
