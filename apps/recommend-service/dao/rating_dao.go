package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"triphub/apps/recommend-service/model"
	"triphub/pkg/database"
)

// ratingDAO 评分数据访问实现
type ratingDAO struct {
	db *database.PostgreSQL
}

// NewRatingDAO 创建评分DAO实例
func NewRatingDAO(db *database.PostgreSQL) RatingDAO {
	return &ratingDAO{db: db}
}

// UpsertRating 写入或更新评分
// (user_id, target_id)唯一，并发重复评分由数据库约束收敛为一行
func (d *ratingDAO) UpsertRating(ctx context.Context, rating *model.Rating) error {
	now := time.Now()
	err := d.db.WithContext(ctx).Exec(`
		INSERT INTO ratings (user_id, target_id, value, comment, trip_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, target_id)
		DO UPDATE SET value = EXCLUDED.value, comment = EXCLUDED.comment, updated_at = ?
	`, rating.UserID, rating.TargetID, rating.Value, rating.Comment, rating.TripID, now, now, now).Error
	if err != nil {
		return fmt.Errorf("%w: upsert rating: %v", model.ErrPersistence, err)
	}
	return nil
}

// GetRating 查询用户对某个目标的评分
func (d *ratingDAO) GetRating(ctx context.Context, userID, targetID int64) (*model.Rating, error) {
	var rating model.Rating
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND target_id = ?", userID, targetID).
		First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &rating, nil
}

// GetUserRatings 查询用户的全部评分
func (d *ratingDAO) GetUserRatings(ctx context.Context, userID int64) ([]*model.Rating, error) {
	var ratings []*model.Rating
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&ratings).Error
	return ratings, err
}

// RecomputeStats 从评分表重算目标的平均分和数量，写入聚合表
// 重算基于全量AVG而不是增量，重复评分更新后结果仍然正确
func (d *ratingDAO) RecomputeStats(ctx context.Context, targetID int64) (*model.RatingStats, error) {
	var result struct {
		Average float64
		Count   int64
	}
	err := d.db.WithContext(ctx).Model(&model.Rating{}).
		Select("COALESCE(AVG(value), 0) as average, COUNT(*) as count").
		Where("target_id = ?", targetID).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = d.db.WithContext(ctx).Exec(`
		INSERT INTO rating_stats (target_id, average, rating_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (target_id)
		DO UPDATE SET average = EXCLUDED.average, rating_count = EXCLUDED.rating_count, updated_at = ?
	`, targetID, result.Average, result.Count, now, now).Error
	if err != nil {
		return nil, err
	}

	return &model.RatingStats{
		TargetID:    targetID,
		Average:     result.Average,
		RatingCount: result.Count,
		UpdatedAt:   now,
	}, nil
}

// GetStats 查询目标的评分聚合，没有任何评分时返回零值而不是错误
func (d *ratingDAO) GetStats(ctx context.Context, targetID int64) (*model.RatingStats, error) {
	var stats model.RatingStats
	err := d.db.WithContext(ctx).
		Where("target_id = ?", targetID).
		First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.RatingStats{TargetID: targetID}, nil
		}
		return nil, err
	}
	return &stats, nil
}

// DeleteUserRatings 隐私清除：删除用户的全部评分
func (d *ratingDAO) DeleteUserRatings(ctx context.Context, userID int64) error {
	return d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.Rating{}).Error
}
