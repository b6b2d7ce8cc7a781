package dao

import (
	"context"
	"fmt"

	"triphub/apps/recommend-service/model"
	"triphub/pkg/database"
)

// eventDAO 互动事件数据访问实现
type eventDAO struct {
	db *database.PostgreSQL
}

// NewEventDAO 创建互动事件DAO实例
func NewEventDAO(db *database.PostgreSQL) EventDAO {
	return &eventDAO{db: db}
}

// CreateEvent 写入一条互动事件
func (d *eventDAO) CreateEvent(ctx context.Context, event *model.InteractionEvent) error {
	if err := d.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("%w: create interaction event: %v", model.ErrPersistence, err)
	}
	return nil
}

// GetUserEvents 获取用户互动历史
func (d *eventDAO) GetUserEvents(ctx context.Context, query *model.EventQuery) ([]*model.InteractionEvent, int64, error) {
	dbQuery := d.db.WithContext(ctx).Model(&model.InteractionEvent{}).
		Where("user_id = ?", query.UserID)

	// 添加过滤条件
	if query.Kind != "" {
		dbQuery = dbQuery.Where("kind = ?", query.Kind)
	}

	// 获取总数
	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	if query.Page > 0 && query.PageSize > 0 {
		offset := (query.Page - 1) * query.PageSize
		dbQuery = dbQuery.Offset(int(offset)).Limit(int(query.PageSize))
	}
	dbQuery = dbQuery.Order("created_at DESC")

	var events []*model.InteractionEvent
	err := dbQuery.Find(&events).Error
	return events, total, err
}

// ListUserEventsAfter 按ID升序分页遍历用户事件
func (d *eventDAO) ListUserEventsAfter(ctx context.Context, userID, afterID int64, limit int) ([]*model.InteractionEvent, error) {
	var events []*model.InteractionEvent
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND id > ?", userID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// DeleteUserEvents 隐私清除：删除用户的全部互动事件
func (d *eventDAO) DeleteUserEvents(ctx context.Context, userID int64) error {
	return d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.InteractionEvent{}).Error
}
