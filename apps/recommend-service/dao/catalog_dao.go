package dao

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"triphub/apps/recommend-service/model"
	"triphub/pkg/database"
)

// 目录集合名，归属目录服务，这里只读
const catalogCollection = "catalog_targets"

// catalogDAO 目标目录只读访问实现
type catalogDAO struct {
	collection *mongo.Collection
}

// NewCatalogDAO 创建目录DAO实例
func NewCatalogDAO(db *database.MongoDB) CatalogDAO {
	return &catalogDAO{
		collection: db.GetCollection(catalogCollection),
	}
}

// GetTarget 查询目标实体
func (d *catalogDAO) GetTarget(ctx context.Context, targetID int64) (*model.CatalogTarget, error) {
	var target model.CatalogTarget
	err := d.collection.FindOne(ctx, bson.M{"_id": targetID}).Decode(&target)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get catalog target: %v", err)
	}
	return &target, nil
}

// GetTargetTags 查询目标的标签集合（类目+标签）
func (d *catalogDAO) GetTargetTags(ctx context.Context, targetID int64) ([]string, error) {
	target, err := d.GetTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return target.AllTags(), nil
}
