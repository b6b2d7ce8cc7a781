package service

import (
	"fmt"

	"triphub/apps/recommend-service/model"
)

// WeightOf 查询互动类型对应的偏好增量
// 权重只来自model.InteractionWeights，调用点不允许出现字面量权重
func WeightOf(kind string) (float64, error) {
	weight, ok := model.InteractionWeights[kind]
	if !ok {
		return 0, fmt.Errorf("%w: %s", model.ErrUnknownInteractionKind, kind)
	}
	return weight, nil
}

// RatingDelta 评分到偏好增量的映射
// 3分是中性点：5分=+2，4分=+1，3分=0，2分=-1，1分=-2
func RatingDelta(value int) float64 {
	return float64(value-3) * model.RatingWeight
}
