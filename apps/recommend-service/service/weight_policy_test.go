package service

import (
	"errors"
	"testing"

	"triphub/apps/recommend-service/model"
)

// TestWeightOf 测试互动类型到权重的映射
func TestWeightOf(t *testing.T) {
	cases := []struct {
		kind string
		want float64
	}{
		{model.InteractionKindView, 1},
		{model.InteractionKindClick, 2},
		{model.InteractionKindMessage, 4},
		{model.InteractionKindShare, 5},
		{model.InteractionKindSave, 3},
		{model.InteractionKindBook, 10},
		{model.InteractionKindSwipeLeft, -2},
		{model.InteractionKindSwipeRight, 1},
	}

	for _, c := range cases {
		got, err := WeightOf(c.kind)
		if err != nil {
			t.Fatalf("WeightOf(%q) 返回错误: %v", c.kind, err)
		}
		if got != c.want {
			t.Errorf("WeightOf(%q) = %v, 期望 %v", c.kind, got, c.want)
		}
	}
}

// TestWeightOfUnknownKind 未登记的互动类型必须拒绝
// rate不在权重表中，评分增量走RatingDelta单独计算
func TestWeightOfUnknownKind(t *testing.T) {
	for _, kind := range []string{"", "hover", "scroll", model.InteractionKindRate} {
		if _, err := WeightOf(kind); !errors.Is(err, model.ErrUnknownInteractionKind) {
			t.Errorf("WeightOf(%q) 期望 ErrUnknownInteractionKind, 得到 %v", kind, err)
		}
	}
}

// TestRatingDelta 测试评分到偏好增量的映射，3分为中性点
func TestRatingDelta(t *testing.T) {
	cases := []struct {
		value int
		want  float64
	}{
		{1, -2},
		{2, -1},
		{3, 0},
		{4, 1},
		{5, 2},
	}

	for _, c := range cases {
		if got := RatingDelta(c.value); got != c.want {
			t.Errorf("RatingDelta(%d) = %v, 期望 %v", c.value, got, c.want)
		}
	}
}
