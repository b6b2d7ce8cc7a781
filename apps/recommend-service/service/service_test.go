package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"triphub/apps/recommend-service/model"
	"triphub/pkg/logger"
	"triphub/pkg/snowflake"
)

// 测试用的内存DAO实现

type fakeEventDAO struct {
	mu         sync.Mutex
	events     []*model.InteractionEvent
	failCreate bool
}

func (f *fakeEventDAO) CreateEvent(ctx context.Context, event *model.InteractionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return fmt.Errorf("%w: create interaction event: disk full", model.ErrPersistence)
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEventDAO) GetUserEvents(ctx context.Context, query *model.EventQuery) ([]*model.InteractionEvent, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*model.InteractionEvent
	for _, e := range f.events {
		if e.UserID != query.UserID {
			continue
		}
		if query.Kind != "" && e.Kind != query.Kind {
			continue
		}
		matched = append(matched, e)
	}
	return matched, int64(len(matched)), nil
}

func (f *fakeEventDAO) ListUserEventsAfter(ctx context.Context, userID, afterID int64, limit int) ([]*model.InteractionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*model.InteractionEvent
	for _, e := range f.events {
		if e.UserID != userID || e.ID <= afterID {
			continue
		}
		matched = append(matched, e)
		if len(matched) >= limit {
			break
		}
	}
	return matched, nil
}

func (f *fakeEventDAO) DeleteUserEvents(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []*model.InteractionEvent
	for _, e := range f.events {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	f.events = kept
	return nil
}

type fakePreferenceDAO struct {
	mu        sync.Mutex
	scores    map[int64]map[string]float64
	failApply bool
}

func newFakePreferenceDAO() *fakePreferenceDAO {
	return &fakePreferenceDAO{scores: make(map[int64]map[string]float64)}
}

func (f *fakePreferenceDAO) ApplyDelta(ctx context.Context, userID int64, tag string, delta float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failApply {
		return errors.New("connection refused")
	}
	if f.scores[userID] == nil {
		f.scores[userID] = make(map[string]float64)
	}
	f.scores[userID][tag] += delta
	return nil
}

func (f *fakePreferenceDAO) GetUserScores(ctx context.Context, userID int64) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make(map[string]float64, len(f.scores[userID]))
	for tag, score := range f.scores[userID] {
		result[tag] = score
	}
	return result, nil
}

func (f *fakePreferenceDAO) ReplaceUserScores(ctx context.Context, userID int64, scores map[string]float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	replaced := make(map[string]float64, len(scores))
	for tag, score := range scores {
		replaced[tag] = score
	}
	f.scores[userID] = replaced
	return nil
}

func (f *fakePreferenceDAO) DeleteUserScores(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scores, userID)
	return nil
}

type fakeRatingDAO struct {
	mu      sync.Mutex
	ratings map[string]*model.Rating
	stats   map[int64]*model.RatingStats
}

func newFakeRatingDAO() *fakeRatingDAO {
	return &fakeRatingDAO{
		ratings: make(map[string]*model.Rating),
		stats:   make(map[int64]*model.RatingStats),
	}
}

func ratingKey(userID, targetID int64) string {
	return fmt.Sprintf("%d:%d", userID, targetID)
}

func (f *fakeRatingDAO) UpsertRating(ctx context.Context, rating *model.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings[ratingKey(rating.UserID, rating.TargetID)] = rating
	return nil
}

func (f *fakeRatingDAO) GetRating(ctx context.Context, userID, targetID int64) (*model.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rating, ok := f.ratings[ratingKey(userID, targetID)]
	if !ok {
		return nil, model.ErrNotFound
	}
	return rating, nil
}

func (f *fakeRatingDAO) GetUserRatings(ctx context.Context, userID int64) ([]*model.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*model.Rating
	for _, r := range f.ratings {
		if r.UserID == userID {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

func (f *fakeRatingDAO) RecomputeStats(ctx context.Context, targetID int64) (*model.RatingStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum, count int64
	for _, r := range f.ratings {
		if r.TargetID == targetID {
			sum += int64(r.Value)
			count++
		}
	}
	stats := &model.RatingStats{TargetID: targetID, RatingCount: count}
	if count > 0 {
		stats.Average = float64(sum) / float64(count)
	}
	f.stats[targetID] = stats
	return stats, nil
}

func (f *fakeRatingDAO) GetStats(ctx context.Context, targetID int64) (*model.RatingStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stats, ok := f.stats[targetID]; ok {
		return stats, nil
	}
	return &model.RatingStats{TargetID: targetID}, nil
}

func (f *fakeRatingDAO) DeleteUserRatings(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, r := range f.ratings {
		if r.UserID == userID {
			delete(f.ratings, key)
		}
	}
	return nil
}

type fakeCatalogDAO struct {
	mu   sync.Mutex
	tags map[int64][]string
}

func newFakeCatalogDAO() *fakeCatalogDAO {
	return &fakeCatalogDAO{tags: make(map[int64][]string)}
}

func (f *fakeCatalogDAO) GetTarget(ctx context.Context, targetID int64) (*model.CatalogTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tags, ok := f.tags[targetID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &model.CatalogTarget{ID: targetID, Tags: tags}, nil
}

func (f *fakeCatalogDAO) GetTargetTags(ctx context.Context, targetID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tags, ok := f.tags[targetID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return tags, nil
}

type fakeSearchDAO struct {
	mu      sync.Mutex
	indexed []*model.InteractionEventMessage
	erased  []int64
}

func (f *fakeSearchDAO) IndexInteraction(ctx context.Context, msg *model.InteractionEventMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, msg)
	return nil
}

func (f *fakeSearchDAO) SearchUserInteractions(ctx context.Context, userID int64, kind string, from, size int) ([]*model.InteractionEventMessage, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*model.InteractionEventMessage
	for _, m := range f.indexed {
		if m.UserID != userID {
			continue
		}
		if kind != "" && m.Kind != kind {
			continue
		}
		matched = append(matched, m)
	}
	return matched, int64(len(matched)), nil
}

func (f *fakeSearchDAO) DeleteUserInteractions(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.erased = append(f.erased, userID)
	return nil
}

type fakeEngine struct {
	mu       sync.Mutex
	cards    []*model.RecommendationCard
	err      error
	notified []*model.InteractionEventMessage
	lastPref map[string]float64
}

func (f *fakeEngine) RequestRecommendations(ctx context.Context, userID int64, feedContext string, preferences map[string]float64, params *model.FeedParams) ([]*model.RecommendationCard, *model.FeedMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPref = preferences
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.cards, &model.FeedMetadata{Context: feedContext, TotalCount: int64(len(f.cards))}, nil
}

func (f *fakeEngine) NotifyInteraction(ctx context.Context, msg *model.InteractionEventMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, msg)
}

// testEnv 组装一套全内存依赖的Service
type testEnv struct {
	svc     *Service
	events  *fakeEventDAO
	prefs   *fakePreferenceDAO
	ratings *fakeRatingDAO
	catalog *fakeCatalogDAO
	search  *fakeSearchDAO
	engine  *fakeEngine
}

func newTestEnv() *testEnv {
	events := &fakeEventDAO{}
	prefs := newFakePreferenceDAO()
	ratings := newFakeRatingDAO()
	catalog := newFakeCatalogDAO()
	search := &fakeSearchDAO{}
	engine := &fakeEngine{}

	log, err := logger.NewLogger("error")
	if err != nil {
		panic(err)
	}
	idGen, err := snowflake.NewSnowflake(1)
	if err != nil {
		panic(err)
	}

	svc := NewService(events, prefs, ratings, catalog, search, nil, nil, engine, idGen, log)
	return &testEnv{
		svc:     svc,
		events:  events,
		prefs:   prefs,
		ratings: ratings,
		catalog: catalog,
		search:  search,
		engine:  engine,
	}
}
