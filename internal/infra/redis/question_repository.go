package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/domain"
)

// QuestionLoader fetches a question set from a backing store.
type QuestionLoader interface {
	LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// QuestionRepository caches question sets in Redis (one hash per set, field =
// question index, value = question JSON) and falls back to a loader on miss.
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	key := r.setKey(setID)

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return buildSetFromCache(setID, fields)
	}

	result, err, _ := r.sf.Do(setID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		fields, err := r.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			return buildSetFromCache(setID, fields)
		}

		set, err := r.loader.LoadQuestionSet(ctx, setID)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		pipe := r.client.Pipeline()
		for i, q := range set.Questions {
			raw, err := json.Marshal(q)
			if err != nil {
				return domain.QuestionSet{}, err
			}
			pipe.HSet(ctx, key, strconv.Itoa(i), raw)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (r *QuestionRepository) setKey(setID string) string {
	return "questions:" + setID
}

// buildSetFromCache rebuilds the ordered question list from the hash; fields
// with non-numeric names or broken JSON are ignored.
func buildSetFromCache(setID string, fields map[string]string) (domain.QuestionSet, error) {
	indices := make([]int, 0, len(fields))
	byIndex := make(map[int]domain.Question, len(fields))
	for field, raw := range fields {
		i, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			continue
		}
		indices = append(indices, i)
		byIndex[i] = q
	}
	sort.Ints(indices)

	questions := make([]domain.Question, 0, len(indices))
	for _, i := range indices {
		questions = append(questions, byIndex[i])
	}
	if len(questions) == 0 {
		return domain.QuestionSet{}, domain.ErrNoQuestions
	}
	return domain.QuestionSet{ID: setID, Questions: questions}, nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
