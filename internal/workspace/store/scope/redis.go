package scope

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"consulthub/internal/workspace/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
)

const keyPrefix = "workspace:"

// scopeJSON is the stored representation of a Scope.
type scopeJSON struct {
	ConsultancyID   string `json:"consultancy_id"`
	ClientCompanyID string `json:"client_company_id"`
	SelectedAt      int64  `json:"selected_at"` // Unix nano
}

// RedisStore keeps workspace pointers in Redis with a TTL so abandoned
// sessions do not accumulate.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, scope *models.Scope, ttl time.Duration) error {
	data, err := json.Marshal(scopeJSON{
		ConsultancyID:   scope.ConsultancyID.String(),
		ClientCompanyID: scope.ClientCompanyID.String(),
		SelectedAt:      scope.SelectedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("marshal workspace: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+scope.Key, data, ttl).Err(); err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, key string) (*models.Scope, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find workspace: %w", err)
	}
	var j scopeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unmarshal workspace: %w", err)
	}
	consultancyID, err := uuid.Parse(j.ConsultancyID)
	if err != nil {
		return nil, fmt.Errorf("parse consultancy id: %w", err)
	}
	companyID, err := uuid.Parse(j.ClientCompanyID)
	if err != nil {
		return nil, fmt.Errorf("parse client company id: %w", err)
	}
	return &models.Scope{
		Key:             key,
		ConsultancyID:   id.ConsultancyID(consultancyID),
		ClientCompanyID: id.ClientCompanyID(companyID),
		SelectedAt:      time.Unix(0, j.SelectedAt).UTC(),
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	return nil
}
