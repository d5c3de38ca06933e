package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "hosroute:plans"

// PlanCreated is the message announced for every stored plan.
type PlanCreated struct {
	ID         string `json:"id"`
	DisplayID  string `json:"display_id"`
	TenantID   string `json:"tenant_id"`
	DriverID   string `json:"driver_id"`
	IsFeasible bool   `json:"is_feasible"`
}

// RedisPublisher publishes plan events on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) PublishPlanCreated(ctx context.Context, rec domain.PlanRecord, plan *domain.Plan) (err error) {
	defer obs.Time(ctx, "events.PublishPlanCreated")(&err)

	if p.client == nil {
		return errors.New("redis publisher: client is nil")
	}
	if plan == nil {
		return errors.New("publish plan created: plan is nil")
	}

	data, err := json.Marshal(PlanCreated{
		ID:         rec.ID,
		DisplayID:  rec.DisplayID,
		TenantID:   plan.TenantID,
		DriverID:   plan.DriverID,
		IsFeasible: plan.IsFeasible,
	})
	if err != nil {
		return fmt.Errorf("publish plan created: marshal: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish plan created: %w", err)
	}
	return nil
}
