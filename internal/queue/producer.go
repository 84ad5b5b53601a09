package queue

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
)

type Producer struct {
	client      *redis.Client
	importQueue string
}

func NewProducer(redisClient *RedisClient, importQueue string) *Producer {
	return &Producer{
		client:      redisClient.Client(),
		importQueue: importQueue,
	}
}

func (p *Producer) EnqueueImportJob(ctx context.Context, job model.ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return p.client.LPush(ctx, p.importQueue, data).Err()
}
