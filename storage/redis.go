package storage

import (
	"context"
	"encoding/json"

	"github.com/cloudflare/cfssl/log"
	"github.com/go-redis/redis/v8"
)

// Redis快照发布器：把账本投影发布到共享缓存，供外部观察者读取
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(addr string) *RedisPublisher {
	return &RedisPublisher{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (p *RedisPublisher) PublishSnapshot(ctx context.Context, nodeName string, snapshot map[string]interface{}) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := p.rdb.Set(ctx, "snapshot:"+nodeName, string(data), 0).Err(); err != nil {
		log.Errorf("[storage] redis发布失败: %v", err)
		return err
	}
	return nil
}

func (p *RedisPublisher) FetchSnapshot(ctx context.Context, nodeName string) (map[string]interface{}, error) {
	val, err := p.rdb.Get(ctx, "snapshot:"+nodeName).Result()
	if err == redis.Nil {
		log.Errorf("[storage] 快照不存在: %s", nodeName)
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	snapshot := map[string]interface{}{}
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
