package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "appointments"

// RedisRepository keeps each appointment in a hash at <prefix>:<id> and the
// set of known ids at <prefix>.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(id string) string {
	return r.prefix + ":" + id
}

func (r *RedisRepository) Create(ctx context.Context, a Appointment) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key(id), a.fields())
		pipe.SAdd(ctx, r.prefix, id)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis create appointment: %w", err)
	}
	return id, nil
}

func (r *RedisRepository) List(ctx context.Context) (map[string]Appointment, error) {
	ids, err := r.client.SMembers(ctx, r.prefix).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list appointment ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.key(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis load appointments: %w", err)
	}

	var out map[string]Appointment
	for i, cmd := range cmds {
		m := cmd.Val()
		// index entry whose hash was removed out of band
		if len(m) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string]Appointment, len(ids))
		}
		out[ids[i]] = fromFields(ids[i], m)
	}
	return out, nil
}

func (r *RedisRepository) Get(ctx context.Context, id string) (*Appointment, error) {
	m, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get appointment %s: %w", id, err)
	}
	if len(m) == 0 {
		return nil, ErrAppointmentNotFound
	}
	a := fromFields(id, m)
	return &a, nil
}

// updateScript writes the fields only when the record exists, so an update
// never resurrects a deleted appointment.
var updateScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV))
return 1
`)

func (r *RedisRepository) Update(ctx context.Context, id string, a Appointment) error {
	args := []any{"date", a.Date, "time", a.Time, "user", a.User, "status", a.Status}
	n, err := updateScript.Run(ctx, r.client, []string{r.key(id)}, args...).Int()
	if err != nil {
		return fmt.Errorf("redis update appointment %s: %w", id, err)
	}
	if n == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key(id))
		pipe.SRem(ctx, r.prefix, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete appointment %s: %w", id, err)
	}
	return nil
}

// newID returns a time ordered key so ids sort by creation.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate appointment id: %w", err)
	}
	return id.String(), nil
}
