package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/signalnine/studyscope/internal/storage/redis"
	"github.com/signalnine/studyscope/internal/storage/storagetest"
	"github.com/signalnine/studyscope/internal/trial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Contract(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	store := redis.NewFromClient(client)
	storagetest.RunStoreContract(t, store)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store := redis.New(mr.Addr(), "", 0, redis.WithPrefix("custom:"))
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.CreateStudy(ctx, "s1", trial.Minimize))
	_, err = store.AppendTrial(ctx, "s1", trial.Trial{State: trial.StateFail})
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:study:s1"))
	assert.True(t, mr.Exists("custom:trials:s1"))
	assert.False(t, mr.Exists("studyscope:study:s1"))

	dir := mr.HGet("custom:study:s1", "direction")
	assert.Equal(t, "MINIMIZE", dir)
}
