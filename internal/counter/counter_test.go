package counter

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client), mr
}

func TestAdmitWithinLimit(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := store.Admit(ctx, "watch:u1", 5, time.Minute)
		if err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("request %d should be admitted", i+1)
		}
	}

	allowed, err := store.Admit(ctx, "watch:u1", 5, time.Minute)
	if err != nil {
		t.Fatalf("admit over limit: %v", err)
	}
	if allowed {
		t.Fatal("sixth request should be denied")
	}
}

func TestAdmitIsolatesKeys(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	if _, err := store.Admit(ctx, "watch:u1", 1, time.Minute); err != nil {
		t.Fatalf("admit u1: %v", err)
	}
	allowed, err := store.Admit(ctx, "watch:u2", 1, time.Minute)
	if err != nil {
		t.Fatalf("admit u2: %v", err)
	}
	if !allowed {
		t.Fatal("u2 should not be affected by u1's counter")
	}
}

func TestAdmitSixtyFirstClaimDenied(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		allowed, err := store.Admit(ctx, "watch:u1", 60, time.Minute)
		if err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("claim %d should be admitted", i+1)
		}
	}
	allowed, err := store.Admit(ctx, "watch:u1", 60, time.Minute)
	if err != nil {
		t.Fatalf("61st admit: %v", err)
	}
	if allowed {
		t.Fatal("61st claim within the window should be denied")
	}
}

func TestAdmitBucketExpiry(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	if _, err := store.Admit(ctx, "watch:u1", 1, time.Minute); err != nil {
		t.Fatalf("admit: %v", err)
	}
	bucket := time.Now().Unix() / 60
	key := fmt.Sprintf("rl:watch:u1:%d", bucket)
	ttl := mr.TTL(key)
	if ttl <= time.Minute || ttl > 2*time.Minute {
		t.Fatalf("expected TTL in (1m, 2m], got %v", ttl)
	}
}

func TestAdmitFailsClosedOnStoreError(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	mr.Close()

	allowed, err := store.Admit(ctx, "watch:u1", 60, time.Minute)
	if err == nil {
		t.Fatal("expected error when redis is down")
	}
	if allowed {
		t.Fatal("store failure must deny admission")
	}
}

func TestTryAcquireCooldownSingleUse(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	acquired, err := store.TryAcquireCooldown(ctx, "ad_cooldown:u1", time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !acquired {
		t.Fatal("first acquisition should succeed")
	}

	acquired, err = store.TryAcquireCooldown(ctx, "ad_cooldown:u1", time.Minute)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if acquired {
		t.Fatal("second acquisition within TTL should fail")
	}
}

func TestReleaseCooldownFreesLock(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	if _, err := store.TryAcquireCooldown(ctx, "ad_cooldown:u1", time.Minute); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := store.ReleaseCooldown(ctx, "ad_cooldown:u1"); err != nil {
		t.Fatalf("release: %v", err)
	}

	acquired, err := store.TryAcquireCooldown(ctx, "ad_cooldown:u1", time.Minute)
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if !acquired {
		t.Fatal("lock should be free after release")
	}
}

func TestTryAcquireCooldownReleasesAfterTTL(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	if _, err := store.TryAcquireCooldown(ctx, "ad_cooldown:u1", time.Minute); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	mr.FastForward(time.Minute + time.Second)

	acquired, err := store.TryAcquireCooldown(ctx, "ad_cooldown:u1", time.Minute)
	if err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}
	if !acquired {
		t.Fatal("lock should be free after TTL elapses")
	}
}
