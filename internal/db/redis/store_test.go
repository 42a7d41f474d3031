package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/nutrirag/internal/db"
)

func newMockStore(t *testing.T) (*Store, *mock.Client) {
	t.Helper()
	c := mock.NewClient(gomock.NewController(t))
	return newStore(c), c
}

func TestNewStore_RequiresAddress(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error without addresses")
	}
}

func TestPing(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG")))
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.ErrorResult(context.DeadlineExceeded))
	err := s.Ping(context.Background())
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpPing {
		t.Errorf("err = %v, want db.Error PING", err)
	}
}

func TestWaitForReady(t *testing.T) {
	t.Run("first ping answers", func(t *testing.T) {
		s, c := newMockStore(t)
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG")))
		if err := s.WaitForReady(context.Background(), time.Second); err != nil {
			t.Fatalf("WaitForReady: %v", err)
		}
	})

	t.Run("never answers", func(t *testing.T) {
		s, c := newMockStore(t)
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
			Return(mock.ErrorResult(errors.New("connection refused"))).AnyTimes()
		err := s.WaitForReady(context.Background(), 250*time.Millisecond)
		if err == nil {
			t.Fatal("expected timeout")
		}
	})
}

func TestGet(t *testing.T) {
	s, c := newMockStore(t)
	ctx := context.Background()

	c.EXPECT().Do(gomock.Any(), mock.Match("GET", "nutrirag:emb:1")).
		Return(mock.Result(mock.RedisBlobString("vec")))
	data, err := s.Get(ctx, "nutrirag:emb:1")
	if err != nil || string(data) != "vec" {
		t.Fatalf("Get = %q, %v", data, err)
	}

	c.EXPECT().Do(gomock.Any(), mock.Match("GET", "nutrirag:emb:2")).
		Return(mock.Result(mock.RedisNil()))
	if _, err := s.Get(ctx, "nutrirag:emb:2"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("missing key err = %v", err)
	}

	c.EXPECT().Do(gomock.Any(), mock.Match("GET", "nutrirag:emb:3")).
		Return(mock.ErrorResult(context.DeadlineExceeded))
	_, err = s.Get(ctx, "nutrirag:emb:3")
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpGet || dbErr.Key != "nutrirag:emb:3" {
		t.Errorf("err = %v, want db.Error GET with key", err)
	}
	if errors.Is(err, db.ErrKeyNotFound) {
		t.Error("network error reported as missing key")
	}
}

func TestSetWithTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		cmd  []string
	}{
		{"expiring", time.Hour, []string{"SET", "nutrirag:session:1", "{}", "EX", "3600"}},
		{"no expiry", 0, []string{"SET", "nutrirag:session:1", "{}"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().Do(gomock.Any(), mock.Match(tc.cmd...)).Return(mock.Result(mock.RedisString("OK")))
			if err := s.SetWithTTL(context.Background(), "nutrirag:session:1", []byte("{}"), tc.ttl); err != nil {
				t.Fatalf("SetWithTTL: %v", err)
			}
		})
	}
}

func TestDel(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("DEL", "k")).Return(mock.Result(mock.RedisInt64(0)))
	if err := s.Del(context.Background(), "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
}

func TestIncrWithTTL(t *testing.T) {
	const key = "nutrirag:budget:generation:daily:2026-03-01"

	t.Run("pipelines incr and expire nx", func(t *testing.T) {
		s, c := newMockStore(t)
		c.EXPECT().DoMulti(gomock.Any(),
			mock.Match("INCRBY", key, "120"),
			mock.Match("EXPIRE", key, "172800", "NX"),
		).Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(420)),
			mock.Result(mock.RedisInt64(0)),
		})

		total, err := s.IncrWithTTL(context.Background(), key, 120, 48*time.Hour)
		if err != nil || total != 420 {
			t.Fatalf("IncrWithTTL = %d, %v", total, err)
		}
	})

	t.Run("sub-second ttl rounds up", func(t *testing.T) {
		s, c := newMockStore(t)
		c.EXPECT().DoMulti(gomock.Any(),
			mock.Match("INCRBY", key, "1"),
			mock.Match("EXPIRE", key, "1", "NX"),
		).Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(1)),
			mock.Result(mock.RedisInt64(1)),
		})
		if _, err := s.IncrWithTTL(context.Background(), key, 1, time.Millisecond); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("no ttl skips expire", func(t *testing.T) {
		s, c := newMockStore(t)
		c.EXPECT().DoMulti(gomock.Any(), mock.Match("INCRBY", key, "7")).
			Return([]rueidis.RedisResult{mock.Result(mock.RedisInt64(7))})
		if total, err := s.IncrWithTTL(context.Background(), key, 7, 0); err != nil || total != 7 {
			t.Fatalf("IncrWithTTL = %d, %v", total, err)
		}
	})

	t.Run("incr failure", func(t *testing.T) {
		s, c := newMockStore(t)
		c.EXPECT().DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).Return([]rueidis.RedisResult{
			mock.ErrorResult(errors.New("connection reset")),
			mock.ErrorResult(errors.New("connection reset")),
		})
		_, err := s.IncrWithTTL(context.Background(), key, 5, time.Hour)
		var dbErr *db.Error
		if !errors.As(err, &dbErr) || dbErr.Op != db.OpIncrBy {
			t.Errorf("err = %v, want db.Error INCRBY", err)
		}
	})

	t.Run("expire failure keeps total", func(t *testing.T) {
		s, c := newMockStore(t)
		c.EXPECT().DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(9)),
			mock.ErrorResult(errors.New("READONLY")),
		})
		total, err := s.IncrWithTTL(context.Background(), key, 9, time.Hour)
		var dbErr *db.Error
		if !errors.As(err, &dbErr) || dbErr.Op != db.OpExpire || total != 9 {
			t.Errorf("IncrWithTTL = %d, %v", total, err)
		}
	})
}

func TestError_Message(t *testing.T) {
	err := &db.Error{Op: db.OpGet, Key: "k", Err: errors.New("boom")}
	if got := err.Error(); got != "GET k: boom" {
		t.Errorf("Error() = %q", got)
	}
	err = &db.Error{Op: db.OpPing, Err: errors.New("boom")}
	if got := err.Error(); got != "PING: boom" {
		t.Errorf("Error() = %q", got)
	}
}
