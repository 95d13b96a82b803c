package scheduler

import (
	"context"
	"testing"
)

type schedulerConfig struct {
	redisURL    string
	tlsInsecure bool
	queue       string
	concurrency int
}

func (c schedulerConfig) GetRedisURL() string      { return c.redisURL }
func (c schedulerConfig) GetRedisTLSInsecure() bool { return c.tlsInsecure }
func (c schedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c schedulerConfig) GetAsynqConcurrency() int  { return c.concurrency }

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(schedulerConfig{}); err == nil {
		t.Fatal("expected an error without a redis url")
	}
}

func TestNilClientIsNoOp(t *testing.T) {
	var c *Client

	if err := c.EnqueueQuotaReset(context.Background(), QuotaResetPayload{UserID: "u"}); err != nil {
		t.Errorf("EnqueueQuotaReset on nil client: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on nil client: %v", err)
	}
}

func TestRedisClientOptParsesURL(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@redis.internal:6380/2", false)
	if err != nil {
		t.Fatalf("redisClientOpt: %v", err)
	}
	if opt.Addr != "redis.internal:6380" {
		t.Errorf("addr = %q", opt.Addr)
	}
	if opt.Password != "secret" || opt.DB != 2 {
		t.Errorf("credentials = %q/%d", opt.Password, opt.DB)
	}
	if opt.TLSConfig != nil {
		t.Error("plain redis url must not carry a TLS config")
	}
}

func TestRedisClientOptTLSInsecure(t *testing.T) {
	opt, err := redisClientOpt("rediss://redis.internal:6380", true)
	if err != nil {
		t.Fatalf("redisClientOpt: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Error("insecure flag not applied to TLS config")
	}

	opt, err = redisClientOpt("redis://redis.internal:6380", true)
	if err != nil {
		t.Fatalf("redisClientOpt: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Error("insecure flag must force a TLS config on plain urls")
	}
}
