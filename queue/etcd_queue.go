package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"iracing-broadcast/codec"
	"iracing-broadcast/message"
	"iracing-broadcast/relay"
)

const dialTimeout = 5 * time.Second

// EtcdQueue implements Queue using etcd v3.
type EtcdQueue struct {
	client *clientv3.Client // Thread-safe, shared across goroutines
	prefix string
	codec  codec.Codec
	logger *zap.Logger
}

// NewEtcdQueue connects to endpoints. An empty prefix selects DefaultPrefix.
func NewEtcdQueue(endpoints []string, prefix string, logger *zap.Logger) (*EtcdQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
		Logger:      logger.Named("etcd"),
	})
	if err != nil {
		return nil, fmt.Errorf("queue: connect etcd: %w", err)
	}
	return &EtcdQueue{
		client: c,
		prefix: prefix,
		codec:  codec.GetCodec(codec.CodecTypeJSON),
		logger: logger,
	}, nil
}

func (q *EtcdQueue) Enqueue(ctx context.Context, msg message.BroadcastMessage) (string, error) {
	val, err := q.codec.Encode(msg)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := q.client.Put(ctx, q.prefix+id, string(val)); err != nil {
		return "", fmt.Errorf("queue: put %s: %w", id, err)
	}
	return id, nil
}

func (q *EtcdQueue) Pending(ctx context.Context) ([]string, error) {
	resp, err := q.client.Get(ctx, q.prefix,
		clientv3.WithPrefix(),
		clientv3.WithKeysOnly(),
		clientv3.WithSort(clientv3.SortByCreateRevision, clientv3.SortAscend))
	if err != nil {
		return nil, fmt.Errorf("queue: list: %w", err)
	}
	ids := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		ids = append(ids, strings.TrimPrefix(string(kv.Key), q.prefix))
	}
	return ids, nil
}

// Commands reads the backlog, then watches the prefix from the revision
// after it so nothing written in between is missed.
//
// Uses etcd's Watch API (server-push) rather than polling.
func (q *EtcdQueue) Commands(ctx context.Context) (<-chan relay.Command, error) {
	resp, err := q.client.Get(ctx, q.prefix,
		clientv3.WithPrefix(),
		clientv3.WithSort(clientv3.SortByCreateRevision, clientv3.SortAscend))
	if err != nil {
		return nil, fmt.Errorf("queue: read backlog: %w", err)
	}

	ch := make(chan relay.Command)
	go func() {
		defer close(ch)
		for _, kv := range resp.Kvs {
			if !q.emit(ctx, ch, string(kv.Key), kv.Value) {
				return
			}
		}

		watchChan := q.client.Watch(ctx, q.prefix,
			clientv3.WithPrefix(),
			clientv3.WithRev(resp.Header.Revision+1))
		for wresp := range watchChan {
			if err := wresp.Err(); err != nil {
				q.logger.Error("queue watch failed", zap.Error(err))
				return
			}
			for _, ev := range wresp.Events {
				// Deletes are our own acks; modifications of a pending key are ignored.
				if ev.Type != clientv3.EventTypePut || !ev.IsCreate() {
					continue
				}
				if !q.emit(ctx, ch, string(ev.Kv.Key), ev.Kv.Value) {
					return
				}
			}
		}
	}()
	return ch, nil
}

// emit decodes one entry and hands it to the relay. It reports false once
// ctx is done.
func (q *EtcdQueue) emit(ctx context.Context, ch chan<- relay.Command, key string, value []byte) bool {
	id := strings.TrimPrefix(key, q.prefix)
	msg, err := q.codec.Decode(value)
	if err != nil {
		q.logger.Warn("dropping malformed command", zap.String("id", id), zap.Error(err))
		q.ack(key)
		return true
	}

	cmd := relay.Command{
		ID:      id,
		Origin:  "etcd",
		Message: msg,
		Done:    func(error) { q.ack(key) },
	}
	select {
	case ch <- cmd:
		return true
	case <-ctx.Done():
		return false
	}
}

func (q *EtcdQueue) ack(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if _, err := q.client.Delete(ctx, key); err != nil {
		q.logger.Warn("queue ack failed", zap.String("key", key), zap.Error(err))
	}
}

func (q *EtcdQueue) Close() error {
	return q.client.Close()
}

var _ Queue = (*EtcdQueue)(nil)
