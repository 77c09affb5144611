// Package elasticsearch mirrors committed game records into an Elasticsearch
// index for analytics. The mirror is best effort: the relational store stays
// the source of truth and a lost document never affects settlement.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/fastprodman/wagerengine/internal/config"
	"github.com/fastprodman/wagerengine/internal/repos/records"
)

const (
	defaultBuffer  = 1024
	maxIndexTries  = 4
	indexTimeout   = 5 * time.Second
	initialBackoff = 200 * time.Millisecond
)

const mapping = `{
	"mappings": {
		"properties": {
			"game_id":      {"type": "keyword"},
			"user_id":      {"type": "long"},
			"game_type":    {"type": "keyword"},
			"rule_set_id":  {"type": "long"},
			"stake_amount": {"type": "scaled_float", "scaling_factor": 100},
			"win_amount":   {"type": "scaled_float", "scaling_factor": 100},
			"outcome":      {"type": "keyword"},
			"game_result":  {"type": "object", "enabled": false},
			"started_at":   {"type": "date"},
			"resolved_at":  {"type": "date"}
		}
	}
}`

var _ records.Sink = (*Exporter)(nil)

// Exporter indexes records from a bounded queue on a background goroutine.
type Exporter struct {
	client *elasticsearch.Client
	index  string
	queue  chan records.Record
	log    *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient builds a client from configuration.
func NewClient(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	esCfg := elasticsearch.Config{Addresses: cfg.Addresses}

	if cfg.Username != "" && cfg.Password != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	return client, nil
}

// New returns an exporter writing to index. Call Run to start it.
func New(client *elasticsearch.Client, index string) *Exporter {
	return &Exporter{
		client: client,
		index:  index,
		queue:  make(chan records.Record, defaultBuffer),
		log:    slog.Default().With(slog.String("component", "record_exporter")),
		done:   make(chan struct{}),
	}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (e *Exporter) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	req := esapi.IndicesCreateRequest{
		Index: e.index,
		Body:  strings.NewReader(mapping),
	}

	res, err = req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	// A concurrent creator wins the race with resource_already_exists.
	if res.IsError() && res.StatusCode != 400 {
		return fmt.Errorf("create index: %s", res.String())
	}

	return nil
}

// Publish queues r. A full queue drops the record with a warning.
func (e *Exporter) Publish(r records.Record) {
	select {
	case e.queue <- r:
	default:
		e.log.Warn("record export queue full, dropping record", slog.String("game_id", r.GameID.String()))
	}
}

// Run drains the queue until ctx ends or Close is called.
func (e *Exporter) Run(ctx context.Context) {
	for {
		select {
		case r := <-e.queue:
			e.export(ctx, r)
		case <-ctx.Done():
			return
		case <-e.done:
			// Flush what is already queued.
			for {
				select {
				case r := <-e.queue:
					e.export(ctx, r)
				default:
					return
				}
			}
		}
	}
}

// Close stops Run after the queued records are flushed.
func (e *Exporter) Close() {
	e.closeOnce.Do(func() { close(e.done) })
}

func (e *Exporter) export(ctx context.Context, r records.Record) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialBackoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, e.Index(ctx, r)
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(maxIndexTries))
	if err != nil {
		e.log.Error("export game record", slog.String("game_id", r.GameID.String()), slog.Any("error", err))
	}
}

// Index writes r synchronously, keyed by game id so a retry overwrites
// instead of duplicating.
func (e *Exporter) Index(ctx context.Context, r records.Record) error {
	body, err := json.Marshal(r)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("marshal record: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	res, err := e.client.Index(
		e.index,
		bytes.NewReader(body),
		e.client.Index.WithDocumentID(r.GameID.String()),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index game record: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		err = fmt.Errorf("index game record: %s", res.String())
		if res.StatusCode >= 400 && res.StatusCode < 500 && res.StatusCode != 429 {
			return backoff.Permanent(err)
		}

		return err
	}

	return nil
}
