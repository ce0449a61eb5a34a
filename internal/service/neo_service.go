package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"neowatch/internal/export"
	"neowatch/internal/filters"
	"neowatch/internal/metrics"
	"neowatch/internal/models"
	"neowatch/internal/neodb"
	"neowatch/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Query sources recorded in the query log.
const (
	SourceAPI = "api"
	SourceCLI = "cli"
)

const (
	cacheKeyPrefix = "neowatch:query:"
	cacheHitsKey   = "neowatch:stats:cache_hits"
)

type NEOService interface {
	GetByDesignation(ctx context.Context, designation string) (*models.NearEarthObject, bool)
	GetByName(ctx context.Context, name string) (*models.NearEarthObject, bool)
	QueryApproaches(ctx context.Context, criteria filters.Criteria, limit int) (*QueryResult, error)
	ExportApproaches(ctx context.Context, w io.Writer, format export.Format, criteria filters.Criteria, limit int) (int, error)
	Stats(ctx context.Context) (*SystemStats, error)
}

type QueryResult struct {
	Count      int          `json:"count"`
	Cached     bool         `json:"cached"`
	Approaches []export.Row `json:"approaches"`
}

type SystemStats struct {
	Dataset       neodb.Stats       `json:"dataset"`
	QueryLogCount *int64            `json:"query_log_count,omitempty"`
	CachedQueries *int              `json:"cached_queries,omitempty"`
	CacheHits     *int64            `json:"cache_hits,omitempty"`
	Redis         map[string]string `json:"redis,omitempty"`
}

// Options wires the optional infrastructure. Nil repositories disable the
// matching feature.
type Options struct {
	Source    string
	Cache     repository.CacheRepository
	CacheTTL  time.Duration
	QueryLogs repository.QueryLogRepository
	RedisInfo func(ctx context.Context) (map[string]string, error)
	Logger    *zap.Logger
}

type neoService struct {
	db        *neodb.Database
	dataset   string
	source    string
	cache     repository.CacheRepository
	cacheTTL  time.Duration
	queryLogs repository.QueryLogRepository
	redisInfo func(ctx context.Context) (map[string]string, error)
	log       *zap.Logger
}

func NewNEOService(db *neodb.Database, opts Options) NEOService {
	s := &neoService{
		db:        db,
		dataset:   fingerprint(db),
		source:    opts.Source,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		queryLogs: opts.QueryLogs,
		redisInfo: opts.RedisInfo,
		log:       opts.Logger,
	}
	if s.source == "" {
		s.source = SourceAPI
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = 10 * time.Minute
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}

	stats := db.Stats()
	metrics.DatasetSize.WithLabelValues("neos").Set(float64(stats.NEOs))
	metrics.DatasetSize.WithLabelValues("approaches").Set(float64(stats.Approaches))
	return s
}

func (s *neoService) GetByDesignation(_ context.Context, designation string) (*models.NearEarthObject, bool) {
	return s.db.GetByDesignation(designation)
}

func (s *neoService) GetByName(_ context.Context, name string) (*models.NearEarthObject, bool) {
	return s.db.GetByName(name)
}

func (s *neoService) QueryApproaches(ctx context.Context, criteria filters.Criteria, limit int) (*QueryResult, error) {
	start := time.Now()
	if limit < 0 {
		limit = 0
	}

	if err := criteria.Validate(); err != nil {
		metrics.QueriesTotal.WithLabelValues(s.source, "invalid").Inc()
		return nil, err
	}

	key, err := cacheKey(s.dataset, criteria, limit)
	if err != nil {
		return nil, err
	}

	if rows, ok := s.fromCache(ctx, key); ok {
		s.observe(start, len(rows), "cached")
		return &QueryResult{Count: len(rows), Cached: true, Approaches: rows}, nil
	}

	seq, err := s.db.Query(filters.Create(criteria)...)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(s.source, "error").Inc()
		return nil, fmt.Errorf("failed to query approaches: %w", err)
	}
	rows := export.Rows(filters.Limit(seq, limit))
	if rows == nil {
		rows = []export.Row{}
	}

	s.toCache(ctx, key, rows)
	s.record(ctx, criteria, limit, len(rows), time.Since(start))
	s.observe(start, len(rows), "success")

	return &QueryResult{Count: len(rows), Approaches: rows}, nil
}

func (s *neoService) ExportApproaches(ctx context.Context, w io.Writer, format export.Format, criteria filters.Criteria, limit int) (int, error) {
	result, err := s.QueryApproaches(ctx, criteria, limit)
	if err != nil {
		return 0, err
	}
	if err := export.Write(w, format, result.Approaches); err != nil {
		return 0, fmt.Errorf("failed to export approaches: %w", err)
	}
	return result.Count, nil
}

func (s *neoService) Stats(ctx context.Context) (*SystemStats, error) {
	stats := &SystemStats{Dataset: s.db.Stats()}

	if s.queryLogs != nil {
		count, err := s.queryLogs.Count(ctx)
		if err != nil {
			s.log.Warn("Failed to count query logs", zap.Error(err))
		} else {
			stats.QueryLogCount = &count
		}
	}

	if s.cache != nil {
		if keys, err := s.cache.Keys(ctx, cacheKeyPrefix+"*"); err != nil {
			s.log.Warn("Failed to list cached queries", zap.Error(err))
		} else {
			n := len(keys)
			stats.CachedQueries = &n
		}
		if hits, err := s.cache.GetInt(ctx, cacheHitsKey); err != nil {
			s.log.Warn("Failed to read cache hits", zap.Error(err))
		} else {
			stats.CacheHits = &hits
		}
	}

	if s.redisInfo != nil {
		info, err := s.redisInfo(ctx)
		if err != nil {
			s.log.Warn("Failed to get Redis info", zap.Error(err))
		} else {
			stats.Redis = info
		}
	}

	return stats, nil
}

func (s *neoService) fromCache(ctx context.Context, key string) ([]export.Row, bool) {
	if s.cache == nil {
		return nil, false
	}

	var rows []export.Row
	found, err := s.cache.GetJSON(ctx, key, &rows)
	if err != nil {
		metrics.CacheTotal.WithLabelValues("error").Inc()
		s.log.Warn("Failed to read query cache", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !found {
		metrics.CacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.CacheTotal.WithLabelValues("hit").Inc()
	if _, err := s.cache.Increment(ctx, cacheHitsKey); err != nil {
		s.log.Warn("Failed to count cache hit", zap.Error(err))
	}
	if rows == nil {
		rows = []export.Row{}
	}
	return rows, true
}

func (s *neoService) toCache(ctx context.Context, key string, rows []export.Row) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, rows, s.cacheTTL); err != nil {
		metrics.CacheTotal.WithLabelValues("error").Inc()
		s.log.Warn("Failed to cache query result", zap.String("key", key), zap.Error(err))
	}
}

func (s *neoService) record(ctx context.Context, criteria filters.Criteria, limit, matched int, took time.Duration) {
	if s.queryLogs == nil {
		return
	}

	raw, err := json.Marshal(criteria)
	if err != nil {
		s.log.Warn("Failed to encode criteria", zap.Error(err))
		return
	}

	entry := &models.QueryLog{
		Source:     s.source,
		Criteria:   datatypes.JSON(raw),
		Limit:      limit,
		Matched:    matched,
		DurationMs: took.Milliseconds(),
	}
	if err := s.queryLogs.Create(ctx, entry); err != nil {
		s.log.Warn("Failed to record query", zap.Error(err))
	}
}

func (s *neoService) observe(start time.Time, n int, status string) {
	metrics.QueriesTotal.WithLabelValues(s.source, status).Inc()
	metrics.QueryDuration.WithLabelValues(s.source).Observe(time.Since(start).Seconds())
	metrics.QueryResults.Observe(float64(n))
	s.log.Debug("Approach query completed",
		zap.String("source", s.source),
		zap.String("status", status),
		zap.Int("matched", n),
		zap.Duration("took", time.Since(start)))
}

// cacheKey derives a stable key from the dataset fingerprint, the criteria
// and the limit.
func cacheKey(dataset string, criteria filters.Criteria, limit int) (string, error) {
	raw, err := json.Marshal(criteria)
	if err != nil {
		return "", fmt.Errorf("failed to encode criteria: %w", err)
	}
	sum := sha256.Sum256(append(raw, fmt.Sprintf("|limit=%d", limit)...))
	return cacheKeyPrefix + dataset + ":" + hex.EncodeToString(sum[:]), nil
}

// fingerprint hashes every field that can reach a cached row, so services
// loaded from different files never share cache entries.
func fingerprint(db *neodb.Database) string {
	h := sha256.New()
	for _, neo := range db.NEOs() {
		fmt.Fprintf(h, "n|%s|%s|%v|%t\n", neo.Designation, neo.NameOrEmpty(), neo.Diameter, neo.Hazardous)
	}
	for _, ca := range db.Approaches() {
		fmt.Fprintf(h, "a|%s|%d|%v|%v\n", ca.Designation(), ca.Time.Unix(), ca.Distance, ca.Velocity)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
