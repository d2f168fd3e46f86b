package metrics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	pool *pgxpool.Pool

	tags            *prometheus.Desc
	openLogs        *prometheus.Desc
	entries24h      *prometheus.Desc
	dbTotalConns    *prometheus.Desc
	dbAcquiredConns *prometheus.Desc
	dbIdleConns     *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// pool may be nil (metrics will report 0).
func NewCollector(pool *pgxpool.Pool) *Collector {
	return &Collector{
		pool: pool,
		tags: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "tags"),
			"Registered mobile beacon tags.",
			nil, nil,
		),
		openLogs: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "open_permanence_logs"),
			"Permanence intervals currently open (crew inside a shipyard).",
			nil, nil,
		),
		entries24h: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "unassigned_entries_24h"),
			"Unassigned tag crossings recorded in the last 24 hours.",
			nil, nil,
		),
		dbTotalConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "total_conns"),
			"Total database pool connections.",
			nil, nil,
		),
		dbAcquiredConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "acquired_conns"),
			"Database pool connections currently in use.",
			nil, nil,
		),
		dbIdleConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "idle_conns"),
			"Database pool idle connections.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tags
	ch <- c.openLogs
	ch <- c.entries24h
	ch <- c.dbTotalConns
	ch <- c.dbAcquiredConns
	ch <- c.dbIdleConns
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		ch <- prometheus.MustNewConstMetric(c.tags, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.openLogs, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.entries24h, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.dbTotalConns, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.dbAcquiredConns, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.dbIdleConns, prometheus.GaugeValue, 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var tagCount, openCount, entryCount int
	err := c.pool.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM tag),
		       (SELECT count(*) FROM permanence_log WHERE entry_timestamp IS NOT NULL AND leave_timestamp IS NULL),
		       (SELECT count(*) FROM unassigned_tag_entry WHERE advertisement_timestamp > now() - interval '24 hours')`,
	).Scan(&tagCount, &openCount, &entryCount)
	if err == nil {
		ch <- prometheus.MustNewConstMetric(c.tags, prometheus.GaugeValue, float64(tagCount))
		ch <- prometheus.MustNewConstMetric(c.openLogs, prometheus.GaugeValue, float64(openCount))
		ch <- prometheus.MustNewConstMetric(c.entries24h, prometheus.GaugeValue, float64(entryCount))
	}

	stat := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.dbTotalConns, prometheus.GaugeValue, float64(stat.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.dbAcquiredConns, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.dbIdleConns, prometheus.GaugeValue, float64(stat.IdleConns()))
}
