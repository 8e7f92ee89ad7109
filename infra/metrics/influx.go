package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/atelio/fieldops/core/metrics"
	"github.com/atelio/fieldops/infra/logger"
)

// InfluxSink writes scheduling events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordProjection writes one projection event as a point.
func (s *InfluxSink) RecordProjection(ev coremetrics.ProjectionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("projection_event").
		AddTag("technician_id", ev.TechnicianID).
		AddTag("support_suggested", strconv.FormatBool(ev.SupportSuggested)).
		AddTag("order_id", ev.OrderID).
		AddField("base_hours", round3(ev.BaseHours)).
		AddField("effective_hours", round3(ev.EffectiveHours)).
		AddField("queued_ahead_hours", round3(ev.QueuedAheadHours)).
		AddField("delivery_at", ev.DeliveryAt.Unix()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTriage writes the per-tier counts of one triage pass.
func (s *InfluxSink) RecordTriage(ev coremetrics.TriageEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("triage_event").
		AddField("orders", ev.Orders).
		SetTime(ev.Time)
	for tier, n := range ev.TierCounts {
		p.AddField("tier_"+tier, n)
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordWorkload writes one point per technician plus the backlog.
func (s *InfluxSink) RecordWorkload(ev coremetrics.WorkloadEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for id, hours := range ev.ByTechnician {
		p := write.NewPointWithMeasurement("technician_workload").
			AddTag("technician_id", id).
			AddField("queued_hours", round3(hours)).
			SetTime(ev.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	p := write.NewPointWithMeasurement("unassigned_backlog").
		AddField("hours", round3(ev.UnassignedBacklog)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
