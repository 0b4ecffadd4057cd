// Package monitor exports pipeline telemetry.
//
// Metrics implements the channel, actor and sink observer hooks and keeps
// its collectors on a private Prometheus registry. Sampler turns channel
// snapshots into rolling fill statistics and alert colors. Server serves
// both over HTTP with gin:
//
//	metrics := monitor.NewMetrics()
//	sampler := monitor.NewSampler(metrics, monitor.SamplerOptions{Window: 50, Percentile: 0.8})
//	srv := monitor.NewServer(monitor.ServerConfig{
//		Address:     ":9100",
//		MetricsPath: "/metrics",
//		HealthPath:  "/health",
//	}, metrics, sampler, nil, logger)
//	_ = srv.Start()
package monitor
