/*
Package monitoring provides Prometheus metrics for the playground backend.

# Overview

Each Metrics value owns a private registry, exposed through Handler. The
collectors cover HTTP traffic, builder round trips, preview remounts,
workspace lifetime, identity-store degradation and WebSocket pushes.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewBuildTimer(metrics)
	url, err := dispatcher.Submit(ctx, req)
	timer.Stop("success")
*/
package monitoring
