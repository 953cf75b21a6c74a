// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package main

import (
	"fmt"
	"net/http"

	"github.com/stellara/mlpipeline/internal/api"
	"github.com/stellara/mlpipeline/internal/config"
)

// initHTTPServer assembles the chi router and the net/http server
// around it.
func initHTTPServer(cfg *config.Config, handler *api.Handler) *http.Server {
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitReqs:  cfg.Server.RateLimitReqs,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.WriteTimeout,
	})

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
