// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

// Package config loads layered service configuration with koanf:
// struct defaults, an optional YAML file, and STELLARA_ prefixed
// environment variables, in rising precedence.
package config
