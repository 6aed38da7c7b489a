// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/samber/oops"
)

// Push sends everything gathered by g to the Pushgateway at url under job.
// Metrics with the same name in the job's group are replaced; others are kept.
func Push(ctx context.Context, url, job string, g prometheus.Gatherer) error {
	if err := push.New(url, job).Gatherer(g).AddContext(ctx); err != nil {
		return oops.Code("METRICS_PUSH_FAILED").
			With("url", url).
			With("job", job).
			Wrap(err)
	}
	return nil
}
