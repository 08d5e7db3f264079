// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package qnsmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCountsEvaluations(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.Evaluations.WithLabelValues("0", "IMS").Inc()
	c.Evaluations.WithLabelValues("0", "IMS").Inc()

	var m dto.Metric
	require.NoError(t, c.Evaluations.WithLabelValues("0", "IMS").Write(&m))
	assert.Equal(t, float64(2), m.GetCounter().GetValue())
}
