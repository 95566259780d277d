// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/storeerr"
)

func TestMetrics_CountSavesLocksAndCorruption(t *testing.T) {
	ctx := context.Background()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	defer func() {
		otel.SetMeterProvider(prev)
		initMetrics()
	}()

	// Reinitialize instruments with new provider
	initMetrics()

	dir := t.TempDir()
	s := newTestStore(t, func(o *Options) {
		o.LockAttempts = 2
		o.LockDelay = time.Millisecond
	})
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, s.Save(ctx, path, &testDoc{Name: "a"}))
	require.NoError(t, s.Save(ctx, path, &testDoc{Name: "b"}))

	held, err := FileLocker{}.TryLock(path + LockSuffix)
	require.NoError(t, err)
	require.ErrorIs(t, s.Save(ctx, path, &testDoc{Name: "c"}), storeerr.ErrResourceLocked)
	require.NoError(t, held.Release())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = Load(s, bad, testDoc{})
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			data := m.Data.(metricdata.Sum[int64])
			for _, dp := range data.DataPoints {
				got[m.Name] += dp.Value
			}
		}
	}

	require.Equal(t, int64(2), got["fulfillment.docstore.saves"])
	require.Equal(t, int64(2), got["fulfillment.docstore.lock.retries"])
	require.Equal(t, int64(1), got["fulfillment.docstore.lock.exhausted"])
	require.Equal(t, int64(1), got["fulfillment.docstore.corrupted"])
}
