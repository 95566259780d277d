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
	"fmt"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	savesCounter         metric.Int64Counter
	lockRetriesCounter   metric.Int64Counter
	lockExhaustedCounter metric.Int64Counter
	corruptedCounter     metric.Int64Counter
)

func init() {
	initMetrics()
}

// initMetrics creates the counters from the global meter provider.
func initMetrics() {
	meter := otel.Meter("github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/docstore")
	savesCounter = mustCounter(meter, "fulfillment.docstore.saves", "Documents written successfully")
	lockRetriesCounter = mustCounter(meter, "fulfillment.docstore.lock.retries", "Write attempts that found the document locked")
	lockExhaustedCounter = mustCounter(meter, "fulfillment.docstore.lock.exhausted", "Writes abandoned after the lock retry budget ran out")
	corruptedCounter = mustCounter(meter, "fulfillment.docstore.corrupted", "Unparsable documents replaced with defaults on load")
}

func mustCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		panic(fmt.Errorf("failed to create %s counter: %w", name, err))
	}
	return c
}

func documentAttr(path string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("document", filepath.Base(path)))
}

func countFor(c metric.Int64Counter, path string) {
	c.Add(context.Background(), 1, documentAttr(path))
}
