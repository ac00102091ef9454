package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics_RecordWithProvider(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider := newTestProvider(t, ctx)
	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Should not panic
	metrics.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 100*time.Millisecond)
	metrics.RecordDropboxAPIOperation(ctx, OperationUpload, StatusSuccess, "", 200*time.Millisecond)
	metrics.RecordDropboxAPIOperation(ctx, OperationMove, StatusError, "conflict", 50*time.Millisecond)
	metrics.RecordTransferBytes(ctx, DirectionUpload, 1024)
	metrics.RecordSourceRead(ctx, "url", StatusSuccess, 2048)
	metrics.RecordToolInvocation(ctx, "dropbox_upload_file", StatusSuccess, time.Second)
	metrics.RecordToolError(ctx, "dropbox_upload_file", "validation")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "GET", "/healthz", 200, time.Millisecond)
	m.RecordDropboxAPIOperation(ctx, OperationSearch, StatusSuccess, "", time.Millisecond)
	m.RecordTransferBytes(ctx, DirectionDownload, 10)
	m.RecordSourceRead(ctx, "local", StatusError, 0)
	m.RecordToolInvocation(ctx, "dropbox_search_files_folders", StatusSuccess, time.Millisecond)
	m.RecordToolError(ctx, "dropbox_search_files_folders", "remote")
}

func TestMetrics_NoopMeter(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	m.RecordToolInvocation(context.Background(), "dropbox_delete_file_or_folder", StatusError, time.Millisecond)
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) (int64, []attribute.Set) {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	var total int64
	var sets []attribute.Set
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != name {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is %T, want Sum[int64]", name, md.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
				sets = append(sets, dp.Attributes)
			}
		}
	}
	return total, sets
}

func TestMetrics_DropboxAPIOperationLabels(t *testing.T) {
	tests := []struct {
		name           string
		detailedLabels bool
		wantKind       bool
	}{
		{name: "essential labels only", detailedLabels: false, wantKind: false},
		{name: "detailed labels", detailedLabels: true, wantKind: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := sdkmetric.NewManualReader()
			mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
			defer func() { _ = mp.Shutdown(context.Background()) }()

			m, err := NewMetrics(mp.Meter("test"), tt.detailedLabels)
			if err != nil {
				t.Fatalf("NewMetrics() error = %v", err)
			}

			m.RecordDropboxAPIOperation(context.Background(), "copy_v2", StatusError, "not_found", time.Millisecond)

			total, sets := collectSum(t, reader, "dropbox_api_operations_total")
			if total != 1 {
				t.Fatalf("expected 1 operation, got %d", total)
			}

			op, _ := sets[0].Value(attrOperation)
			if op.AsString() != OperationOther {
				t.Errorf("unknown operation should be folded to %q, got %q", OperationOther, op.AsString())
			}
			_, hasKind := sets[0].Value(attrKind)
			if hasKind != tt.wantKind {
				t.Errorf("kind label present = %v, want %v", hasKind, tt.wantKind)
			}
		})
	}
}

func TestMetrics_TransferBytesIgnoresEmpty(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := NewMetrics(mp.Meter("test"), false)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	m.RecordTransferBytes(context.Background(), DirectionUpload, 0)
	m.RecordTransferBytes(context.Background(), DirectionUpload, 512)
	m.RecordTransferBytes(context.Background(), DirectionUpload, 512)

	total, _ := collectSum(t, reader, "dropbox_transfer_bytes_total")
	if total != 1024 {
		t.Errorf("expected 1024 bytes, got %d", total)
	}
}
