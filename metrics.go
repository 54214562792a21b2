package serial

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records port activity through OpenTelemetry instruments.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	opens        metric.Int64Counter
	openPorts    metric.Int64UpDownCounter
	bytesRead    metric.Int64Counter
	bytesWritten metric.Int64Counter
	readTimeouts metric.Int64Counter
	errors       metric.Int64Counter
}

// NewMetrics creates the serial instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.opens, err = meter.Int64Counter(
		"serial.opens",
		metric.WithDescription("Open attempts, by result"),
		metric.WithUnit("{opens}"),
	)
	if err != nil {
		return nil, err
	}

	m.openPorts, err = meter.Int64UpDownCounter(
		"serial.open_ports",
		metric.WithDescription("Ports currently open"),
		metric.WithUnit("{ports}"),
	)
	if err != nil {
		return nil, err
	}

	m.bytesRead, err = meter.Int64Counter(
		"serial.bytes.read",
		metric.WithDescription("Bytes received from the device"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	m.bytesWritten, err = meter.Int64Counter(
		"serial.bytes.written",
		metric.WithDescription("Bytes handed to the device"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	m.readTimeouts, err = meter.Int64Counter(
		"serial.read.timeouts",
		metric.WithDescription("Reads that returned without data"),
		metric.WithUnit("{reads}"),
	)
	if err != nil {
		return nil, err
	}

	m.errors, err = meter.Int64Counter(
		"serial.errors",
		metric.WithDescription("Failed operations, by operation"),
		metric.WithUnit("{errors}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func deviceAttr(device string) attribute.KeyValue {
	return attribute.String("device", device)
}

func (m *Metrics) opened(device string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	ctx := context.Background()
	m.opens.Add(ctx, 1, metric.WithAttributes(deviceAttr(device), attribute.String("result", result)))
	if err == nil {
		m.openPorts.Add(ctx, 1, metric.WithAttributes(deviceAttr(device)))
	}
}

func (m *Metrics) closed(device string) {
	if m == nil {
		return
	}
	m.openPorts.Add(context.Background(), -1, metric.WithAttributes(deviceAttr(device)))
}

func (m *Metrics) read(device string, n int) {
	if m == nil {
		return
	}
	if n == 0 {
		m.readTimeouts.Add(context.Background(), 1, metric.WithAttributes(deviceAttr(device)))
		return
	}
	m.bytesRead.Add(context.Background(), int64(n), metric.WithAttributes(deviceAttr(device)))
}

func (m *Metrics) wrote(device string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesWritten.Add(context.Background(), int64(n), metric.WithAttributes(deviceAttr(device)))
}

func (m *Metrics) failed(device, op string) {
	if m == nil {
		return
	}
	m.errors.Add(context.Background(), 1, metric.WithAttributes(deviceAttr(device), attribute.String("op", op)))
}
