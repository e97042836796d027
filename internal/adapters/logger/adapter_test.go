package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	level  string
	msg    string
	err    error
	fields map[string]any
}

type recordingLogger struct {
	calls []recordedCall
}

func (r *recordingLogger) Info(_ context.Context, msg string, fields map[string]any) {
	r.calls = append(r.calls, recordedCall{level: "info", msg: msg, fields: fields})
}

func (r *recordingLogger) Debug(_ context.Context, msg string, fields map[string]any) {
	r.calls = append(r.calls, recordedCall{level: "debug", msg: msg, fields: fields})
}

func (r *recordingLogger) Warn(_ context.Context, msg string, fields map[string]any) {
	r.calls = append(r.calls, recordedCall{level: "warn", msg: msg, fields: fields})
}

func (r *recordingLogger) Error(_ context.Context, msg string, err error, fields map[string]any) {
	r.calls = append(r.calls, recordedCall{level: "error", msg: msg, err: err, fields: fields})
}

func TestZapAdapter_ForwardsAllLevels(t *testing.T) {
	rec := &recordingLogger{}
	adapter := NewZapAdapter(rec, "")
	ctx := context.Background()

	adapter.Info(ctx, "info msg", nil)
	adapter.Debug(ctx, "debug msg", nil)
	adapter.Warn(ctx, "warn msg", nil)
	boom := errors.New("boom")
	adapter.Error(ctx, "error msg", boom, nil)

	require.Len(t, rec.calls, 4)
	assert.Equal(t, "info", rec.calls[0].level)
	assert.Equal(t, "info msg", rec.calls[0].msg)
	assert.Equal(t, "debug", rec.calls[1].level)
	assert.Equal(t, "warn", rec.calls[2].level)
	assert.Equal(t, "error", rec.calls[3].level)
	assert.Equal(t, boom, rec.calls[3].err)
}

func TestZapAdapter_StampsInvocationID(t *testing.T) {
	rec := &recordingLogger{}
	adapter := NewZapAdapter(rec, "inv-123")

	adapter.Info(context.Background(), "msg", map[string]any{"branch": "feature/x"})

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "inv-123", rec.calls[0].fields["invocation_id"])
	assert.Equal(t, "feature/x", rec.calls[0].fields["branch"])
}

func TestZapAdapter_StampDoesNotMutateInput(t *testing.T) {
	rec := &recordingLogger{}
	adapter := NewZapAdapter(rec, "inv-123")

	fields := map[string]any{"branch": "feature/x"}
	adapter.Info(context.Background(), "msg", fields)

	assert.NotContains(t, fields, "invocation_id")
}

func TestZapAdapter_EmptyInvocationIDPassesFieldsThrough(t *testing.T) {
	rec := &recordingLogger{}
	adapter := NewZapAdapter(rec, "")

	fields := map[string]any{"branch": "main"}
	adapter.Warn(context.Background(), "msg", fields)

	require.Len(t, rec.calls, 1)
	assert.NotContains(t, rec.calls[0].fields, "invocation_id")
	assert.Equal(t, "main", rec.calls[0].fields["branch"])
}
