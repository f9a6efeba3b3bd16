package spaces

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func newRecordingManager(api Doer) (*Manager, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	return NewManager(api, WithTracerProvider(tp)), rec
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func listResponder() func(apiCall) (any, error) {
	return func(c apiCall) (any, error) {
		switch c.Method {
		case http.MethodGet:
			if c.Path == spacesPath {
				return map[string]any{"spaces": []map[string]any{{"space_id": "1"}, {"space_id": "2"}}}, nil
			}
			return map[string]any{"space_id": "1", "title": "T"}, nil
		case http.MethodPost:
			return map[string]any{"space_id": "new"}, nil
		case http.MethodPatch:
			return map[string]any{"space_id": "1", "title": "renamed"}, nil
		}
		return nil, nil
	}
}

// exercise runs every operation and returns the observable results
func exercise(t *testing.T, m *Manager) []any {
	t.Helper()
	ctx := context.Background()

	list, err := m.ListSpaces(ctx, ListSpacesOptions{PageSize: 10})
	require.NoError(t, err)
	created, err := m.CreateSpace(ctx, CreateSpaceRequest{
		WarehouseID:     "wh",
		ParentPath:      "/p",
		SerializedSpace: SerializedSpaceFromString("{}"),
		Title:           "T",
	})
	require.NoError(t, err)
	got, err := m.GetSpace(ctx, "1", true)
	require.NoError(t, err)
	updated, err := m.UpdateSpace(ctx, "1", UpdateSpaceRequest{Title: ptr("renamed")})
	require.NoError(t, err)
	require.NoError(t, m.TrashSpace(ctx, "1"))
	_, validationErr := m.CreateSpace(ctx, CreateSpaceRequest{})

	return []any{list, created, got, updated, StatusCode(validationErr)}
}

func TestTracing_DoesNotChangeResults(t *testing.T) {
	plainAPI := &stubAPI{respond: listResponder()}
	plain := exercise(t, NewManager(plainAPI, WithTracerProvider(noop.NewTracerProvider())))

	tracedAPI := &stubAPI{respond: listResponder()}
	m, rec := newRecordingManager(tracedAPI)
	traced := exercise(t, m)

	assert.Equal(t, plain, traced)
	assert.Equal(t, plainAPI.calls, tracedAPI.calls)
	assert.Len(t, rec.Ended(), 5)
}

func TestTracing_SpanPerOperation(t *testing.T) {
	m, rec := newRecordingManager(&stubAPI{respond: listResponder()})
	exercise(t, m)

	spans := rec.Ended()
	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name())
		assert.Equal(t, trace.SpanKindClient, s.SpanKind())
		assert.Equal(t, codes.Unset, s.Status().Code)
	}
	assert.Equal(t, []string{"list_spaces", "create_space", "get_space", "update_space", "trash_space"}, names)

	list := spanAttrs(spans[0])
	assert.Equal(t, int64(10), list["page_size"].AsInt64())
	assert.Equal(t, int64(2), list["num_spaces"].AsInt64())

	create := spanAttrs(spans[1])
	assert.Equal(t, "wh", create["warehouse_id"].AsString())
	assert.Equal(t, "new", create["space_id"].AsString())

	get := spanAttrs(spans[2])
	assert.True(t, get["include_serialized_space"].AsBool())

	update := spanAttrs(spans[3])
	assert.Equal(t, []string{"title"}, update["fields_updated"].AsStringSlice())
}

func TestTracing_RecordsFailures(t *testing.T) {
	api := &stubAPI{respond: func(apiCall) (any, error) {
		return nil, statusError{status: http.StatusForbidden, msg: "no access"}
	}}
	m, rec := newRecordingManager(api)

	_, err := m.GetSpace(context.Background(), "1", false)
	require.True(t, IsPermissionDenied(err))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, int64(http.StatusForbidden), spanAttrs(spans[0])["status_code"].AsInt64())
	require.NotEmpty(t, spans[0].Events())
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestTracing_ParentSpanPropagates(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	m := NewManager(&stubAPI{}, WithTracerProvider(tp))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "cli")
	require.NoError(t, m.TrashSpace(ctx, "1"))
	parent.End()

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, parent.SpanContext().TraceID(), spans[0].SpanContext().TraceID())
	assert.Equal(t, parent.SpanContext().SpanID(), spans[0].Parent().SpanID())
}
