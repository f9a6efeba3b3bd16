// Package spaces manages the lifecycle of Genie spaces: list, create, read or export,
// update and trash. Querying a space is out of scope; this package only administers them.
package spaces

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	spacesPath          = "/api/2.0/genie/spaces"
	instrumentationName = "github.com/cchalm/genie-spaces/internal/spaces"
)

// Doer sends one authenticated JSON request to the workspace. A json.RawMessage body is
// sent exactly as given. *workspace.Client implements it.
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, body, result any) error
}

// Manager administers the Genie spaces of one workspace. It holds no state besides the
// client and tracer, so it is safe for concurrent use whenever the client is.
type Manager struct {
	api    Doer
	tracer trace.Tracer
}

// Option configures a Manager
type Option func(*options)

type options struct {
	tracerProvider trace.TracerProvider
}

// WithTracerProvider sets the provider spans are created from. Without it the Manager
// uses the global OpenTelemetry provider, which records nothing unless one was installed.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// NewManager creates a Manager that sends requests through api
func NewManager(api Doer, opts ...Option) *Manager {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	return &Manager{
		api:    api,
		tracer: o.tracerProvider.Tracer(instrumentationName),
	}
}

// ListSpaces returns one page of the spaces visible to the caller
func (m *Manager) ListSpaces(ctx context.Context, opts ListSpacesOptions) (*ListSpacesResponse, error) {
	query := url.Values{}
	if opts.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	if opts.PageToken != "" {
		query.Set("page_token", opts.PageToken)
	}

	var resp ListSpacesResponse
	err := m.traced(ctx, "list_spaces", func(ctx context.Context, span trace.Span) error {
		if err := m.do(ctx, http.MethodGet, spacesPath, query, nil, &resp); err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("num_spaces", len(resp.Spaces)))
		return nil
	}, attribute.Int("page_size", opts.PageSize))
	if err != nil {
		return nil, err
	}
	if resp.Spaces == nil {
		resp.Spaces = []Space{}
	}
	return &resp, nil
}

// ListAllSpaces follows page tokens until the last page and returns every space
func (m *Manager) ListAllSpaces(ctx context.Context, pageSize int) ([]Space, error) {
	all := []Space{}
	seen := map[string]bool{}
	opts := ListSpacesOptions{PageSize: pageSize}
	for {
		page, err := m.ListSpaces(ctx, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Spaces...)
		if page.NextPageToken == "" || seen[page.NextPageToken] {
			return all, nil
		}
		seen[page.NextPageToken] = true
		opts.PageToken = page.NextPageToken
	}
}

// CreateSpace creates a new space. Every call creates a distinct space.
func (m *Manager) CreateSpace(ctx context.Context, req CreateSpaceRequest) (*Space, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	body, err := encodeBody(req.body())
	if err != nil {
		return nil, err
	}

	var space Space
	err = m.traced(ctx, "create_space", func(ctx context.Context, span trace.Span) error {
		if err := m.do(ctx, http.MethodPost, spacesPath, nil, body, &space); err != nil {
			return err
		}
		span.SetAttributes(attribute.String("space_id", space.SpaceID))
		return nil
	}, attribute.String("warehouse_id", req.WarehouseID), attribute.String("title", req.Title))
	if err != nil {
		return nil, err
	}
	return &space, nil
}

// GetSpace reads a space. With includeSerializedSpace the server returns the export
// shape, which carries the full configuration in SerializedSpace.
func (m *Manager) GetSpace(ctx context.Context, spaceID string, includeSerializedSpace bool) (*Space, error) {
	if err := requireSpaceID(spaceID); err != nil {
		return nil, err
	}
	var query url.Values
	if includeSerializedSpace {
		query = url.Values{"include_serialized_space": {"true"}}
	}

	var space Space
	err := m.traced(ctx, "get_space", func(ctx context.Context, _ trace.Span) error {
		return m.do(ctx, http.MethodGet, spacePath(spaceID), query, nil, &space)
	}, attribute.String("space_id", spaceID), attribute.Bool("include_serialized_space", includeSerializedSpace))
	if err != nil {
		return nil, err
	}
	return &space, nil
}

// ExportSpace reads a space together with its serialized configuration
func (m *Manager) ExportSpace(ctx context.Context, spaceID string) (*Space, error) {
	return m.GetSpace(ctx, spaceID, true)
}

// ImportSpace creates a space from an export, possibly taken from another workspace.
// Empty warehouseID or parentPath fall back to the exported values.
func (m *Manager) ImportSpace(ctx context.Context, exported *Space, warehouseID, parentPath string) (*Space, error) {
	if exported == nil {
		return nil, &ValidationError{Field: "serialized_space", Message: "is required"}
	}
	if warehouseID == "" {
		warehouseID = exported.WarehouseID
	}
	if parentPath == "" {
		parentPath = exported.ParentPath
	}
	return m.CreateSpace(ctx, CreateSpaceRequest{
		WarehouseID:     warehouseID,
		ParentPath:      parentPath,
		SerializedSpace: exported.SerializedSpace,
		Title:           exported.Title,
		Description:     exported.Description,
	})
}

// UpdateSpace changes only the fields set in req; the rest stay as they are on the
// server.
func (m *Manager) UpdateSpace(ctx context.Context, spaceID string, req UpdateSpaceRequest) (*Space, error) {
	if err := requireSpaceID(spaceID); err != nil {
		return nil, err
	}
	if req.SerializedSpace != nil && isEmptyPayload(req.SerializedSpace) {
		return nil, &ValidationError{Field: "serialized_space", Message: "must not be empty"}
	}
	values := req.body(spaceID)
	if values == nil {
		return nil, &ValidationError{Field: "fields", Message: "at least one field must be provided to update"}
	}
	updated := make([]string, 0, len(values)-1)
	for k := range values {
		if k != "space_id" {
			updated = append(updated, k)
		}
	}
	sort.Strings(updated)
	body, err := encodeBody(values)
	if err != nil {
		return nil, err
	}

	var space Space
	err = m.traced(ctx, "update_space", func(ctx context.Context, _ trace.Span) error {
		return m.do(ctx, http.MethodPatch, spacePath(spaceID), nil, body, &space)
	}, attribute.String("space_id", spaceID), attribute.StringSlice("fields_updated", updated))
	if err != nil {
		return nil, err
	}
	return &space, nil
}

// TrashSpace moves a space to the trash. Whether it can be restored is up to the
// workspace; a repeated call is sent as is.
func (m *Manager) TrashSpace(ctx context.Context, spaceID string) error {
	if err := requireSpaceID(spaceID); err != nil {
		return err
	}
	return m.traced(ctx, "trash_space", func(ctx context.Context, _ trace.Span) error {
		return m.do(ctx, http.MethodDelete, spacePath(spaceID), nil, nil, nil)
	}, attribute.String("space_id", spaceID))
}

func (m *Manager) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	if err := m.api.Do(ctx, method, path, query, body, result); err != nil {
		return newError(err)
	}
	return nil
}

// traced runs fn inside a span named op. The error is recorded on the span and
// returned unchanged.
func (m *Manager) traced(ctx context.Context, op string, fn func(context.Context, trace.Span) error, attrs ...attribute.KeyValue) error {
	ctx, span := m.tracer.Start(ctx, op, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(ctx, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Int("status_code", StatusCode(err)))
	}
	return err
}

func spacePath(spaceID string) string {
	return spacesPath + "/" + url.PathEscape(spaceID)
}
