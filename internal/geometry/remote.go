package geometry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region wire
const (
	serviceName              = "pclgate.geometry.v1.Geometry"
	methodAlignableFromLabel = "/" + serviceName + "/AlignableFromLabel"
	methodResolve            = "/" + serviceName + "/Resolve"
)

func attributesToFields(a Attributes) map[string]any {
	return map[string]any{
		"layer":         a.Layer,
		"half_barrel":   a.HalfBarrel,
		"ladder":        a.Ladder,
		"endcap":        a.Endcap,
		"half_disk":     a.HalfDisk,
		"half_cylinder": a.HalfCylinder,
		"blade":         a.Blade,
		"panel":         a.Panel,
	}
}

func attributesFromStruct(s *structpb.Struct) Attributes {
	f := s.GetFields()
	num := func(key string) int { return int(f[key].GetNumberValue()) }
	return Attributes{
		Layer:        num("layer"),
		HalfBarrel:   num("half_barrel"),
		Ladder:       num("ladder"),
		Endcap:       num("endcap"),
		HalfDisk:     num("half_disk"),
		HalfCylinder: num("half_cylinder"),
		Blade:        num("blade"),
		Panel:        num("panel"),
	}
}

// #endregion wire

// #region client-struct
// Remote queries a geometry service over gRPC. Messages are
// google.protobuf.Struct so no generated stubs are needed on either side.
type Remote struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// #endregion client-struct

// #region constructor
// NewRemote connects to a geometry service. Extra dial options are appended
// after the default insecure transport credentials.
func NewRemote(addr string, timeout time.Duration, opts ...grpc.DialOption) (*Remote, error) {
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Remote{conn: conn, timeout: timeout}, nil
}

// Close shuts down the gRPC connection.
func (r *Remote) Close() error {
	return r.conn.Close()
}

// #endregion constructor

// #region calls
func (r *Remote) call(ctx context.Context, method string, req, resp *structpb.Struct) error {
	ctx, span := otel.Tracer("github.com/danielpatrickdp/pclgate/internal/geometry").Start(ctx, method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("rpc.service", serviceName)))
	defer span.End()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	err := r.conn.Invoke(ctx, method, req, resp)
	if err != nil && status.Code(err) != codes.NotFound {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, status.Code(err).String())
	}
	return err
}

// AlignableFromLabel asks the service which alignable owns label.
// A NotFound status maps to ok=false.
func (r *Remote) AlignableFromLabel(ctx context.Context, label uint64) (Alignable, bool, error) {
	req, err := structpb.NewStruct(map[string]any{"label": label})
	if err != nil {
		return Alignable{}, false, fmt.Errorf("encode label %d: %w", label, err)
	}
	resp := &structpb.Struct{}
	if err := r.call(ctx, methodAlignableFromLabel, req, resp); err != nil {
		if status.Code(err) == codes.NotFound {
			return Alignable{}, false, nil
		}
		return Alignable{}, false, fmt.Errorf("alignable from label %d: %w", label, err)
	}
	f := resp.GetFields()
	typ, err := ParseStructureType(f["type"].GetStringValue())
	if err != nil {
		return Alignable{}, false, fmt.Errorf("alignable from label %d: %w", label, err)
	}
	return Alignable{ID: uint32(f["id"].GetNumberValue()), Type: typ}, true, nil
}

// Resolve fetches the structural numbering of id.
func (r *Remote) Resolve(ctx context.Context, id uint32) (Attributes, error) {
	req, err := structpb.NewStruct(map[string]any{"id": id})
	if err != nil {
		return Attributes{}, fmt.Errorf("encode id %d: %w", id, err)
	}
	resp := &structpb.Struct{}
	if err := r.call(ctx, methodResolve, req, resp); err != nil {
		if status.Code(err) == codes.NotFound {
			return Attributes{}, fmt.Errorf("resolve %d: %w", id, ErrUnknownElement)
		}
		return Attributes{}, fmt.Errorf("resolve %d: %w", id, err)
	}
	return attributesFromStruct(resp), nil
}

// #endregion calls
