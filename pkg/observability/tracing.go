package observability

import (
	"context"
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer provides distributed tracing capabilities.
// A nil or disabled Tracer is valid and does nothing.
type Tracer struct {
	serviceName string
	enabled     bool
}

// NewTracer creates a new tracer instance
func NewTracer(serviceName string, enabled bool) *Tracer {
	return &Tracer{
		serviceName: serviceName,
		enabled:     enabled,
	}
}

func (t *Tracer) on() bool {
	return t != nil && t.enabled
}

// Middleware opens one X-Ray segment per HTTP request, continuing the trace
// of an incoming X-Amzn-Trace-Id header
func (t *Tracer) Middleware(next http.Handler) http.Handler {
	if !t.on() {
		return next
	}
	return xray.Handler(xray.NewFixedSegmentNamer(t.serviceName), next)
}

// StartSubsegment starts a new subsegment within the segment of ctx. Inside
// Lambda the SDK attaches it to the invocation's facade segment. Returns a nil
// segment when tracing is off or there is nothing to attach to.
func (t *Tracer) StartSubsegment(ctx context.Context, name string) (context.Context, *xray.Segment) {
	if !t.on() {
		return ctx, nil
	}
	return xray.BeginSubsegment(ctx, name)
}

// End closes a segment returned by StartSubsegment
func (t *Tracer) End(seg *xray.Segment, err error) {
	if seg == nil {
		return
	}
	if err != nil {
		seg.AddError(err)
	}
	seg.Close(nil)
}

// AddAnnotation adds an indexed annotation to the current segment
func (t *Tracer) AddAnnotation(ctx context.Context, key string, value string) {
	if !t.on() {
		return
	}
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddAnnotation(key, value)
	}
}
