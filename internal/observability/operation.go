package observability

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"group-service/internal/models"
)

// StartOperation opens a span for an engine operation. The returned func ends the span and
// records the outcome held in *errp, so call it deferred.
func StartOperation(ctx context.Context, tracer trace.Tracer, engine, operation string, errp *error) (context.Context, func()) {
	ctx, span := tracer.Start(ctx, engine+"."+operation)
	return ctx, func() {
		var err error
		if errp != nil {
			err = *errp
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, models.ErrorKind(err))
		}
		ObserveOperation(engine, operation, models.ErrorKind(err))
		span.End()
	}
}
