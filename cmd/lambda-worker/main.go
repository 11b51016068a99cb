package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"sentiment-backend/internal/bootstrap"
	"sentiment-backend/internal/shared/config"
	"sentiment-backend/internal/shared/metrics"
	"sentiment-backend/internal/shared/telemetry"
	"sentiment-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	telemetry.Init(cfg.LogLevel)
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda_worker.bootstrap_failed", map[string]any{"error": initErr})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return processBatch(ctx, app.AnalysisProcessor, event), nil
}

// processBatch reports only retryable failures. Unrecoverable records are dropped so
// the batch does not redeliver them.
func processBatch(ctx context.Context, processor workerproc.Processor, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncWorkerJobsReceived()
		err := workerproc.HandleMessage(ctx, processor, record.Body)
		switch {
		case err == nil:
			metrics.IncWorkerJobsCompleted()
		case workerproc.Unrecoverable(err):
			telemetry.Error("lambda_worker.unrecoverable", map[string]any{"sqs_message_id": record.MessageId, "error": err})
			metrics.IncWorkerJobsDeletedUnrecoverable()
		default:
			telemetry.Error("lambda_worker.failed", map[string]any{"sqs_message_id": record.MessageId, "error": err})
			metrics.IncWorkerJobsFailed()
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
