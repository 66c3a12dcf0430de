// Package queue hands committed places to the announcement pipeline through an
// in-process Watermill pub/sub, so announcements run off the request path.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"placesmap/internal/config"
	"placesmap/internal/services"
	"placesmap/pkg/logging"
)

const (
	TopicPlaceCreated = "place.created"
	handlerName       = "announce_place"
	traceIDMetadata   = "trace_id"
)

type Queue struct {
	pubSub   *gochannel.GoChannel
	router   *message.Router
	pipeline services.PipelineServiceInterface
	logger   watermill.LoggerAdapter

	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg config.PipelineConfig, pipeline services.PipelineServiceInterface) (*Queue, error) {
	logger := logging.NewWatermillAdapter()

	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, logger)

	// Close waits for in-flight announcements; the longest run is bounded by the step budgets.
	closeTimeout := cfg.FetchTimeout + cfg.UploadTimeout + cfg.ForumTimeout + 2*cfg.PostTimeout + 5*time.Second
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: closeTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	q := &Queue{
		pubSub:   pubSub,
		router:   router,
		pipeline: pipeline,
		logger:   logger,
	}
	router.AddNoPublisherHandler(handlerName, TopicPlaceCreated, pubSub, q.handle)
	return q, nil
}

// Dispatch publishes the job; it does not wait for the pipeline.
func (q *Queue) Dispatch(ctx context.Context, job services.AnnouncementJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if job.TraceID != "" {
		msg.Metadata.Set(traceIDMetadata, job.TraceID)
	}
	if err := q.pubSub.Publish(TopicPlaceCreated, msg); err != nil {
		return fmt.Errorf("publish %s: %w", TopicPlaceCreated, err)
	}
	return nil
}

// handle never returns an error: pipeline failures are recorded, not redelivered.
func (q *Queue) handle(msg *message.Message) error {
	var job services.AnnouncementJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		q.logger.Error("dropping malformed announcement job", err, watermill.LogFields{"message_uuid": msg.UUID})
		return nil
	}
	if job.TraceID == "" {
		job.TraceID = msg.Metadata.Get(traceIDMetadata)
	}

	report := q.pipeline.Run(msg.Context(), job)
	q.logger.Debug("announcement pipeline finished", watermill.LogFields{
		"place_id": job.PlaceID.String(),
		"state":    string(report.Final()),
		"status":   string(report.Status),
		"skipped":  report.Skipped,
	})
	return nil
}

// Start runs the router in the background and returns once handlers are subscribed.
func (q *Queue) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.done = make(chan struct{})

	go func() {
		defer close(q.done)
		if err := q.router.Run(runCtx); err != nil {
			q.logger.Error("router stopped", err, nil)
		}
	}()

	select {
	case <-q.router.Running():
		return nil
	case <-ctx.Done():
		cancel()
		return fmt.Errorf("start router: %w", ctx.Err())
	}
}

func (q *Queue) Stop(ctx context.Context) error {
	if q.cancel == nil {
		return nil
	}
	err := q.router.Close()
	q.cancel()

	select {
	case <-q.done:
	case <-ctx.Done():
		return fmt.Errorf("stop router: %w", ctx.Err())
	}
	if closeErr := q.pubSub.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
