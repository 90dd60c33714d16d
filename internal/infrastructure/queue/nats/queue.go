// Package nats carries queued check jobs and completion events over NATS.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/infrastructure/resilience"
)

const (
	DefaultJobsSubject   = "papercheck.jobs"
	DefaultEventsSubject = "papercheck.completed"

	workerQueueGroup = "papercheck-workers"
	jobIDHeader      = "Papercheck-Job-Id"
	// nats.MsgIdHdr lets a JetStream stream on the subject drop duplicates.
	msgIDHeader = nats.MsgIdHdr
)

type Queue struct {
	conn          *nats.Conn
	jobsSubject   string
	eventsSubject string
	executor      *resilience.Executor
}

type Options struct {
	JobsSubject        string
	EventsSubject      string
	ResilienceExecutor *resilience.Executor
}

func NewWithOptions(url string, options Options) (*Queue, error) {
	conn, err := nats.Connect(url, connectOptions()...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:          conn,
		jobsSubject:   orDefault(options.JobsSubject, DefaultJobsSubject),
		eventsSubject: orDefault(options.EventsSubject, DefaultEventsSubject),
		executor:      options.ResilienceExecutor,
	}, nil
}

// connectOptions keeps reconnecting for about two minutes so a restarting
// broker does not take the api down with it.
func connectOptions() []nats.Option {
	return []nats.Option{
		nats.Name("paper-checker"),
		nats.Timeout(2 * time.Second),
		nats.RetryOnFailedConnect(true),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(60),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			slog.Error("nats_async_error", "subject", subject, "error", err)
		}),
	}
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishCheckJob(ctx context.Context, job domain.CheckJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal check job: %w", err)
	}
	msg := nats.NewMsg(q.jobsSubject)
	msg.Data = data
	msg.Header.Set(jobIDHeader, job.JobID)
	msg.Header.Set(msgIDHeader, "job-"+job.JobID)
	return q.publish(ctx, "nats.publish_job", msg)
}

func (q *Queue) PublishCheckCompleted(ctx context.Context, event domain.CheckCompletedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal completion event: %w", err)
	}
	msg := nats.NewMsg(q.eventsSubject)
	msg.Data = data
	if event.JobID != "" {
		msg.Header.Set(jobIDHeader, event.JobID)
	}
	msg.Header.Set(msgIDHeader, "done-"+event.CheckID)
	return q.publish(ctx, "nats.publish_event", msg)
}

func (q *Queue) publish(ctx context.Context, operation string, msg *nats.Msg) error {
	err := q.executor.Execute(ctx, operation, func(context.Context) error {
		if err := q.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("nats publish %s: %w", msg.Subject, err)
		}
		return nil
	}, classifyNATSError)
	return wrapTemporaryIfNeeded(err)
}

// SubscribeCheckJobs joins the worker queue group and blocks until ctx is
// done, then drains the subscription so in-flight jobs finish.
func (q *Queue) SubscribeCheckJobs(ctx context.Context, handler func(context.Context, domain.CheckJob) error) error {
	sub, err := q.conn.QueueSubscribe(q.jobsSubject, workerQueueGroup, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		handleJobMessage(ctx, msg, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", q.jobsSubject, err)
	}
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (q *Queue) Ping(context.Context) error {
	if q.conn == nil || !q.conn.IsConnected() {
		return domain.WrapError(domain.ErrResourceUnavailable, "nats ping", nats.ErrDisconnected)
	}
	return nil
}

func handleJobMessage(ctx context.Context, msg *nats.Msg, handler func(context.Context, domain.CheckJob) error) {
	var job domain.CheckJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		slog.Warn("check_job_malformed", "job_id", msg.Header.Get(jobIDHeader), "bytes", len(msg.Data), "error", err)
		return
	}
	if job.JobID == "" {
		job.JobID = msg.Header.Get(jobIDHeader)
	}
	if err := handler(ctx, job); err != nil {
		slog.Error("check_job_failed", "job_id", job.JobID, "error", err)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
