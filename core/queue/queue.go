package queue

import (
	"context"
	"encoding/json"

	"bookline-api/core/config"
	"bookline-api/core/logger"

	"github.com/hibiken/asynq"
)

const (
	TaskNotificationCreate = "notification:create"
)

// Client enqueues background tasks onto the redis-backed queue.
type Client struct {
	client *asynq.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}),
	}
}

func (c *Client) Enqueue(ctx context.Context, taskType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(taskType, data)
	info, err := c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
	if err != nil {
		logger.Error("Queue:Enqueue:Error", "error", err, "task_type", taskType)
		return err
	}

	logger.Debug("Queue:Enqueued", "task_type", taskType, "task_id", info.ID)
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Worker consumes queued tasks. Handlers are registered per task type before
// Run is called.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewWorker(cfg *config.Config) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 5,
		},
	)
	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

func (w *Worker) Register(taskType string, handler func(ctx context.Context, task *asynq.Task) error) {
	w.mux.HandleFunc(taskType, handler)
}

func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
