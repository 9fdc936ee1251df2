// pkg/queue/queue.go
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/feichai0017/hasty/config"
)

// TaskType 定义任务类型
const (
	TaskTypeReportGenerate = "report:generate"
)

// 队列名称，按优先级从高到低
var queueNames = []string{"critical", "default", "low"}

// ErrTaskNotFound is returned when neither the status store nor any queue knows the task.
var ErrTaskNotFound = errors.New("task not found")

// Queue 接口定义
type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error)
	CancelTask(ctx context.Context, taskID string) error
	SaveStatus(ctx context.Context, status *TaskStatus) error
	SaveFinalStatus(ctx context.Context, status *TaskStatus) error
}

// Task 定义任务结构
type Task struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Priority  int                    `json:"priority"`
	Payload   map[string]interface{} `json:"payload"`
	Metadata  map[string]string      `json:"metadata"`
	CreatedAt time.Time              `json:"createdAt"`
}

// PayloadString returns a string payload value, or "" when absent.
func (t *Task) PayloadString(key string) string {
	if t == nil || t.Payload == nil {
		return ""
	}
	s, _ := t.Payload[key].(string)
	return s
}

// TaskStatus 定义任务状态
type TaskStatus struct {
	TaskID     string            `json:"taskId"`
	Status     string            `json:"status"`
	Progress   float64           `json:"progress"`
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt,omitempty"`
}

// AsynqQueue 实现
type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     *redis.Client
	cfg       *QueueConfig
}

// QueueConfig 定义队列配置
type QueueConfig struct {
	RedisAddr      string
	RedisDB        int
	MaxRetries     int
	RetryDelay     time.Duration
	ProcessTimeout time.Duration
	StatusTTL      time.Duration
	Concurrency    int
}

// FromAppConfig 从应用配置生成队列配置
func FromAppConfig(c config.QueueConfig) *QueueConfig {
	return &QueueConfig{
		RedisAddr:      c.RedisAddr,
		RedisDB:        c.RedisDB,
		MaxRetries:     c.MaxRetries,
		RetryDelay:     c.RetryDelay,
		ProcessTimeout: c.ProcessTimeout,
		StatusTTL:      c.StatusTTL,
		Concurrency:    c.Concurrency,
	}
}

// GetQueue 获取队列实例
func GetQueue(c config.QueueConfig) (*AsynqQueue, error) {
	return NewAsynqQueue(FromAppConfig(c))
}

// NewAsynqQueue 创建新的队列实例
func NewAsynqQueue(cfg *QueueConfig) (*AsynqQueue, error) {
	if cfg.StatusTTL <= 0 {
		cfg.StatusTTL = 24 * time.Hour
	}

	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	}

	// 创建 Redis 客户端
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis:     redisClient,
		cfg:       cfg,
	}, nil
}

// Ping 检查 Redis 连接
func (q *AsynqQueue) Ping(ctx context.Context) error {
	return q.redis.Ping(ctx).Err()
}

// Close 关闭所有连接
func (q *AsynqQueue) Close() error {
	return errors.Join(q.client.Close(), q.inspector.Close(), q.redis.Close())
}

// Enqueue 将任务加入队列
func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) error {
	// 序列化整个任务
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	// 设置任务选项
	opts := []asynq.Option{
		asynq.MaxRetry(q.cfg.MaxRetries),
		asynq.TaskID(task.ID),
		asynq.Queue(queueFor(task.Priority)),
	}
	if q.cfg.ProcessTimeout > 0 {
		opts = append(opts, asynq.Timeout(q.cfg.ProcessTimeout))
	}

	// 创建并入队任务
	t := asynq.NewTask(task.Type, payload, opts...)
	info, err := q.client.EnqueueContext(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	// 记录任务ID
	task.ID = info.ID

	return nil
}

// queueFor 根据优先级选择队列
func queueFor(priority int) string {
	switch priority {
	case 1:
		return "critical"
	case 2:
		return "default"
	default:
		return "low"
	}
}

// GetTaskStatus 获取任务状态
func (q *AsynqQueue) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	// 首先尝试从 Redis 获取状态
	data, err := q.redis.Get(ctx, statusKey(taskID)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}

	if err == nil {
		var status TaskStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal status: %w", err)
		}
		return &status, nil
	}

	// 如果 Redis 中没有，从所有队列中查找
	for _, queueName := range queueNames {
		info, err := q.inspector.GetTaskInfo(queueName, taskID)
		if err != nil {
			continue
		}
		status := convertAsynqStatus(info)
		if err := q.SaveStatus(ctx, status); err != nil {
			return status, fmt.Errorf("failed to cache status: %w", err)
		}
		return status, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
}

// CancelTask 取消任务：删除排队中的任务，或通知正在处理的任务停止
func (q *AsynqQueue) CancelTask(ctx context.Context, taskID string) error {
	var lastErr error
	for _, queueName := range queueNames {
		err := q.inspector.DeleteTask(queueName, taskID)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if err := q.inspector.CancelProcessing(taskID); err != nil {
		return fmt.Errorf("failed to cancel task: %w", errors.Join(lastErr, err))
	}
	return nil
}

// SaveStatus 保存任务状态（包括进度）
func (q *AsynqQueue) SaveStatus(ctx context.Context, status *TaskStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	if err := q.redis.Set(ctx, statusKey(status.TaskID), data, q.cfg.StatusTTL).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}
	return nil
}

// SaveFinalStatus 保存最终任务状态
func (q *AsynqQueue) SaveFinalStatus(ctx context.Context, status *TaskStatus) error {
	if status.FinishedAt.IsZero() {
		status.FinishedAt = time.Now()
	}
	return q.SaveStatus(ctx, status)
}

func statusKey(taskID string) string {
	return fmt.Sprintf("task_status:%s", taskID)
}

// convertAsynqStatus 将 asynq 状态转换为 TaskStatus
func convertAsynqStatus(info *asynq.TaskInfo) *TaskStatus {
	status := &TaskStatus{
		TaskID:    info.ID,
		StartedAt: info.NextProcessAt,
	}

	switch info.State {
	case asynq.TaskStatePending, asynq.TaskStateScheduled:
		status.Status = "pending"
	case asynq.TaskStateActive:
		status.Status = "running"
	case asynq.TaskStateCompleted:
		status.Status = "completed"
		status.Progress = 1.0
		status.FinishedAt = info.CompletedAt
	case asynq.TaskStateRetry:
		status.Status = "pending"
		status.Error = info.LastErr
	case asynq.TaskStateArchived:
		status.Status = "failed"
		status.Error = info.LastErr
		status.FinishedAt = info.LastFailedAt
	default:
		status.Status = "pending"
	}

	return status
}
