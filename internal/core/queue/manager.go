// Package queue 訓練任務隊列：有界 channel 搭配固定數量的 worker。
package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"meal-recommender/internal/core/meal/classifier"
	"meal-recommender/internal/infrastructure/config"
	"meal-recommender/internal/pkg/common"
)

// ErrClosed 隊列已關閉
var ErrClosed = errors.New("queue manager is closed")

// JobStatus 任務狀態
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
)

// Job 訓練任務
type Job struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Config     classifier.TrainConfig `json:"config"`
	Status     JobStatus              `json:"status"`
	Version    string                 `json:"version,omitempty"`
	Error      string                 `json:"error,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	StartedAt  *time.Time             `json:"started_at,omitempty"`
	FinishedAt *time.Time             `json:"finished_at,omitempty"`
}

func (j *Job) clone() Job {
	c := *j
	c.Config.HiddenLayers = append([]int(nil), j.Config.HiddenLayers...)
	return c
}

// Handler 執行任務，成功時回傳新模型版本
type Handler func(ctx context.Context, job *Job) (string, error)

// Status 隊列狀態
type Status struct {
	QueueLength    int `json:"queue_length"`
	Running        int `json:"running"`
	ProcessedCount int `json:"processed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager 隊列管理器
type Manager struct {
	config    config.QueueConfig
	queue     chan *Job
	processed int64
	running   int64

	mu     sync.RWMutex
	jobs   map[string]*Job
	closed bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager 創建新的隊列管理器
func NewManager(cfg config.QueueConfig) *Manager {
	return &Manager{
		config: cfg,
		queue:  make(chan *Job, cfg.MaxSize),
		jobs:   make(map[string]*Job),
	}
}

// Start 啟動 worker；ctx 取消或 Close 時正在執行的任務會收到取消
func (m *Manager) Start(ctx context.Context, handler Handler) {
	ctx, m.cancel = context.WithCancel(ctx)
	for i := 0; i < m.config.Workers; i++ {
		m.wg.Add(1)
		go m.worker(ctx, i, handler)
	}
	common.LogInfo("訓練隊列已啟動",
		zap.Int("workers", m.config.Workers),
		zap.Int("max_queue_size", m.config.MaxSize),
	)
}

func (m *Manager) worker(ctx context.Context, id int, handler Handler) {
	defer m.wg.Done()
	for job := range m.queue {
		m.run(ctx, id, job, handler)
	}
}

func (m *Manager) run(ctx context.Context, worker int, job *Job, handler Handler) {
	atomic.AddInt64(&m.running, 1)
	defer atomic.AddInt64(&m.running, -1)
	defer m.IncrementProcessed()

	started := time.Now()
	m.update(job.ID, func(j *Job) {
		j.Status = StatusRunning
		j.StartedAt = &started
	})
	common.LogInfo("訓練任務開始",
		zap.String("job_id", job.ID),
		zap.String("name", job.Name),
		zap.Int("worker", worker),
	)

	snapshot := m.snapshot(job.ID)
	version, err := handler(ctx, &snapshot)

	finished := time.Now()
	m.update(job.ID, func(j *Job) {
		j.FinishedAt = &finished
		if err != nil {
			j.Status = StatusFailed
			j.Error = err.Error()
			return
		}
		j.Status = StatusSucceeded
		j.Version = version
	})

	if err != nil {
		common.LogError("訓練任務失敗",
			zap.String("job_id", job.ID),
			zap.Duration("duration", finished.Sub(started)),
			zap.Error(err),
		)
		return
	}
	common.LogInfo("訓練任務完成",
		zap.String("job_id", job.ID),
		zap.String("version", version),
		zap.Duration("duration", finished.Sub(started)),
	)
}

// Enqueue 將任務加入隊列，隊列已滿時立即失敗
func (m *Manager) Enqueue(name string, cfg classifier.TrainConfig) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Job{}, ErrClosed
	}

	job := &Job{
		ID:        common.GenerateUUID(),
		Name:      name,
		Config:    cfg,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	select {
	case m.queue <- job:
	default:
		return Job{}, common.ErrQueueFull
	}
	m.jobs[job.ID] = job

	common.LogInfo("Request enqueued",
		zap.String("job_id", job.ID),
		zap.Int("queue_length", len(m.queue)),
		zap.Int("max_queue_size", m.config.MaxSize),
	)
	return job.clone(), nil
}

// Get 取得任務狀態副本
func (m *Manager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.clone(), true
}

func (m *Manager) snapshot(id string) Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id].clone()
}

func (m *Manager) update(id string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		fn(job)
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		Running:        int(atomic.LoadInt64(&m.running)),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		MaxQueueSize:   m.config.MaxSize,
		Workers:        m.config.Workers,
	}
}

// IncrementProcessed 增加處理計數
func (m *Manager) IncrementProcessed() {
	atomic.AddInt64(&m.processed, 1)
}

// Close 停止接收任務、取消執行中的任務並等待 worker 結束
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
