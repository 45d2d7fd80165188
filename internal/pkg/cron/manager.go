package cron

import (
	"fmt"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultReminderSpec 六段式，秒在首位
const DefaultReminderSpec = "0 0 * * * *"

type entry struct {
	name string
	spec string
	job  cron.Job
}

// Manager 定时任务注册与生命周期
type Manager struct {
	engine  *cron.Cron
	entries []entry
}

func NewCronManager() *Manager {
	l := slogAdapter{}
	return &Manager{
		engine: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
	}
}

// Add 登记任务，spec 为空时使用 DefaultReminderSpec
func (s *Manager) Add(name, spec string, job cron.Job) {
	if spec == "" {
		spec = DefaultReminderSpec
	}
	s.entries = append(s.entries, entry{name: name, spec: spec, job: job})
}

// Start 注册全部任务后启动，任一表达式非法则不启动
func (s *Manager) Start() error {
	for _, e := range s.entries {
		if _, err := s.engine.AddJob(e.spec, e.job); err != nil {
			return fmt.Errorf("cron job %s: invalid spec %q: %w", e.name, e.spec, err)
		}
		log.Info("Cron job registered", "job", e.name, "spec", e.spec)
	}
	s.engine.Start()
	log.Info("Cron engine started", "jobs", len(s.entries))
	return nil
}

// Stop 等待正在执行的任务结束
func (s *Manager) Stop() {
	log.Info("Cron engine stopping")
	<-s.engine.Stop().Done()
}

// slogAdapter 将 cron 内部日志接入 slog
type slogAdapter struct{}

func (slogAdapter) Info(msg string, keysAndValues ...any) {
	log.Debug("cron: "+msg, keysAndValues...)
}

func (slogAdapter) Error(err error, msg string, keysAndValues ...any) {
	log.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
