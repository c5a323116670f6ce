package service

import (
	"time"

	"go.uber.org/zap"
)

// Option 服务的可选配置
type Option func(*settings)

type settings struct {
	log *zap.Logger
	now func() time.Time
}

func newSettings(component string, opts []Option) settings {
	s := settings{
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.log = s.log.With(zap.String("component", component))
	return s
}

// WithLogger 指定日志记录器
func WithLogger(log *zap.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock 指定时间来源，测试中用于得到确定的时间戳
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// timestamp 当前UTC时间
func (s settings) timestamp() time.Time {
	return s.now().UTC()
}
