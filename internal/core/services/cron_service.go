package services

import (
	"context"
	"time"

	"shg-finance/internal/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronService runs the periodic housekeeping jobs
type CronService struct {
	cron  *cron.Cron
	polls *PollService
	auth  *AuthService
}

// NewCronService creates the scheduler; jobs are registered by Start
func NewCronService(polls *PollService, auth *AuthService) *CronService {
	return &CronService{
		cron:  cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		polls: polls,
		auth:  auth,
	}
}

// Start registers the jobs and launches the cron loop
func (s *CronService) Start() {
	jobs := []struct {
		schedule string
		fn       func()
	}{
		{"@every 1m", s.CloseExpiredPolls},
		{"0 3 * * *", s.PurgeRefreshTokens}, // daily, 03:00 server time
	}
	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.schedule, j.fn); err != nil {
			logger.Error("cron job not registered", zap.String("schedule", j.schedule), zap.Error(err))
		}
	}
	s.cron.Start()
	logger.Info("cron service started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("cron service stopped")
}

// CloseExpiredPolls deactivates polls past their deadline
func (s *CronService) CloseExpiredPolls() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.polls.CloseExpired(ctx)
	if err != nil {
		logger.Error("closing expired polls failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("expired polls closed", zap.Int64("count", n))
	}
}

// PurgeRefreshTokens removes expired and revoked refresh tokens
func (s *CronService) PurgeRefreshTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.auth.PurgeTokens(ctx)
	if err != nil {
		logger.Error("purging refresh tokens failed", zap.Error(err))
		return
	}
	logger.Info("refresh tokens purged", zap.Int64("count", n))
}
