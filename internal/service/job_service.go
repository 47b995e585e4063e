package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"parkease/internal/hold"
	"parkease/internal/repository"
)

// JobService runs the periodic maintenance the booking flow relies on:
// dropping expired slot leases, purging expired OTP codes, and finishing
// refunds whose in-process settle timer was lost to a restart.
type JobService struct {
	holds *hold.LeaseStore
	auth  *AuthService
	jobs  *repository.JobRepository // nil in local mode
	svc   *BookingService
}

func NewJobService(holds *hold.LeaseStore, auth *AuthService, jobs *repository.JobRepository, svc *BookingService) *JobService {
	return &JobService{holds: holds, auth: auth, jobs: jobs, svc: svc}
}

func (j *JobService) SweepExpiredHolds() {
	if dropped := j.holds.Sweep(); dropped > 0 {
		log.Printf("Cron Job: dropped %d expired slot holds", dropped)
	}
}

func (j *JobService) PurgeExpiredOTPs() error {
	j.auth.PurgeExpiredLocal()
	if j.jobs == nil {
		return nil
	}
	n, err := j.jobs.DeleteExpiredOTPs(context.Background(), time.Now())
	if err != nil {
		return fmt.Errorf("cron job: purging expired OTP codes: %w", err)
	}
	if n > 0 {
		log.Printf("Cron Job: purged %d expired OTP codes", n)
	}
	return nil
}

// CompleteStuckRefunds finishes refunds left INITIATED for over a minute.
func (j *JobService) CompleteStuckRefunds() error {
	if j.jobs == nil {
		return nil
	}
	ctx := context.Background()
	ids, err := j.jobs.StuckRefundIDs(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		return fmt.Errorf("cron job: finding stuck refunds: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := j.jobs.CompleteRefunds(ctx, ids); err != nil {
		return fmt.Errorf("cron job: completing stuck refunds: %w", err)
	}
	// Keep any loaded in-memory stores in step with the rows.
	for _, id := range ids {
		j.svc.CompleteRefundByID(ctx, id)
	}
	return nil
}
