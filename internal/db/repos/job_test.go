package repos

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/celestiaorg/trustgig/internal/db/models"
	apperrors "github.com/celestiaorg/trustgig/internal/errors"
)

type JobRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestJobRepository(t *testing.T) {
	suite.Run(t, new(JobRepositoryTestSuite))
}

func (s *JobRepositoryTestSuite) TestCreateJob() {
	first := s.createTestJob()
	second := s.createTestJob()
	s.Equal(uint(1), first)
	s.Equal(uint(2), second)

	job, err := s.jobRepo.Get(s.ctx, first)
	s.Require().NoError(err)
	s.Equal(testClient, job.Client)
	s.Equal(int64(100), job.Reward)
	s.Zero(job.Amount)
	s.Nil(job.Deadline)
	s.Equal(models.JobStatusOpen, job.Status)
	s.Empty(job.Applicants)

	counter, err := s.jobRepo.Counter(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint(2), counter)
}

func (s *JobRepositoryTestSuite) TestCreateJobInvalidInput() {
	tests := []struct {
		name      string
		reward    int64
		deposited int64
	}{
		{"zero reward", 0, 0},
		{"negative reward", -5, -5},
		{"deposit mismatch", 100, 99},
	}
	for _, tt := range tests {
		_, err := s.jobRepo.CreateJob(s.ctx, testClient, "bad", tt.reward, 1, tt.deposited)
		s.True(apperrors.IsInvalidInput(err), tt.name)
	}

	counter, err := s.jobRepo.Counter(s.ctx)
	s.Require().NoError(err)
	s.Zero(counter, "rejected creations must not consume ids")
}

func (s *JobRepositoryTestSuite) TestCreateJobRollbackKeepsIDsDense() {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		_, err := s.jobRepo.WithTx(tx).CreateJob(s.ctx, testClient, "rolled back", 10, 1, 10)
		s.Require().NoError(err)
		return apperrors.InvalidStatef("abort")
	})
	s.Error(err)

	id := s.createTestJob()
	s.Equal(uint(1), id)
}

func (s *JobRepositoryTestSuite) TestConcurrentCreateJob() {
	const n = 10
	var wg sync.WaitGroup
	ids := make(chan uint, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.jobRepo.CreateJob(s.ctx, testClient, "concurrent", 5, 1, 5)
			s.NoError(err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uint]bool{}
	for id := range ids {
		s.False(seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	for id := uint(1); id <= n; id++ {
		s.True(seen[id], "missing id %d", id)
	}
}

func (s *JobRepositoryTestSuite) TestGetNotFound() {
	_, err := s.jobRepo.Get(s.ctx, 0)
	s.True(apperrors.IsNotFound(err))

	s.createTestJob()
	_, err = s.jobRepo.Get(s.ctx, 2)
	s.True(apperrors.IsNotFound(err))
}

func (s *JobRepositoryTestSuite) TestAppendApplicant() {
	id := s.createTestJob()

	s.Require().NoError(s.jobRepo.AppendApplicant(s.ctx, id, testFreelancer))
	s.Require().NoError(s.jobRepo.AppendApplicant(s.ctx, id, testOther))

	err := s.jobRepo.AppendApplicant(s.ctx, id, testFreelancer)
	s.True(apperrors.IsAlreadyApplied(err))

	job, err := s.jobRepo.GetForUpdate(s.ctx, id)
	s.Require().NoError(err)
	s.Equal([]string{testFreelancer, testOther}, job.ApplicantIdentities())
}

func (s *JobRepositoryTestSuite) TestAssignAndSettle() {
	id := s.createTestJob()
	deadline := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.jobRepo.Assign(s.ctx, id, testFreelancer, deadline, 100, 3))

	job, err := s.jobRepo.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.JobStatusAssigned, job.Status)
	s.Equal(testFreelancer, job.Freelancer)
	s.Equal(int64(100), job.Amount)
	s.Equal(uint32(3), job.DurationDays)
	s.Require().NotNil(job.Deadline)
	s.True(deadline.Equal(*job.Deadline))
	s.NoError(job.Validate())

	s.Require().NoError(s.jobRepo.SetStatus(s.ctx, id, models.JobStatusCompleted))
	s.Error(s.jobRepo.Settle(s.ctx, id, models.JobStatusAssigned))
	s.Require().NoError(s.jobRepo.Settle(s.ctx, id, models.JobStatusPaid))

	job, err = s.jobRepo.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.JobStatusPaid, job.Status)
	s.Zero(job.Amount)
	s.NoError(job.Validate())

	s.True(apperrors.IsNotFound(s.jobRepo.SetStatus(s.ctx, 42, models.JobStatusPaid)))
}

func (s *JobRepositoryTestSuite) TestListRecent() {
	for i := 0; i < 5; i++ {
		s.createTestJob()
	}
	other := s.createTestJobFor(testOther, 20)
	s.Require().NoError(s.jobRepo.AppendApplicant(s.ctx, 2, testFreelancer))
	s.Require().NoError(s.jobRepo.Assign(s.ctx, 3, testFreelancer, time.Now().UTC(), 100, 1))

	jobs, err := s.jobRepo.ListRecent(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(jobs, 6)
	s.Equal(other, jobs[0].ID)
	s.Equal(uint(1), jobs[5].ID)

	jobs, err = s.jobRepo.ListRecent(s.ctx, &models.ListOptions{Limit: 2})
	s.Require().NoError(err)
	s.Len(jobs, 2)
	s.Equal(uint(6), jobs[0].ID)
	s.Equal(uint(5), jobs[1].ID)

	jobs, err = s.jobRepo.ListRecent(s.ctx, &models.ListOptions{Limit: 2, Before: 5})
	s.Require().NoError(err)
	s.Len(jobs, 2)
	s.Equal(uint(4), jobs[0].ID)

	open := models.JobStatusOpen
	jobs, err = s.jobRepo.ListRecent(s.ctx, &models.ListOptions{Status: &open})
	s.Require().NoError(err)
	s.Len(jobs, 5)

	jobs, err = s.jobRepo.ListRecent(s.ctx, &models.ListOptions{Client: testOther})
	s.Require().NoError(err)
	s.Len(jobs, 1)
	s.Equal(other, jobs[0].ID)

	jobs, err = s.jobRepo.ListRecent(s.ctx, &models.ListOptions{Participant: testFreelancer})
	s.Require().NoError(err)
	s.Require().Len(jobs, 2)
	s.Equal(uint(3), jobs[0].ID)
	s.Equal(uint(2), jobs[1].ID)
	s.Equal([]string{testFreelancer}, jobs[1].ApplicantIdentities())
}

func (s *JobRepositoryTestSuite) TestListRecentEmpty() {
	jobs, err := s.jobRepo.ListRecent(s.ctx, &models.ListOptions{})
	s.Require().NoError(err)
	s.NotNil(jobs)
	s.Empty(jobs)
}

func (s *JobRepositoryTestSuite) TestListOverdueAndCounts() {
	now := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	late := s.createTestJob()
	early := s.createTestJob()
	s.createTestJob()
	s.Require().NoError(s.jobRepo.Assign(s.ctx, late, testFreelancer, now.Add(-time.Hour), 100, 1))
	s.Require().NoError(s.jobRepo.Assign(s.ctx, early, testFreelancer, now.Add(time.Hour), 100, 1))

	jobs, err := s.jobRepo.ListOverdue(s.ctx, now, OverdueCursor{}, 10)
	s.Require().NoError(err)
	s.Require().Len(jobs, 1)
	s.Equal(late, jobs[0].ID)

	jobs, err = s.jobRepo.ListOverdue(s.ctx, now, OverdueCursor{Deadline: *jobs[0].Deadline, JobID: late}, 10)
	s.Require().NoError(err)
	s.Empty(jobs)

	total, err := s.jobRepo.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), total)

	open, err := s.jobRepo.Count(s.ctx, models.JobStatusOpen)
	s.Require().NoError(err)
	s.Equal(int64(1), open)

	active, err := s.jobRepo.CountActive(s.ctx, testFreelancer)
	s.Require().NoError(err)
	s.Equal(int64(2), active)

	active, err = s.jobRepo.CountActive(s.ctx, testOther)
	s.Require().NoError(err)
	s.Zero(active)
}
