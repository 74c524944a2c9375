package services

import "github.com/celestiaorg/trustgig/internal/db/models"

// IsClient reports whether caller posted the job
func IsClient(job *models.Job, caller string) bool {
	return caller != "" && job.Client == caller
}

// IsFreelancer reports whether caller is the selected freelancer
func IsFreelancer(job *models.Job, caller string) bool {
	return caller != "" && job.Freelancer == caller
}

// IsApplicant reports whether caller applied to the job
func IsApplicant(job *models.Job, caller string) bool {
	return caller != "" && job.HasApplicant(caller)
}
