package handlers

// RPC method constants for standardized method naming
const (
	// Job methods
	JobPost     = "job.post"
	JobApply    = "job.apply"
	JobSelect   = "job.select"
	JobCancel   = "job.cancel"
	JobComplete = "job.complete"
	JobRevision = "job.revision"
	JobPay      = "job.pay"
	JobWithdraw = "job.withdraw"
	JobRefund   = "job.refund"
	JobGet      = "job.get"
	JobCounter  = "job.counter"
	JobList     = "job.list"
	JobStats    = "job.stats"
	JobLedger   = "job.ledger"

	// Account methods
	AccountBalance = "account.balance"
	AccountFund    = "account.fund"
)

// IsJobMethod checks if the given method is a job operation
func IsJobMethod(method string) bool {
	switch method {
	case JobPost, JobApply, JobSelect, JobCancel, JobComplete, JobRevision, JobPay, JobWithdraw, JobRefund,
		JobGet, JobCounter, JobList, JobStats, JobLedger:
		return true
	default:
		return false
	}
}

// IsAccountMethod checks if the given method is an account operation
func IsAccountMethod(method string) bool {
	switch method {
	case AccountBalance, AccountFund:
		return true
	default:
		return false
	}
}

// IsMutatingMethod reports whether the method changes state and therefore needs a caller identity
func IsMutatingMethod(method string) bool {
	switch method {
	case JobPost, JobApply, JobSelect, JobCancel, JobComplete, JobRevision, JobPay, JobWithdraw, JobRefund,
		AccountFund:
		return true
	default:
		return false
	}
}
