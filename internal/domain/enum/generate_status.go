package enum

// GenerateStatus is the outcome of one "Generate Receipt" action.
type GenerateStatus string

const (
	// GenerateSuccess: invoice committed and PDF written.
	GenerateSuccess GenerateStatus = "success"
	// GenerateDeclined: validation failed, cart preserved.
	GenerateDeclined GenerateStatus = "declined"
	// GenerateAborted: admin authorization required or denied.
	GenerateAborted GenerateStatus = "aborted"
	// GenerateFailed: invoice not saved, cart preserved.
	GenerateFailed GenerateStatus = "failed"
	// GeneratePartial: invoice saved, PDF not produced.
	GeneratePartial GenerateStatus = "partial"
)

func (s GenerateStatus) String() string {
	return string(s)
}
