package blobs

// ProgressHandler receives status and completion reports from a running search. It may be
// observed from other goroutines; implementations handle their own synchronization and must
// return promptly.
type ProgressHandler interface {
	SetStatus(status string)
	SetProgress(percent int)
}

// ProgressFunc adapts a plain function to ProgressHandler. SetStatus passes percent -1 and
// SetProgress passes an empty status.
type ProgressFunc func(percent int, status string)

// SetStatus implements ProgressHandler
func (f ProgressFunc) SetStatus(status string) {
	f(-1, status)
}

// SetProgress implements ProgressHandler
func (f ProgressFunc) SetProgress(percent int) {
	f(percent, "")
}

type noopProgress struct{}

func (noopProgress) SetStatus(string) {}
func (noopProgress) SetProgress(int)  {}
