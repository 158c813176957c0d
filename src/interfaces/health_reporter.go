package interfaces

// IHealthReporter receives the outcome of provider calls.
type IHealthReporter interface {
	ReportSource(name string, healthy bool)
}
