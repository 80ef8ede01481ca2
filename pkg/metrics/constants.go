package metrics

const (
	// Subsystem is the Prometheus subsystem of all pipeline metrics.
	Subsystem = "colossus"
)
