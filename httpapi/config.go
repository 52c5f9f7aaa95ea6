package httpapi

// Config defines loopback API settings.
type Config struct {
	Addr string
	// ExportPath is used when an export request names no destination.
	ExportPath string
	// HistorySize bounds the stream replay buffer.
	HistorySize int
}
