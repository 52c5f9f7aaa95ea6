package schema

// WriterStats summarizes durable writes performed by the service.
type WriterStats struct {
	// Writes counts successful slot writes.
	Writes uint64
	// Failures counts swallowed or returned write errors.
	Failures uint64
	// Superseded counts pending flushes cancelled by a newer mutation.
	Superseded uint64
	// Pending reports whether a debounced flush is scheduled.
	Pending bool
	// LastVersion is the state version of the last successful write.
	LastVersion uint64
}
