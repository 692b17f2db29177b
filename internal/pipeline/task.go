package pipeline

// Task is a named, ordered transform chain from a set of input globs to an
// output directory. Tasks are built once at startup and never mutated.
type Task struct {
	Name string
	// Inputs are absolute glob patterns, expanded in order.
	Inputs []string
	// Dest is the absolute output directory.
	Dest   string
	Stages []Stage
	// Incremental restricts reads to sources modified after the last
	// successful run.
	Incremental bool
}
