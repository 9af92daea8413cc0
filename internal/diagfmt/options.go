package diagfmt

// PrettyOpts configures human-readable rendering.
type PrettyOpts struct {
	Color     bool
	ShowNotes bool
}

// JSONOpts configures JSON rendering.
type JSONOpts struct {
	Max          int // 0 means no limit
	IncludeNotes bool
}
