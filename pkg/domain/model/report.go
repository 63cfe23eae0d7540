package model

// Report is a renderer-agnostic summary of a validation or execution: a
// title, summary counts, then failures before successes.
type Report struct {
	Title     string
	Counts    []ReportCount
	Failures  []ReportItem
	Successes []ReportItem
	Footer    string // optional, e.g. run ID and duration
}

// ReportCount is a labelled number shown in the summary line
type ReportCount struct {
	Label string
	Value int
}

// ReportItem is one itemized line of a report
type ReportItem struct {
	LineNumber int
	Label      string
	Detail     string
}

// HasFailures reports whether anything needs the operator's attention
func (r *Report) HasFailures() bool {
	return len(r.Failures) > 0
}
