package repository

// Reporter receives repository failures in addition to the log.
type Reporter interface {
	ReportError(op string, err error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(op string, err error)

func (f ReporterFunc) ReportError(op string, err error) {
	f(op, err)
}

// Repository operation names passed to a Reporter
const (
	OpFetchAll = "fetch_all"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpRemove   = "remove"
)
