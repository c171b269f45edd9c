package monitoring

// Status maps an operation error to the status label used on counters.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
