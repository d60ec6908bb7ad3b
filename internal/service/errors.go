package service

// ValidationError marks a client input failure. Handlers map it to a 400;
// every other service error is a transport or store failure. The Reason
// strings are part of the API contract and must stay stable.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
