package domain

type Transition struct {
	Status    Status
	Timestamp string
}

// ApplyTransition decides whether a proposed status change commits and
// returns the resulting record. The policy is permissive: any enum status may
// follow any other, there is no terminal state and no forward-only ordering.
// Duplicate delivery of the same transition is therefore a no-op by value;
// out-of-order delivery resolves to whichever write lands last.
func ApplyTransition(current Notification, t Transition) (Notification, error) {
	status, err := ParseStatus(string(t.Status))
	if err != nil {
		return current, err
	}
	next := current
	next.Status = status
	next.Timestamp = t.Timestamp
	return next, nil
}
