package entities

// Status is the lifecycle state of an order. The set is closed: values
// arriving from the API or the database must pass ParseStatus before
// use.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var statuses = map[Status]struct{}{
	StatusPending:    {},
	StatusProcessing: {},
	StatusShipped:    {},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// transitions is the allowed-successor table. Every valid status may
// currently follow every other one, preserving the observed behavior of
// the storefront; tightening the lifecycle is an edit here, not a code
// change elsewhere.
var transitions = map[Status][]Status{
	StatusPending:    {StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled},
	StatusProcessing: {StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled},
	StatusShipped:    {StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled},
	StatusDelivered:  {StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled},
	StatusCancelled:  {StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled},
}

// ParseStatus validates a raw status value against the closed set.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := statuses[s]; !ok {
		return "", ErrInvalidStatus
	}
	return s, nil
}

func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether next is an allowed successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
