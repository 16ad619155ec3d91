package booking

import "fmt"

// ServiceType selects the pricing tier for a booking.
type ServiceType string

const (
	ServicePackers ServiceType = "packers"
	ServiceMovers  ServiceType = "movers"
	ServiceBoth    ServiceType = "both"
)

// IsValid returns true if the service type is recognized.
func (s ServiceType) IsValid() bool {
	switch s {
	case ServicePackers, ServiceMovers, ServiceBoth:
		return true
	}
	return false
}

// Label returns the customer-facing name of the service.
func (s ServiceType) Label() string {
	switch s {
	case ServicePackers:
		return "Packers Only"
	case ServiceMovers:
		return "Movers Only"
	case ServiceBoth:
		return "Packers & Movers"
	default:
		return string(s)
	}
}

// ParseServiceType converts a string to a ServiceType, returning an error if invalid.
func ParseServiceType(s string) (ServiceType, error) {
	st := ServiceType(s)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid service type: %s", s)
	}
	return st, nil
}
