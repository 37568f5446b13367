package domain

import "strings"

// StatusClass is the styling bucket of a status cell.
type StatusClass int

const (
	Unclassified StatusClass = iota
	Pending
	Delivered
)

// Classify maps a raw status value to its class. Matching is
// case-insensitive and exact; anything else is Unclassified.
func Classify(raw string) StatusClass {
	switch {
	case strings.EqualFold(raw, "pendente"), strings.EqualFold(raw, "pending"):
		return Pending
	case strings.EqualFold(raw, "entregue"), strings.EqualFold(raw, "delivered"):
		return Delivered
	default:
		return Unclassified
	}
}

// CSSClass returns the class attribute value, empty for Unclassified.
func (c StatusClass) CSSClass() string {
	switch c {
	case Pending:
		return "status-pending"
	case Delivered:
		return "status-delivered"
	default:
		return ""
	}
}

func (c StatusClass) String() string {
	switch c {
	case Pending:
		return "pending"
	case Delivered:
		return "delivered"
	default:
		return "unclassified"
	}
}
