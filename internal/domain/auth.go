package domain

// SubjectType differentiates customer vs agent tokens.
type SubjectType string

const (
	SubjectTypeCustomer SubjectType = "customer"
	SubjectTypeAgent    SubjectType = "agent"
)
