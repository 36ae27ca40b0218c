package domain

// ConstraintViolation describes one validation or parse failure in a request.
type ConstraintViolation struct {
	Message      string `json:"message"`
	PropertyPath string `json:"propertyPath"`
	InvalidValue any    `json:"invalidValue"`
}

// NewViolation builds a ConstraintViolation.
func NewViolation(message, propertyPath string, invalidValue any) ConstraintViolation {
	return ConstraintViolation{
		Message:      message,
		PropertyPath: propertyPath,
		InvalidValue: invalidValue,
	}
}
