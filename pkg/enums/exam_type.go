package enums

import "fmt"

// ExamType identifies the examination a result checker unlocks.
type ExamType string

const (
	ExamTypeBECE   ExamType = "bece"
	ExamTypeWASSCE ExamType = "wassce"
	ExamTypeNovDec ExamType = "novdec"
)

var validExamTypes = []ExamType{
	ExamTypeBECE,
	ExamTypeWASSCE,
	ExamTypeNovDec,
}

// String implements fmt.Stringer.
func (e ExamType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known ExamType.
func (e ExamType) IsValid() bool {
	for _, candidate := range validExamTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseExamType converts raw input into an ExamType.
func ParseExamType(value string) (ExamType, error) {
	for _, candidate := range validExamTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid exam type %q", value)
}
