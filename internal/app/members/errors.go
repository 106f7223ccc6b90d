package members

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeInvalidID      = "INVALID_MEMBER_ID"
	CodeMemberNotFound = "MEMBER_NOT_FOUND"
)

func errInvalidID() *Error {
	return &Error{
		Status:  400,
		Code:    CodeInvalidID,
		Message: "Invalid member ID",
	}
}

func errNotFound() *Error {
	return &Error{
		Status:  404,
		Code:    CodeMemberNotFound,
		Message: "Member not found",
	}
}
