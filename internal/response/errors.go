package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrPaperNotFound         ErrCode = "PAPER_NOT_FOUND"
	ErrPaperInactive         ErrCode = "PAPER_INACTIVE"
	ErrInsufficientQuestions ErrCode = "INSUFFICIENT_QUESTIONS"
	ErrInvalidState          ErrCode = "INVALID_STATE"
	ErrSessionTimeout        ErrCode = "SESSION_TIMEOUT"
	ErrUnknownQuestion       ErrCode = "UNKNOWN_QUESTION"
	ErrDuplicateRequest      ErrCode = "DUPLICATE_REQUEST"
	ErrNotTerminal           ErrCode = "SESSION_NOT_TERMINAL"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid username or password."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is not valid."
	case ErrTokenExpired:
		return "Authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrDependencyExists:
		return "Resource cannot be deleted because it is still referenced."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrPaperNotFound:
		return "Exam paper not found."
	case ErrPaperInactive:
		return "This exam paper is not currently active."
	case ErrInsufficientQuestions:
		return "No questions match the paper configuration."
	case ErrInvalidState:
		return "This operation is not permitted in the session's current state."
	case ErrSessionTimeout:
		return "The exam time has expired."
	case ErrUnknownQuestion:
		return "The question does not belong to this exam session."
	case ErrDuplicateRequest:
		return "Duplicate request. Please wait a moment before retrying."
	case ErrNotTerminal:
		return "The exam session has not finished yet."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
