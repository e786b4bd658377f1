package httpserver

const (
	ErrInvalidJSON       = "invalid json"
	ErrMissingExternalID = "missing externalId"
	ErrDependency        = "dependency error"
	ErrNotFound          = "not found"
	ErrRateLimited       = "rate limited"
)
