package api

// Error codes carried in the JSON error body.
const (
	CodeBadRequest      = "bad_request"
	CodeNotFound        = "not_found"
	CodeAmbiguousMatch  = "ambiguous_match"
	CodeUpstreamFetch   = "upstream_fetch_error"
	CodeUpstreamTimeout = "upstream_timeout"
	CodeParseError      = "parse_error"
	CodeInternal        = "internal_error"
	CodeRateLimited     = "rate_limited"
)
