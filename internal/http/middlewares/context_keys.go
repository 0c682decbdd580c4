package middlewares

// gin context keys set by this package.
const (
	CtxRequestID = "request_id"
	CtxClaims    = "auth.claims"
	CtxUserID    = "auth.userID"
	CtxEmail     = "auth.email"
	CtxRoles     = "auth.roles"
)
