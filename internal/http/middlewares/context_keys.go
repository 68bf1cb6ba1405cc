package middlewares

const (
	CtxRequestID = "request_id"

	ctxUserKey = "auth.user"
)
