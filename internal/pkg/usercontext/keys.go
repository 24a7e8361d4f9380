package usercontext

// Shared Locals keys used across controllers and middlewares
const (
	KeyUserContext = "USER_CONTEXT"
	KeyUserID      = "user_id"
	KeyIsAdmin     = "isAdmin"
	// IdentityCookie carries the identity token for browser requests.
	IdentityCookie = "vault_identity"
)
