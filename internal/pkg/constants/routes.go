package constants

// Route prefixes shared by the router and the services that build links
const (
	APIRoute     = "/api"
	APIv1Route   = "/api/v1"
	ContentRoute = "/content"
	WebhookRoute = "/webhooks/razorpay"
	HealthRoute  = "/healthz"
	CatalogRoute = APIv1Route + "/catalog"
	// Purchase links append the item id
	PurchaseRoute = CatalogRoute + "/"
)
