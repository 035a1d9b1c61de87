package constants

const (
	AppUserService    = "user-service"
	AppProductService = "product-service"
	AppCartService    = "cart-service"
	AppMainStorefront = "main storefront"
	AudienceUser      = "audience-user"
)
