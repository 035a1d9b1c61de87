package log

const (
	KeyAppName            = "app"
	KeyAuthToken          = "authToken"
	KeyBody               = "body"
	KeyCacheKey           = "cacheKey"
	KeyCart               = "cart"
	KeyCartItems          = "cartItems"
	KeyCartItemsCount     = "cartItemsCount"
	KeyCartTotal          = "cartTotal"
	KeyCategoryID         = "categoryId"
	KeyCheckout           = "checkout"
	KeyCheckoutID         = "checkoutId"
	KeyColorMode          = "colorMode"
	KeyConfig             = "config"
	KeyDbURL              = "dbUrl"
	KeyEmail              = "email"
	KeyHeader             = "header"
	KeyJsonCache          = "jsonCache"
	KeyPathValues         = "pathValues"
	KeyProcess            = "process"
	KeyProduct            = "product"
	KeyProductID          = "productId"
	KeyProducts           = "products"
	KeyQuery              = "query"
	KeyRequest            = "request"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestID          = "requestId"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestProcessedAt = "requestProcessedAt"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyRoutingKey         = "routingKey"
	KeySpanID             = "spanId"
	KeyStatusCode         = "statusCode"
	KeyTag                = "tag"
	KeyToken              = "token"
	KeyTokenID            = "tokenId"
	KeyTraceID            = "traceId"
	KeyUserID             = "userId"
)
