package cache

// Key builders for cached entities. Every cache entry shares the store's
// entity mapping, so invalidation on writes only needs these builders.

// KeyProduct returns the cache key for a product by id.
func KeyProduct(id string) string { return "product:" + id }

// KeyProductList returns the cache key for a paginated product listing.
func KeyProductList(page string) string { return "products:" + page }

// KeyCategoryList is the cache key for the full category listing.
const KeyCategoryList = "categories:all"

// KeyBrandList is the cache key for the full brand listing.
const KeyBrandList = "brands:all"

// KeyTagList is the cache key for the full tag listing.
const KeyTagList = "tags:all"

// KeyCoupon returns the cache key for a coupon by normalised code.
func KeyCoupon(code string) string { return "coupon:" + code }

// KeyTaxOptions is the cache key for the tax options singleton.
const KeyTaxOptions = "tax:options"

// KeyTaxClass returns the cache key for a tax class with its rates.
func KeyTaxClass(id string) string { return "tax:class:" + id }

// KeyShippingZones is the cache key for the ordered shipping zone listing.
const KeyShippingZones = "shipping:zones"
