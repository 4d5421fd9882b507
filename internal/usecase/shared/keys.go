package shared

import "strconv"

// Cache key namespaces shared by the command and query sides.
const (
	shopCacheKeyPrefix    = "cache:shop:"
	hotShopCacheKeyPrefix = "cache:shop:hot:"
	voucherCacheKeyPrefix = "cache:voucher:"
)

func ShopCacheKey(id int64) string {
	return shopCacheKeyPrefix + strconv.FormatInt(id, 10)
}

func HotShopCacheKey(id int64) string {
	return hotShopCacheKeyPrefix + strconv.FormatInt(id, 10)
}

func VoucherCacheKey(id int64) string {
	return voucherCacheKeyPrefix + strconv.FormatInt(id, 10)
}
