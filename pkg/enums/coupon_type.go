package enums

// CouponType selects how a coupon discount is computed.
type CouponType string

const (
	CouponTypePercentage   CouponType = "percentage"
	CouponTypeFixed        CouponType = "fixed"
	CouponTypeFreeShipping CouponType = "free_shipping"
)

var couponTypes = []CouponType{CouponTypePercentage, CouponTypeFixed, CouponTypeFreeShipping}

func (v CouponType) String() string { return string(v) }
func (v CouponType) IsValid() bool  { return isOneOf(v, couponTypes) }

func ParseCouponType(value string) (CouponType, error) {
	return parseOneOf("coupon type", value, couponTypes)
}
