package enums

// ProductSort orders catalog listings. The empty value means newest first.
type ProductSort string

const (
	ProductSortNewest    ProductSort = "newest"
	ProductSortPriceAsc  ProductSort = "price_asc"
	ProductSortPriceDesc ProductSort = "price_desc"
	ProductSortNameAsc   ProductSort = "name_asc"
	ProductSortNameDesc  ProductSort = "name_desc"
)

var productSorts = []ProductSort{
	ProductSortNewest,
	ProductSortPriceAsc,
	ProductSortPriceDesc,
	ProductSortNameAsc,
	ProductSortNameDesc,
}

func (v ProductSort) String() string { return string(v) }
func (v ProductSort) IsValid() bool  { return isOneOf(v, productSorts) }

func ParseProductSort(value string) (ProductSort, error) {
	return parseOneOf("product sort", value, productSorts)
}
