package domain

// Product holds the catalog metadata the analyzers use to find related
// products and price cannibalized volume.
type Product struct {
	ProductID   string  `json:"productId"`
	TenantID    string  `json:"tenantId"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
	Deleted     bool    `json:"deleted"`
}

// RelationshipTier classifies how a related product relates to the
// promoted one. Higher tiers indicate stronger substitution potential.
type RelationshipTier string

const (
	TierSameBrandSameCategory        RelationshipTier = "same_brand_same_category"
	TierSameCategoryDifferentBrand   RelationshipTier = "same_category_different_brand"
	TierSameCategoryDifferentSubcat  RelationshipTier = "same_category_different_subcategory"
	TierSameBrandDifferentCategory   RelationshipTier = "same_brand_different_category"
	TierUnrelated                    RelationshipTier = "unrelated"
)

// ClassifyRelationship returns the tier for a related product, checked in
// priority order.
func ClassifyRelationship(promoted, related *Product) RelationshipTier {
	sameBrand := promoted.Brand != "" && promoted.Brand == related.Brand
	sameCategory := promoted.Category != "" && promoted.Category == related.Category
	sameSubcategory := promoted.Subcategory != "" && promoted.Subcategory == related.Subcategory

	switch {
	case sameBrand && sameCategory:
		return TierSameBrandSameCategory
	case sameCategory && sameSubcategory:
		return TierSameCategoryDifferentBrand
	case sameCategory:
		return TierSameCategoryDifferentSubcat
	case sameBrand:
		return TierSameBrandDifferentCategory
	default:
		return TierUnrelated
	}
}
