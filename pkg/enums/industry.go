package enums

// Industry groups templates for browsing.
type Industry string

const (
	IndustryAutomotive        Industry = "Automotive"
	IndustryConsumerGoods     Industry = "Consumer Goods"
	IndustryFashionAndApparel Industry = "Fashion & Apparel"
	IndustryFoodAndBeverage   Industry = "Food & Beverage"
	IndustryHealthAndWellness Industry = "Health & Wellness"
	IndustryLuxuryGoods       Industry = "Luxury Goods"
	IndustryTechnology        Industry = "Technology"
	IndustryTravelHospitality Industry = "Travel & Hospitality"
	IndustryOther             Industry = "Other"
)

var validIndustries = []Industry{
	IndustryAutomotive,
	IndustryConsumerGoods,
	IndustryFashionAndApparel,
	IndustryFoodAndBeverage,
	IndustryHealthAndWellness,
	IndustryLuxuryGoods,
	IndustryTechnology,
	IndustryTravelHospitality,
	IndustryOther,
}

func (i Industry) String() string {
	return string(i)
}

func (i Industry) IsValid() bool {
	return contains(validIndustries, i)
}

// ParseIndustry converts raw input into an Industry.
func ParseIndustry(value string) (Industry, error) {
	return parse(validIndustries, value, "industry")
}
