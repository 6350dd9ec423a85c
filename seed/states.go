package seed

import "github.com/zachtilly/childcare-api/policy"

// Regions used by the generator's patterns.
const (
	RegionNortheast = "Northeast"
	RegionSouth     = "South"
	RegionMidwest   = "Midwest"
	RegionWest      = "West"
)

// States is the reference list: 50 states with 2023 population and
// median household income. IDs are assigned at insert time.
var States = []policy.State{
	{Code: "CT", Name: "Connecticut", Region: RegionNortheast, Population: 3626205, MedianHouseholdIncome: 83771},
	{Code: "ME", Name: "Maine", Region: RegionNortheast, Population: 1395722, MedianHouseholdIncome: 68251},
	{Code: "MA", Name: "Massachusetts", Region: RegionNortheast, Population: 7001399, MedianHouseholdIncome: 89026},
	{Code: "NH", Name: "New Hampshire", Region: RegionNortheast, Population: 1395231, MedianHouseholdIncome: 88841},
	{Code: "NJ", Name: "New Jersey", Region: RegionNortheast, Population: 9290841, MedianHouseholdIncome: 89296},
	{Code: "NY", Name: "New York", Region: RegionNortheast, Population: 19571216, MedianHouseholdIncome: 75157},
	{Code: "PA", Name: "Pennsylvania", Region: RegionNortheast, Population: 12961683, MedianHouseholdIncome: 68957},
	{Code: "RI", Name: "Rhode Island", Region: RegionNortheast, Population: 1095962, MedianHouseholdIncome: 74008},
	{Code: "VT", Name: "Vermont", Region: RegionNortheast, Population: 647464, MedianHouseholdIncome: 72431},

	{Code: "AL", Name: "Alabama", Region: RegionSouth, Population: 5108468, MedianHouseholdIncome: 56929},
	{Code: "AR", Name: "Arkansas", Region: RegionSouth, Population: 3067732, MedianHouseholdIncome: 52528},
	{Code: "DE", Name: "Delaware", Region: RegionSouth, Population: 1031890, MedianHouseholdIncome: 79325},
	{Code: "FL", Name: "Florida", Region: RegionSouth, Population: 22610726, MedianHouseholdIncome: 63062},
	{Code: "GA", Name: "Georgia", Region: RegionSouth, Population: 11029227, MedianHouseholdIncome: 66559},
	{Code: "KY", Name: "Kentucky", Region: RegionSouth, Population: 4512310, MedianHouseholdIncome: 58206},
	{Code: "LA", Name: "Louisiana", Region: RegionSouth, Population: 4573749, MedianHouseholdIncome: 54622},
	{Code: "MD", Name: "Maryland", Region: RegionSouth, Population: 6164660, MedianHouseholdIncome: 94991},
	{Code: "MS", Name: "Mississippi", Region: RegionSouth, Population: 2939690, MedianHouseholdIncome: 49111},
	{Code: "NC", Name: "North Carolina", Region: RegionSouth, Population: 10835491, MedianHouseholdIncome: 63472},
	{Code: "OK", Name: "Oklahoma", Region: RegionSouth, Population: 4053824, MedianHouseholdIncome: 57826},
	{Code: "SC", Name: "South Carolina", Region: RegionSouth, Population: 5373555, MedianHouseholdIncome: 61100},
	{Code: "TN", Name: "Tennessee", Region: RegionSouth, Population: 7126489, MedianHouseholdIncome: 61929},
	{Code: "TX", Name: "Texas", Region: RegionSouth, Population: 30503301, MedianHouseholdIncome: 66963},
	{Code: "VA", Name: "Virginia", Region: RegionSouth, Population: 8715698, MedianHouseholdIncome: 80268},
	{Code: "WV", Name: "West Virginia", Region: RegionSouth, Population: 1770071, MedianHouseholdIncome: 51248},

	{Code: "IL", Name: "Illinois", Region: RegionMidwest, Population: 12549689, MedianHouseholdIncome: 72205},
	{Code: "IN", Name: "Indiana", Region: RegionMidwest, Population: 6862199, MedianHouseholdIncome: 62743},
	{Code: "IA", Name: "Iowa", Region: RegionMidwest, Population: 3207004, MedianHouseholdIncome: 65429},
	{Code: "KS", Name: "Kansas", Region: RegionMidwest, Population: 2940546, MedianHouseholdIncome: 64521},
	{Code: "MI", Name: "Michigan", Region: RegionMidwest, Population: 10037261, MedianHouseholdIncome: 63202},
	{Code: "MN", Name: "Minnesota", Region: RegionMidwest, Population: 5737915, MedianHouseholdIncome: 77720},
	{Code: "MO", Name: "Missouri", Region: RegionMidwest, Population: 6196156, MedianHouseholdIncome: 61043},
	{Code: "NE", Name: "Nebraska", Region: RegionMidwest, Population: 1978379, MedianHouseholdIncome: 66644},
	{Code: "ND", Name: "North Dakota", Region: RegionMidwest, Population: 783926, MedianHouseholdIncome: 68882},
	{Code: "OH", Name: "Ohio", Region: RegionMidwest, Population: 11785935, MedianHouseholdIncome: 62262},
	{Code: "SD", Name: "South Dakota", Region: RegionMidwest, Population: 919318, MedianHouseholdIncome: 63920},
	{Code: "WI", Name: "Wisconsin", Region: RegionMidwest, Population: 5910955, MedianHouseholdIncome: 67125},

	{Code: "AK", Name: "Alaska", Region: RegionWest, Population: 733406, MedianHouseholdIncome: 80287},
	{Code: "AZ", Name: "Arizona", Region: RegionWest, Population: 7431344, MedianHouseholdIncome: 65913},
	{Code: "CA", Name: "California", Region: RegionWest, Population: 38965193, MedianHouseholdIncome: 84097},
	{Code: "CO", Name: "Colorado", Region: RegionWest, Population: 5877610, MedianHouseholdIncome: 82254},
	{Code: "HI", Name: "Hawaii", Region: RegionWest, Population: 1435138, MedianHouseholdIncome: 88005},
	{Code: "ID", Name: "Idaho", Region: RegionWest, Population: 1964726, MedianHouseholdIncome: 63377},
	{Code: "MT", Name: "Montana", Region: RegionWest, Population: 1122867, MedianHouseholdIncome: 60560},
	{Code: "NV", Name: "Nevada", Region: RegionWest, Population: 3194176, MedianHouseholdIncome: 67276},
	{Code: "NM", Name: "New Mexico", Region: RegionWest, Population: 2114371, MedianHouseholdIncome: 54384},
	{Code: "OR", Name: "Oregon", Region: RegionWest, Population: 4233358, MedianHouseholdIncome: 71562},
	{Code: "UT", Name: "Utah", Region: RegionWest, Population: 3417734, MedianHouseholdIncome: 79133},
	{Code: "WA", Name: "Washington", Region: RegionWest, Population: 7812880, MedianHouseholdIncome: 84247},
	{Code: "WY", Name: "Wyoming", Region: RegionWest, Population: 584057, MedianHouseholdIncome: 68002},
}
