package state

// entry ties the three code spaces of one state together.
type entry struct {
	code    int
	abbrev  string
	federal int
}

// table lists the states (and the District of Columbia) in compact-code
// order: alphabetical by full name, starting at 1.
var table = [...]entry{
	{1, "AL", 1},
	{2, "AK", 2},
	{3, "AZ", 4},
	{4, "AR", 5},
	{5, "CA", 6},
	{6, "CO", 8},
	{7, "CT", 9},
	{8, "DE", 10},
	{9, "DC", 11},
	{10, "FL", 12},
	{11, "GA", 13},
	{12, "HI", 15},
	{13, "ID", 16},
	{14, "IL", 17},
	{15, "IN", 18},
	{16, "IA", 19},
	{17, "KS", 20},
	{18, "KY", 21},
	{19, "LA", 22},
	{20, "ME", 23},
	{21, "MD", 24},
	{22, "MA", 25},
	{23, "MI", 26},
	{24, "MN", 27},
	{25, "MS", 28},
	{26, "MO", 29},
	{27, "MT", 30},
	{28, "NE", 31},
	{29, "NV", 32},
	{30, "NH", 33},
	{31, "NJ", 34},
	{32, "NM", 35},
	{33, "NY", 36},
	{34, "NC", 37},
	{35, "ND", 38},
	{36, "OH", 39},
	{37, "OK", 40},
	{38, "OR", 41},
	{39, "PA", 42},
	{40, "RI", 44},
	{41, "SC", 45},
	{42, "SD", 46},
	{43, "TN", 47},
	{44, "TX", 48},
	{45, "UT", 49},
	{46, "VT", 50},
	{47, "VA", 51},
	{48, "WA", 53},
	{49, "WV", 54},
	{50, "WI", 55},
	{51, "WY", 56},
}
