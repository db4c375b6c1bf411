package nation

// country is one row of the location table. Aliases are matched at country
// level, cities (and regions) at city level. Bare two-letter codes are not
// matched: US state abbreviations collide with them ("IL", "IN", "CA").
type country struct {
	Code    string
	Name    string
	Aliases []string
	Cities  []string
}

var countries = []country{
	{"US", "United States", []string{"united states", "united states of america", "usa", "us", "america"},
		[]string{"california", "new york", "nyc", "san francisco", "sf bay area", "bay area", "seattle", "boston", "austin", "chicago",
			"los angeles", "texas", "washington", "portland", "denver", "atlanta", "miami", "san diego", "silicon valley",
			"mountain view", "palo alto", "san jose", "brooklyn", "philadelphia", "pittsburgh", "massachusetts", "colorado",
			"oregon", "virginia", "north carolina", "minneapolis", "detroit", "salt lake city", "florida", "redmond",
			"new mexico", "new england", "new jersey"}},
	{"CN", "China", []string{"china", "prc", "people's republic of china", "中国"},
		[]string{"beijing", "shanghai", "guangzhou", "shenzhen", "hangzhou", "chengdu", "nanjing", "wuhan", "xi'an", "xian",
			"suzhou", "tianjin", "chongqing", "xiamen", "北京", "上海", "深圳", "杭州", "广州"}},
	{"IN", "India", []string{"india", "bharat"},
		[]string{"bangalore", "bengaluru", "mumbai", "delhi", "new delhi", "hyderabad", "chennai", "pune", "kolkata",
			"noida", "gurgaon", "gurugram", "ahmedabad", "kerala", "jaipur"}},
	{"GB", "United Kingdom", []string{"united kingdom", "uk", "great britain", "britain", "england", "scotland", "wales", "northern ireland"},
		[]string{"london", "manchester", "edinburgh", "glasgow", "bristol", "birmingham", "leeds", "oxford", "belfast", "cardiff", "brighton"}},
	{"DE", "Germany", []string{"germany", "deutschland"},
		[]string{"berlin", "munich", "münchen", "muenchen", "hamburg", "frankfurt", "cologne", "köln", "stuttgart", "düsseldorf", "dusseldorf", "leipzig", "dresden"}},
	{"FR", "France", []string{"france"},
		[]string{"paris", "lyon", "marseille", "toulouse", "bordeaux", "lille", "nantes", "grenoble", "nice"}},
	{"CA", "Canada", []string{"canada"},
		[]string{"toronto", "vancouver", "montreal", "montréal", "ottawa", "calgary", "waterloo", "ontario", "quebec", "british columbia"}},
	{"JP", "Japan", []string{"japan", "日本"},
		[]string{"tokyo", "osaka", "kyoto", "yokohama", "fukuoka", "nagoya", "sapporo", "東京"}},
	{"KR", "South Korea", []string{"south korea", "korea", "republic of korea", "한국"},
		[]string{"seoul", "busan", "incheon", "seongnam", "pangyo", "서울"}},
	{"BR", "Brazil", []string{"brazil", "brasil"},
		[]string{"são paulo", "sao paulo", "rio de janeiro", "belo horizonte", "curitiba", "porto alegre", "florianópolis", "florianopolis", "brasília", "brasilia", "recife"}},
	{"RU", "Russia", []string{"russia", "russian federation", "россия"},
		[]string{"moscow", "saint petersburg", "st petersburg", "novosibirsk", "kazan", "yekaterinburg", "москва"}},
	{"AU", "Australia", []string{"australia"},
		[]string{"sydney", "melbourne", "brisbane", "perth", "adelaide", "canberra", "new south wales", "queensland", "tasmania"}},
	{"NL", "Netherlands", []string{"netherlands", "the netherlands", "holland"},
		[]string{"amsterdam", "rotterdam", "utrecht", "the hague", "eindhoven", "delft"}},
	{"ES", "Spain", []string{"spain", "españa", "espana"},
		[]string{"madrid", "barcelona", "valencia", "seville", "sevilla", "bilbao", "málaga", "malaga"}},
	{"IT", "Italy", []string{"italy", "italia"},
		[]string{"rome", "roma", "milan", "milano", "turin", "torino", "naples", "florence", "bologna"}},
	{"SE", "Sweden", []string{"sweden", "sverige"},
		[]string{"stockholm", "gothenburg", "göteborg", "malmö", "malmo", "uppsala"}},
	{"CH", "Switzerland", []string{"switzerland", "schweiz", "suisse"},
		[]string{"zurich", "zürich", "geneva", "genève", "basel", "lausanne", "bern"}},
	{"PL", "Poland", []string{"poland", "polska"},
		[]string{"warsaw", "warszawa", "krakow", "kraków", "wroclaw", "wrocław", "gdansk", "gdańsk", "poznan", "poznań"}},
	{"UA", "Ukraine", []string{"ukraine", "україна"},
		[]string{"kyiv", "kiev", "kharkiv", "lviv", "odesa", "odessa", "dnipro"}},
	{"IL", "Israel", []string{"israel"},
		[]string{"tel aviv", "jerusalem", "haifa"}},
	{"SG", "Singapore", []string{"singapore"}, nil},
	{"TW", "Taiwan", []string{"taiwan", "台灣", "台湾"},
		[]string{"taipei", "hsinchu", "taichung", "kaohsiung"}},
	{"HK", "Hong Kong", []string{"hong kong", "香港"}, nil},
	{"ID", "Indonesia", []string{"indonesia"},
		[]string{"jakarta", "bandung", "surabaya", "yogyakarta", "bali"}},
	{"VN", "Vietnam", []string{"vietnam", "viet nam"},
		[]string{"hanoi", "ha noi", "ho chi minh city", "saigon", "da nang"}},
	{"TR", "Turkey", []string{"turkey", "türkiye", "turkiye"},
		[]string{"istanbul", "ankara", "izmir"}},
	{"MX", "Mexico", []string{"mexico", "méxico"},
		[]string{"mexico city", "guadalajara", "monterrey", "cdmx"}},
	{"AR", "Argentina", []string{"argentina"},
		[]string{"buenos aires", "córdoba", "rosario"}},
	{"NG", "Nigeria", []string{"nigeria"},
		[]string{"lagos", "abuja", "ibadan"}},
	{"EG", "Egypt", []string{"egypt"},
		[]string{"cairo", "alexandria"}},
	{"ZA", "South Africa", []string{"south africa"},
		[]string{"cape town", "johannesburg", "pretoria", "durban"}},
	{"KE", "Kenya", []string{"kenya"},
		[]string{"nairobi", "mombasa"}},
	{"PK", "Pakistan", []string{"pakistan"},
		[]string{"karachi", "lahore", "islamabad", "rawalpindi"}},
	{"BD", "Bangladesh", []string{"bangladesh"},
		[]string{"dhaka", "chittagong"}},
	{"IR", "Iran", []string{"iran"},
		[]string{"tehran", "isfahan", "shiraz"}},
	{"NZ", "New Zealand", []string{"new zealand", "aotearoa"},
		[]string{"auckland", "wellington", "christchurch"}},
	{"IE", "Ireland", []string{"ireland", "éire"},
		[]string{"dublin", "cork", "galway"}},
	{"PT", "Portugal", []string{"portugal"},
		[]string{"lisbon", "lisboa", "porto", "braga"}},
	{"AT", "Austria", []string{"austria", "österreich"},
		[]string{"vienna", "wien", "graz", "linz", "salzburg"}},
	{"BE", "Belgium", []string{"belgium", "belgique", "belgië"},
		[]string{"brussels", "bruxelles", "antwerp", "ghent", "leuven"}},
	{"DK", "Denmark", []string{"denmark", "danmark"},
		[]string{"copenhagen", "københavn", "aarhus"}},
	{"NO", "Norway", []string{"norway", "norge"},
		[]string{"oslo", "bergen", "trondheim"}},
	{"FI", "Finland", []string{"finland", "suomi"},
		[]string{"helsinki", "espoo", "tampere", "oulu"}},
	{"CZ", "Czechia", []string{"czechia", "czech republic"},
		[]string{"prague", "praha", "brno"}},
	{"RO", "Romania", []string{"romania"},
		[]string{"bucharest", "cluj napoca", "cluj", "iasi", "timisoara"}},
	{"GR", "Greece", []string{"greece"},
		[]string{"athens", "thessaloniki"}},
	{"PH", "Philippines", []string{"philippines"},
		[]string{"manila", "cebu", "quezon city", "makati"}},
	{"TH", "Thailand", []string{"thailand"},
		[]string{"bangkok", "chiang mai"}},
	{"MY", "Malaysia", []string{"malaysia"},
		[]string{"kuala lumpur", "penang", "johor bahru"}},
	{"CO", "Colombia", []string{"colombia"},
		[]string{"bogota", "bogotá", "medellin", "medellín", "cali"}},
	{"CL", "Chile", []string{"chile"},
		[]string{"santiago"}},
	{"AE", "United Arab Emirates", []string{"united arab emirates", "uae"},
		[]string{"dubai", "abu dhabi"}},
}

// usStates are the US postal abbreviations that are not also ISO country
// codes. They only count as the last comma-separated part of a location.
var usStates = map[string]bool{
	"ak": true, "ct": true, "dc": true, "fl": true, "hi": true, "ia": true, "ks": true,
	"mi": true, "nd": true, "nh": true, "nj": true, "nm": true, "nv": true, "ny": true,
	"oh": true, "ok": true, "or": true, "ri": true, "sd": true, "tx": true, "ut": true,
	"vt": true, "wa": true, "wi": true, "wv": true, "wy": true,
}
