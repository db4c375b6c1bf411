package techdomain

// Domain labels.
const (
	Frontend   = "Frontend"
	Backend    = "Backend"
	Mobile     = "Mobile"
	DevOps     = "DevOps"
	AIML       = "AI/ML"
	Security   = "Security"
	Database   = "Database"
	Systems    = "Systems"
	Data       = "Data"
	GameDev    = "GameDev"
	Blockchain = "Blockchain"
)

// Labels lists the whole taxonomy.
var Labels = []string{Frontend, Backend, Mobile, DevOps, AIML, Security, Database, Systems, Data, GameDev, Blockchain}

// languageDomains maps a lower-cased primary language to its domains.
var languageDomains = map[string][]string{
	"javascript":       {Frontend},
	"typescript":       {Frontend},
	"html":             {Frontend},
	"css":              {Frontend},
	"scss":             {Frontend},
	"vue":              {Frontend},
	"svelte":           {Frontend},
	"go":               {Backend},
	"java":             {Backend},
	"python":           {Backend},
	"php":              {Backend},
	"ruby":             {Backend},
	"elixir":           {Backend},
	"erlang":           {Backend},
	"scala":            {Backend, Data},
	"c#":               {Backend, GameDev},
	"kotlin":           {Mobile},
	"swift":            {Mobile},
	"objective-c":      {Mobile},
	"dart":             {Mobile},
	"c":                {Systems},
	"c++":              {Systems},
	"rust":             {Systems},
	"zig":              {Systems},
	"assembly":         {Systems},
	"shell":            {DevOps},
	"dockerfile":       {DevOps},
	"hcl":              {DevOps},
	"nix":              {DevOps},
	"powershell":       {DevOps},
	"jupyter notebook": {AIML, Data},
	"cuda":             {AIML},
	"r":                {Data},
	"julia":            {Data},
	"sql":              {Database},
	"plpgsql":          {Database},
	"tsql":             {Database},
	"solidity":         {Blockchain},
	"move":             {Blockchain},
	"gdscript":         {GameDev},
	"lua":              {GameDev},
	"glsl":             {GameDev},
	"hlsl":             {GameDev},
	"shaderlab":        {GameDev},
}

// topicKeywords maps a domain to keywords matched against topic tokens. A
// hyphenated keyword matches the same run of tokens.
var topicKeywords = map[string][]string{
	Frontend:   {"frontend", "react", "vue", "angular", "svelte", "web", "css", "nextjs", "nuxt", "tailwindcss"},
	Backend:    {"backend", "api", "rest", "graphql", "django", "flask", "fastapi", "spring", "express", "microservices", "grpc", "server"},
	Mobile:     {"mobile", "android", "ios", "flutter", "react-native", "swiftui"},
	DevOps:     {"devops", "docker", "kubernetes", "k8s", "aws", "gcp", "azure", "terraform", "ansible", "cicd", "ci", "helm", "jenkins", "gitops"},
	AIML:       {"machine-learning", "deep-learning", "ml", "ai", "llm", "tensorflow", "pytorch", "nlp", "computer-vision", "neural-network", "transformers"},
	Security:   {"security", "cryptography", "encryption", "penetration", "pentest", "ctf", "vulnerability", "malware"},
	Database:   {"database", "mysql", "postgresql", "postgres", "mongodb", "redis", "elasticsearch", "sql", "sqlite"},
	Systems:    {"kernel", "operating-system", "embedded", "compiler", "rtos", "systems"},
	Data:       {"data-science", "data-engineering", "analytics", "etl", "spark", "pandas", "visualization", "big-data", "bigdata"},
	GameDev:    {"game", "gamedev", "unity", "unreal", "godot", "game-engine"},
	Blockchain: {"blockchain", "ethereum", "web3", "solidity", "smart-contracts", "bitcoin", "defi", "nft"},
}
