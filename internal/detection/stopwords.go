package detection

import "strings"

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// stopwords can never be organization names on their own
var stopwords = wordSet(
	// function words
	"a", "an", "the", "and", "or", "but", "nor", "yet", "so", "if", "while", "although", "though",
	"however", "because", "since", "when", "where", "what", "which", "who", "whom", "why", "how",
	"this", "that", "these", "those", "it", "its", "we", "our", "you", "your", "they", "their",
	"he", "she", "his", "her", "i", "me", "my", "us", "them", "is", "are", "was", "were", "be",
	"been", "being", "has", "have", "had", "do", "does", "did", "will", "would", "can", "could",
	"should", "may", "might", "must", "with", "for", "from", "to", "in", "on", "at", "by", "of",
	"as", "about", "into", "over", "under", "after", "before", "between", "through", "also",
	"here", "there", "yes", "no", "not", "all", "any", "both", "each", "every", "either",
	"neither", "some", "many", "most", "more", "less", "other", "others", "another", "such",
	"then", "than", "too", "very", "just", "only", "even", "still", "now", "new",
	// list scaffolding and sentence openers
	"first", "second", "third", "fourth", "fifth", "next", "last", "finally", "additionally",
	"furthermore", "moreover", "overall", "ultimately", "generally", "typically", "however",
	"instead", "alternatively", "similarly", "consider", "note", "example", "examples",
	"conclusion", "summary", "introduction", "overview", "step", "steps", "tip", "tips",
	"option", "options", "choice", "choices", "pros", "cons", "verdict", "recommendation",
	"recommendations", "considerations", "bottom line",
	// generic business nouns
	"company", "companies", "business", "businesses", "brand", "brands", "product", "products",
	"service", "services", "solution", "solutions", "platform", "platforms", "tool", "tools",
	"software", "app", "apps", "application", "applications", "system", "systems", "provider",
	"providers", "vendor", "vendors", "customer", "customers", "client", "clients", "user",
	"users", "team", "teams", "market", "industry", "enterprise", "enterprises", "startup",
	"startups", "feature", "features", "pricing", "price", "prices", "cost", "costs", "plan",
	"plans", "benefit", "benefits", "support", "integration", "integrations", "marketing",
	"sales", "analytics", "data", "security", "management", "automation", "ai", "api", "crm",
	"erp", "saas", "seo", "roi", "kpi", "faq", "usa", "us", "uk", "eu",
	// calendar words
	"january", "february", "march", "april", "may", "june", "july", "august", "september",
	"october", "november", "december", "monday", "tuesday", "wednesday", "thursday", "friday",
	"saturday", "sunday", "today", "tomorrow", "yesterday",
	// generic headings
	"key features", "key benefits", "best practices", "customer support", "customer service",
	"free trial", "pricing plans", "final thoughts", "in summary", "use cases", "use case",
	"getting started", "how it works", "top picks", "best for", "ease of use",
	"value for money", "small businesses", "large enterprises",
)

// leadingFillers are capitalized sentence openers stripped from the front of a
// captured phrase ("While Salesforce CRM" becomes "Salesforce CRM").
var leadingFillers = wordSet(
	"a", "an", "the", "and", "or", "but", "if", "while", "although", "though", "however",
	"because", "since", "when", "where", "what", "which", "who", "why", "how", "this", "that",
	"these", "those", "it", "its", "we", "our", "you", "your", "they", "their", "i", "my",
	"many", "most", "some", "both", "all", "each", "every", "other", "another", "also",
	"for", "with", "from", "to", "in", "on", "at", "by", "as", "of", "like", "unlike", "versus",
	"vs", "compared", "consider", "try", "use", "using", "choose", "choosing", "popular",
	"leading", "top", "best", "additionally", "finally", "overall", "first", "second", "third",
	"next", "then", "instead", "alternatively", "similarly", "here", "there", "yes", "no",
	"not", "note", "meanwhile", "furthermore", "moreover", "ultimately", "generally",
	"typically", "is", "are", "was", "were", "do", "does", "can", "should", "will",
)

// connectives are never valid normalized forms
var connectives = wordSet(
	"and", "or", "but", "nor", "yet", "so", "the", "of", "for", "with", "to", "in", "on", "at",
	"by", "a", "an", "as", "vs", "versus", "plus", "via", "per",
)

// minorWords stay lower-case inside a title-cased phrase
var minorWords = wordSet("a", "an", "the", "and", "or", "of", "for", "to", "in", "on", "at", "by", "de", "la", "von", "van")

// ctaPhrases are call-to-action boilerplate that shows up in quotes
var ctaPhrases = wordSet(
	"learn more", "click here", "sign up", "sign in", "log in", "login", "get started",
	"read more", "contact us", "contact sales", "try it free", "try for free", "start free trial",
	"free trial", "book a demo", "request a demo", "get a demo", "schedule a demo", "buy now",
	"shop now", "subscribe", "download", "download now", "see pricing", "view pricing",
	"watch video", "find out more", "get a quote", "start now", "join now", "upgrade",
	"add to cart", "checkout", "submit", "next", "back", "continue",
)

// brandCueWords put a candidate in a sentence that talks about a company or product
var brandCueWords = wordSet(
	"offers", "offer", "offering", "provides", "provide", "provider", "platform", "alternative",
	"alternatives", "competitor", "competitors", "competes", "versus", "vs", "tool", "tools",
	"software", "service", "services", "app", "solution", "solutions", "company", "brand",
	"product", "products", "suite", "marketplace", "vendor", "popular", "leading", "known",
	"founded", "acquired", "integrates", "integration", "compared", "rival", "rivals",
	"powered", "choose", "recommend", "recommended", "option", "options", "like", "such",
	"including", "pricing", "plans", "customers", "users", "startup", "brands", "startups",
)

// negativeVerbs right after a phrase mark it as a capability description
// ("Smart Scheduling allows teams to...") rather than a brand
var negativeVerbs = wordSet("allows", "allow", "lets", "let", "enables", "enable", "helps", "help", "makes", "empowers")

// negativeWindow is how many bytes after a candidate are checked for negativeVerbs
const negativeWindow = 24

// defaultAllowList names are accepted without further evidence
var defaultAllowList = []string{
	"Google", "Microsoft", "Amazon", "Apple", "Meta", "Facebook", "Instagram", "LinkedIn",
	"YouTube", "TikTok", "Netflix", "Spotify", "Uber", "Airbnb", "OpenAI", "Anthropic",
	"Salesforce", "HubSpot", "Shopify", "Slack", "Zoom", "Notion", "Asana", "Stripe", "PayPal",
	"Oracle", "SAP", "IBM", "Adobe", "Zendesk", "Mailchimp", "Canva", "Figma", "Trello", "Jira",
	"Atlassian", "Dropbox", "Intercom", "Freshworks", "Pipedrive", "Monday.com", "ClickUp",
	"Airtable", "Workday", "ServiceNow", "Twilio", "Square", "Wix", "Squarespace", "WordPress",
	"GitHub", "GitLab", "Datadog", "Snowflake", "Databricks", "Tableau", "QuickBooks", "Xero",
	"Gusto", "Rippling", "DocuSign", "Calendly", "Semrush", "Ahrefs", "Moz", "Hootsuite",
	"Buffer", "Sprout Social", "Marketo", "Klaviyo", "Brevo", "Constant Contact", "ActiveCampaign",
}

// businessNouns follow a capitalized phrase in extractor rule (c)
const businessNounPattern = `platform|provides|marketplace|software|offers|solution|suite|app|tool|service|services|delivers|specializes|network|cloud`

// competitiveCuePattern precedes a capitalized phrase in extractor rule (a)
const competitiveCuePattern = `versus|vs\.?|alternatives?\s+to|instead\s+of|compared\s+(?:to|with)|competitors?\s+(?:such\s+as|like|including)|rather\s+than|unlike|such\s+as|like|including|switch(?:ing)?\s+(?:from|to)|over`

// trailingCuePattern follows a capitalized phrase in extractor rule (a)
const trailingCuePattern = `vs\.?|versus|alternatives?|competitors?|rivals?`

// corporateSuffixes mark a name as an organization in the heuristic discovery fallback
var corporateSuffixes = wordSet(
	"inc", "inc.", "llc", "ltd", "ltd.", "corp", "corp.", "corporation", "co", "co.", "gmbh",
	"plc", "ag", "sa", "bv", "technologies", "technology", "labs", "software", "systems",
	"group", "holdings", "solutions", "ai", "hq", "io",
)

// genericNameWords are ordinary nouns that show up inside product names
// ("Constant Contact", "Zoom Video Communications") but never name an
// organization on their own
var genericNameWords = wordSet(
	"account", "accounts", "ads", "analytics", "app", "apps", "books", "business", "calendar",
	"calls", "chat", "cloud", "commerce", "communications", "contact", "contacts", "crm", "data",
	"desk", "details", "direct", "docs", "drive", "engagement", "engine", "express", "forms",
	"global", "health", "help", "home", "hub", "mail", "marketing", "meet", "mobile", "new",
	"office", "one", "online", "open", "owners", "pay", "payments", "phone", "platform", "plus",
	"power", "pro", "project", "projects", "quality", "sales", "search", "security", "service",
	"services", "setup", "sheets", "shop", "smart", "social", "software", "store", "studio",
	"suite", "support", "team", "teams", "video", "voice", "web", "work", "workplace",
)

// isGenericName reports a form made only of stopwords and generic name words
func isGenericName(s string) bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return !isWordRune(r) })
	if len(words) == 0 {
		return true
	}
	for _, w := range words {
		_, generic := genericNameWords[w]
		_, stop := stopwords[w]
		if !generic && !stop {
			return false
		}
	}
	return true
}

// isStopword reports a generic word or heading, ignoring case and surrounding space
func isStopword(s string) bool {
	_, ok := stopwords[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

func isConnective(s string) bool {
	_, ok := connectives[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

func isCTA(s string) bool {
	_, ok := ctaPhrases[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
