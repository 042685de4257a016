package cdndetect

// Rule pairs a header whose presence identifies a CDN with the header
// carrying that CDN's cache status.
type Rule struct {
	Detect string
	Status string
}

// Rules are tried in order; the first present Detect header wins.
// Generic headers like x-cache come last so vendor-specific ones take priority.
var Rules = []Rule{
	// Cloudflare
	{"cf-ray", "cf-cache-status"},
	// CloudFront
	{"x-amz-cf-id", "x-cache"},
	// NitroPack
	{"x-nitro-cache", "x-nitro-cache"},
	{"x-nitro-cache-from", "x-nitro-cache"},
	{"x-nitro-rev", "x-nitro-cache"},
	// RabbitLoader
	{"x-rl-cache", "x-rl-cache"},
	{"x-rl-mode", "x-rl-cache"},
	{"x-rl-modified", "x-rl-cache"},
	{"x-rl-rule", "x-rl-cache"},
	// Azure Front Door
	{"x-azure-ref", "x-cache"},
	{"x-azure-fdid", "x-cache"},
	{"x-azure-clientip", "x-cache"},
	{"x-azure-socketip", "x-cache"},
	{"x-azure-requestchain", "x-cache"},
	// Akamai
	{"x-akamai-request-id", "x-cache"},
	{"x-cache-remote", "x-cache"},
	{"x-true-cache-key", "x-cache"},
	{"x-cache-key", "x-cache"},
	{"x-serial", "x-cache"},
	{"x-akamai-edgescape", "x-cache"},
	{"x-check-cacheable", "x-cache"},
	// Vercel
	{"x-vercel-cache", "x-vercel-cache"},
	{"x-vercel-id", "x-vercel-cache"},
	// Sakura Web Accelerator
	{"x-webaccel-origin-status", "x-cache"},
	// Bunny
	{"cdn-pullzone", "cdn-cache"},
	{"cdn-uid", "cdn-cache"},
	{"cdn-requestid", "cdn-cache"},
	// Alibaba Cloud
	{"eagleid", "x-cache"},
	{"x-swift-savetime", "x-cache"},
	{"x-swift-cachetime", "x-cache"},
	// CDNetworks
	{"x-cnc-request-id", "x-cache"},
	// KeyCDN
	{"x-pull", "x-cache"},
	{"x-edge-location", "x-cache"},
	// Fastly and generic
	{"x-cache", "x-cache"},
	{"x-served-by", "x-cache"},
	{"x-fastly-request-id", "x-cache"},
}

// Fallback is a heuristic applied after the rule table.
// It triggers when Field contains Contains (case-insensitive), or, with an
// empty Contains, when Field is present at all. A triggered fallback
// replaces the detected header and takes its cache status from the first
// present StatusHeaders entry.
type Fallback struct {
	Field         string
	Contains      string
	StatusHeaders []string
	// NonEmptyStatus leaves the previous status alone when the found status is empty.
	NonEmptyStatus bool
}

// Fallbacks are all applied, in order; a later one overrides an earlier match.
var Fallbacks = []Fallback{
	// Google Cloud CDN / Media CDN
	{Field: "server", Contains: "google-edge-cache", StatusHeaders: []string{"cdn-cache-status", "cdn_cache_status"}, NonEmptyStatus: true},
	// Google Cloud CDN custom header
	{Field: "cdn_cache_status", StatusHeaders: []string{"cdn_cache_status"}},
	{Field: "server", Contains: "vercel", StatusHeaders: []string{"x-vercel-cache"}},
	{Field: "server", Contains: "bunnycdn", StatusHeaders: []string{"cdn-cache"}},
	// Alibaba Cloud
	{Field: "server", Contains: "tengine", StatusHeaders: []string{"x-cache"}},
	// Azure Front Door
	{Field: "via", Contains: "azure", StatusHeaders: []string{"x-cache"}},
}
