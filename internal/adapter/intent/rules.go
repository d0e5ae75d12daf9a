package intent

// rule tables are immutable after initialisation and process-wide (
// "global state"): single-word entries are checked against tokenized input,
// multi-word entries against a substring match on the normalized prompt.

type rule struct {
	pattern string
	label   string
}

var protocolRules = []rule{
	{"smtp", "smtp"}, {"mail", "smtp"}, {"email", "smtp"}, {"mta", "smtp"},
	{"http", "http"}, {"web", "http"}, {"rest", "http"}, {"api", "http"},
	{"redis", "redis"}, {"cache", "redis"}, {"key-value", "redis"}, {"kv", "redis"},
	{"ftp", "ftp"}, {"file transfer", "ftp"},
	{"dns", "dns"}, {"domain name", "dns"}, {"nameserver", "dns"},
}

var templateRules = []rule{
	{"server", "tcp_server"}, {"daemon", "tcp_server"}, {"service", "tcp_server"},
	{"rest api", "rest_api"}, {"restful", "rest_api"}, {"crud", "rest_api"}, {"endpoints", "rest_api"},
	{"http server", "http_server"}, {"web server", "http_server"},
	{"proxy", "proxy"}, {"reverse proxy", "proxy"}, {"load balancer", "proxy"},
	{"echo", "echo_server"}, {"ping", "echo_server"},
}

var featureRules = []rule{
	{"tls", "tls"}, {"ssl", "tls"}, {"secure", "tls"}, {"encrypted", "tls"}, {"https", "tls"},
	{"auth", "authentication"}, {"authentication", "authentication"}, {"login", "authentication"}, {"user", "authentication"},
	{"validation", "validation"}, {"validate", "validation"}, {"verify", "validation"},
	{"logging", "logging"}, {"log", "logging"},
	{"database", "database"}, {"db", "database"}, {"sqlite", "database"}, {"persistence", "database"},
	{"rate limit", "rate_limiting"}, {"throttle", "rate_limiting"},
	{"json", "json"}, {"xml", "xml"},
	{"cors", "cors"}, {"cross-origin", "cors"},
}

const (
	defaultTemplate      = "tcp_server"
	defaultTemplateScore = 0.3
)
