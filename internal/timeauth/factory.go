package timeauth

// DefaultHosts is the ordered list of HTTPS time authorities.
var DefaultHosts = []string{
	"time.apple.com",
	"time.google.com",
	"pool.ntp.org",
}

// NewAuthorities builds the ordered authority chain: one HTTPDateAuthority
// per host, followed by the drand beacon when withDrand is set.
// A nil client uses the build's default transport.
func NewAuthorities(hosts []string, withDrand bool, client HTTPDoer) []Authority {
	if client == nil {
		client = defaultHTTPDoer()
	}

	authorities := make([]Authority, 0, len(hosts)+1)
	for _, h := range hosts {
		authorities = append(authorities, NewHTTPDateAuthority(h, client))
	}
	if withDrand {
		authorities = append(authorities, NewDefaultDrandAuthority())
	}
	return authorities
}
