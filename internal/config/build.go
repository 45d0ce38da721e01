package config

import (
	relayerr "github.com/tturner/simbridge/internal/errors"
	"github.com/tturner/simbridge/internal/family"
	"github.com/tturner/simbridge/internal/logging"
	"github.com/tturner/simbridge/internal/pdu"
	"github.com/tturner/simbridge/internal/provider"
	"github.com/tturner/simbridge/internal/site"
)

// Limits returns the codec limits for this relay.
func (c *RelayConfig) Limits() family.Limits {
	return family.Limits{Registry: pdu.DefaultRegistry(), MaxSize: c.Relay.MaxPDUBytes}
}

// BuildSites resolves a provider and family for every site entry. Nothing
// is opened; the returned sites are all Down.
func (c *RelayConfig) BuildSites(log *logging.Logger) ([]*site.Site, error) {
	limits := c.Limits()
	sites := make([]*site.Site, 0, len(c.Sites))
	for _, sc := range c.Sites {
		p, err := provider.Resolve(sc.Provider, c.ProviderOptions(sc))
		if err != nil {
			return nil, relayerr.WrapProviderError(err, sc.Name, sc.Provider)
		}
		fam, err := family.Lookup(sc.Family, limits)
		if err != nil {
			return nil, err
		}
		settings, err := SiteSettings(sc)
		if err != nil {
			return nil, err
		}
		s, err := site.New(settings, p, fam, log)
		if err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}
	return sites, nil
}

// SiteNames lists the configured site names in order.
func (c *RelayConfig) SiteNames() []string {
	names := make([]string, len(c.Sites))
	for i, s := range c.Sites {
		names[i] = s.Name
	}
	return names
}
