package ember

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// RouteManifestCORS is the declarative form of a CORSDescriptor, read from
// a route manifest file.
type RouteManifestCORS struct {
	AllowAllOrigins bool     `yaml:"allow_all_origins" mapstructure:"allow_all_origins"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods  []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders  []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}

// RouteManifestEntry is one declared route: a pattern, the methods it
// answers, and an optional CORS descriptor. The handler itself is supplied
// separately at Apply time, keyed by pattern, since a manifest file cannot
// carry executable code.
type RouteManifestEntry struct {
	Pattern string             `yaml:"pattern" mapstructure:"pattern"`
	Methods []string           `yaml:"methods" mapstructure:"methods"`
	CORS    *RouteManifestCORS `yaml:"cors" mapstructure:"cors"`
}

// RouteManifest is the decoded form of a routes.yaml file: a flat list of
// route declarations an application can register against a Router without
// hand-writing each Router.Register call.
type RouteManifest struct {
	Routes []RouteManifestEntry `yaml:"routes" mapstructure:"routes"`
}

// LoadRouteManifest reads and decodes the YAML route manifest at path in
// two steps: unmarshal into a generic map, then mapstructure.Decode into
// the typed form, so unrecognized top-level keys are tolerated rather
// than rejected by strict struct tags.
func LoadRouteManifest(path string) (*RouteManifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	m := map[string]interface{}{}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}

	var manifest RouteManifest
	if err := mapstructure.Decode(m, &manifest); err != nil {
		return nil, err
	}

	return &manifest, nil
}

// Apply registers every entry in man against router, resolving each entry's
// handler from handlers by pattern. A pattern with no matching handler is a
// programmer error and panics, consistent with Router.Register's own
// fail-fast contract for misconfigured routes.
func (man *RouteManifest) Apply(router *Router, handlers map[string]Handler) {
	for _, entry := range man.Routes {
		h, ok := handlers[entry.Pattern]
		if !ok {
			panic(fmt.Sprintf("ember: no handler registered for manifest pattern %q", entry.Pattern))
		}

		var cors *CORSDescriptor
		if entry.CORS != nil {
			cors = &CORSDescriptor{
				AllowAllOrigins: entry.CORS.AllowAllOrigins,
				AllowedOrigins:  entry.CORS.AllowedOrigins,
				AllowedMethods:  entry.CORS.AllowedMethods,
				AllowedHeaders:  entry.CORS.AllowedHeaders,
			}
		}

		router.Register(entry.Pattern, h, entry.Methods, cors)
	}
}
