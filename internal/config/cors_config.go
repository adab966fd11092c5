package config

import "strings"

type Cors struct{}

var _ CorsConfig = Cors{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

// Origins are configured per deployment; the broker itself works with any
// initiating frontend origin, so the default is permissive.
func (Cors) GetAllowedOrigins() AllowedOrigins {
	origins := AllowedOrigins{}
	for _, o := range strings.Split(GetEnv("ALLOWED_ORIGINS", "*"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins[o] = nullValue{}
		}
	}
	return origins
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization"
}
