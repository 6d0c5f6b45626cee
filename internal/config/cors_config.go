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

func allowedOrigins() AllowedOrigins {
	origins := AllowedOrigins{}
	for _, origin := range strings.Split(GetEnv("CORS_ALLOWED_ORIGINS", "*"), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins[origin] = nullValue{}
		}
	}
	return origins
}

func (Cors) GetAllowedOrigins() AllowedOrigins {
	return allowedOrigins()
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization"
}
