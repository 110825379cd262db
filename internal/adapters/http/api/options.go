package api

const (
	defaultTopK         = 10
	defaultMaxBodyBytes = 1 << 20
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigins enables CORS for the given origins. No origins leaves CORS
// disabled.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = append(s.corsOrigins, origins...)
	}
}

// WithDefaultTopK sets k for top-K requests that omit it.
func WithDefaultTopK(k int) Option {
	return func(s *Server) {
		if k > 0 {
			s.defaultTopK = k
		}
	}
}

// WithMaxBodyBytes caps request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}
