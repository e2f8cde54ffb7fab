package model

// AppError is the only error payload produced by the migration stages.
// Every stage error type (servlist, files, migrate, settings) wraps one.
type AppError struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Stage   string `json:"stage" yaml:"stage"`

	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`       // 1-based; 0 means "not set"
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"` // <= 200 chars
	Hint    string `json:"hint,omitempty" yaml:"hint,omitempty"`
}
