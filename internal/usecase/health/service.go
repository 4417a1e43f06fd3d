package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results and engine identity.
type Report struct {
	Status             Status
	Checks             map[string]CheckResult
	EmbeddingModel     string
	EmbeddingProvider  string
	DefaultIndexLoaded bool
	Warning            string
}

// Service coordinates health checks.
type Service struct {
	embedding         EmbeddingChecker
	cache             CachePinger
	indexes           IndexStats
	embeddingModel    string
	embeddingProvider string
	defaultUserID     string
}

// New creates a Service. embedding and cache can be nil.
func New(
	embedding EmbeddingChecker,
	cache CachePinger,
	indexes IndexStats,
	embeddingModel, embeddingProvider, defaultUserID string,
) *Service {
	return &Service{
		embedding:         embedding,
		cache:             cache,
		indexes:           indexes,
		embeddingModel:    embeddingModel,
		embeddingProvider: embeddingProvider,
		defaultUserID:     defaultUserID,
	}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	warning := ""

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
			warning = "embedding provider unreachable"
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
			if warning == "" {
				warning = "embedding cache unreachable"
			}
		} else {
			checks["cache"] = CheckOK
		}
	}

	defaultLoaded := false
	docs, _, err := s.indexes.Stats(s.defaultUserID)
	switch {
	case err != nil:
		checks["default_index"] = CheckError
		if warning == "" {
			warning = "default index unreadable"
		}
	case docs > 0:
		defaultLoaded = true
		checks["default_index"] = CheckOK
	default:
		checks["default_index"] = CheckOK
		if warning == "" {
			warning = "default index is empty"
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{
		Status:             status,
		Checks:             checks,
		EmbeddingModel:     s.embeddingModel,
		EmbeddingProvider:  s.embeddingProvider,
		DefaultIndexLoaded: defaultLoaded,
		Warning:            warning,
	}
}
