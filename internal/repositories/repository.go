package repositories

import "context"

// Repository aggregates the per-domain repositories.
type Repository interface {
	Trail() TrailRepository
	Question() QuestionRepository
	Attempt() AttemptRepository
	Project() ProjectRepository
	Progress() ProgressRepository

	// User data is owned by Casdoor; this is a read-only view.
	User() UserRepository

	// WithTransaction runs fn with a Repository whose database calls
	// share one transaction.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
