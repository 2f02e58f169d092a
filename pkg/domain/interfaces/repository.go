package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	DocumentCache() DocumentCacheRepository
	Report() ReportRepository

	Close() error
}
