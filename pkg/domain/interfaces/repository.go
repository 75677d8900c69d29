package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Identity() IdentityRepository

	// Close releases the underlying storage connection
	Close() error
}
