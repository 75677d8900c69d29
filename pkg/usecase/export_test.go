package usecase

// ConnectionMessage is exported for testing
var ConnectionMessage = connectionMessage

// ParseCreatedAt is exported for testing
var ParseCreatedAt = parseCreatedAt
