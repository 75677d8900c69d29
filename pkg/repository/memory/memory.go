package memory

import (
	"github.com/secmon-lab/idconsole/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	identity *identityRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		identity: newIdentityRepository(),
	}
}

func (m *Memory) Identity() interfaces.IdentityRepository {
	return m.identity
}

// Close is a no-op for the in-memory backend
func (m *Memory) Close() error {
	return nil
}
