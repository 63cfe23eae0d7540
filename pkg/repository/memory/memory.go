package memory

import (
	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	directory *directoryRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		directory: newDirectoryRepository(),
	}
}

func (m *Memory) Directory() interfaces.DirectoryRepository {
	return m.directory
}

func (m *Memory) Close() error {
	return nil
}
