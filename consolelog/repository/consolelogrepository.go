package repository

import (
	"sync"

	"github.com/blutspende/logrelay/consolelog/model"

	"github.com/rs/zerolog/log"
)

const DefaultSize = 100

type ConsoleLogRepository interface {
	CreateConsoleLog(entry model.LogEntry)
	LoadConsoleLogs() []model.LogEntry
	Clear()
	Count() int
}

// ConsoleLogStorage keeps the most recent entries in arrival order, evicting the oldest one when full
type ConsoleLogStorage struct {
	mutex       *sync.Mutex
	consoleLogs []model.LogEntry
	size        int
}

func NewConsoleLogRepository(size int) ConsoleLogRepository {
	log.Trace().Msg("Creating new console log repository")
	if size <= 0 {
		size = DefaultSize
	}
	return &ConsoleLogStorage{
		mutex:       &sync.Mutex{},
		consoleLogs: make([]model.LogEntry, 0, size),
		size:        size,
	}
}

func (s *ConsoleLogStorage) CreateConsoleLog(entry model.LogEntry) {
	log.Trace().Str("id", entry.ID).Msg("Saving console log")
	s.store(entry)
}

func (s *ConsoleLogStorage) LoadConsoleLogs() []model.LogEntry {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	consoleLogEntries := make([]model.LogEntry, len(s.consoleLogs))
	copy(consoleLogEntries, s.consoleLogs)
	return consoleLogEntries
}

func (s *ConsoleLogStorage) Clear() {
	s.mutex.Lock()
	s.consoleLogs = make([]model.LogEntry, 0, s.size)
	s.mutex.Unlock()
}

func (s *ConsoleLogStorage) Count() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.consoleLogs)
}

func (s *ConsoleLogStorage) store(entry model.LogEntry) {
	s.mutex.Lock()
	if len(s.consoleLogs) == s.size {
		copy(s.consoleLogs, s.consoleLogs[1:])
		s.consoleLogs[s.size-1] = entry
	} else {
		s.consoleLogs = append(s.consoleLogs, entry)
	}
	s.mutex.Unlock()
}
