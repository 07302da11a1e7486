package session

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/quasilyte/gdata/v2"

	"github.com/wricardo/lightcycle/game/service"
)

const (
	gdataSessionsObject = "sessions"
	gdataIndexObject    = "index"
	gdataIndexProperty  = "sessions"
)

// GdataPersistence implements SessionPersistence on top of gdata, which
// stores each session as an object property in the per-user data directory
type GdataPersistence struct {
	manager       *gdata.Manager
	configManager service.ConfigManager
	mu            sync.Mutex
}

// NewGdataPersistence opens the gdata store for appName
func NewGdataPersistence(appName string, configManager service.ConfigManager) (*GdataPersistence, error) {
	manager, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gdata store: %w", err)
	}
	return NewGdataPersistenceWithManager(manager, configManager), nil
}

// NewGdataPersistenceWithManager wraps an already opened gdata manager
func NewGdataPersistenceWithManager(manager *gdata.Manager, configManager service.ConfigManager) *GdataPersistence {
	return &GdataPersistence{
		manager:       manager,
		configManager: configManager,
	}
}

// Save persists a session as an object property
func (gp *GdataPersistence) Save(session *service.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}

	gp.mu.Lock()
	defer gp.mu.Unlock()

	id := strings.ToLower(session.ID)
	if err := gp.manager.SaveObjectProp(gdataSessionsObject, id, data); err != nil {
		return fmt.Errorf("failed to save session %s: %w", id, err)
	}

	index, err := gp.loadIndex()
	if err != nil {
		return err
	}
	if !contains(index, id) {
		index = append(index, id)
		if err := gp.saveIndex(index); err != nil {
			return err
		}
	}
	return nil
}

// Load retrieves a session by ID
func (gp *GdataPersistence) Load(id string) (*service.Session, error) {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	id = strings.ToLower(id)
	if !gp.manager.ObjectPropExists(gdataSessionsObject, id) {
		return nil, ErrSessionNotFound
	}

	data, err := gp.manager.LoadObjectProp(gdataSessionsObject, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	return decodeSession(data, gp.configManager)
}

// Delete removes a session and drops it from the index
func (gp *GdataPersistence) Delete(id string) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	id = strings.ToLower(id)
	if !gp.manager.ObjectPropExists(gdataSessionsObject, id) {
		return ErrSessionNotFound
	}

	if err := gp.manager.DeleteObjectProp(gdataSessionsObject, id); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}

	index, err := gp.loadIndex()
	if err != nil {
		return err
	}
	kept := index[:0]
	for _, existing := range index {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	return gp.saveIndex(kept)
}

// ListAll returns all indexed session IDs that still exist
func (gp *GdataPersistence) ListAll() ([]string, error) {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	index, err := gp.loadIndex()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(index))
	for _, id := range index {
		if gp.manager.ObjectPropExists(gdataSessionsObject, id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Exists checks if a session is stored
func (gp *GdataPersistence) Exists(id string) bool {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return gp.manager.ObjectPropExists(gdataSessionsObject, strings.ToLower(id))
}

// loadIndex reads the session ID index. Callers hold gp.mu.
func (gp *GdataPersistence) loadIndex() ([]string, error) {
	if !gp.manager.ObjectPropExists(gdataIndexObject, gdataIndexProperty) {
		return nil, nil
	}
	data, err := gp.manager.LoadObjectProp(gdataIndexObject, gdataIndexProperty)
	if err != nil {
		return nil, fmt.Errorf("failed to load session index: %w", err)
	}
	var index []string
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse session index: %w", err)
	}
	return index, nil
}

// saveIndex writes the session ID index. Callers hold gp.mu.
func (gp *GdataPersistence) saveIndex(index []string) error {
	if index == nil {
		index = []string{}
	}
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal session index: %w", err)
	}
	if err := gp.manager.SaveObjectProp(gdataIndexObject, gdataIndexProperty, data); err != nil {
		return fmt.Errorf("failed to save session index: %w", err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
