// Package session manages editor sessions and the document loaded in each.
//
// Types:
//   - Session: Holds one loaded document, its annotation controller, the
//     renderer caching its images, and the files written for it.
//   - SessionManager: Manages all active sessions.
//
// Expected outputs:
// - Session IDs are unique (UUID)
// - Loading a file replaces the previous document and its edits
// - Results computed for a replaced document are rejected with ErrStale
// - Cleanup removes all files for a session
//
// Used by API handlers to manage user state.
package session

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"go-editpdf/internal/canvas"
	"go-editpdf/internal/export"
	"go-editpdf/internal/render"
	"go-editpdf/internal/utils"
)

var (
	ErrNoDocument = errors.New("no file loaded")
	ErrStale      = errors.New("file was replaced")
)

// Document is a loaded source file.
type Document struct {
	Path      string
	Name      string
	PageCount int
	Pages     export.Document
}

type Session struct {
	ID         string
	Files      []string
	OutputFile string
	OutputName string
	CreatedAt  time.Time
	LastActive time.Time
	Mutex      sync.Mutex

	doc        *Document
	controller *canvas.Controller
	renderer   *render.Renderer
	generation uint64
}

// Load opens path with r and makes it the session's document, replacing
// any previous one together with its edits. On failure the session is left
// with no file loaded. The returned generation identifies this document.
func (s *Session) Load(ctx context.Context, r export.Rasterizer, path, name string, cfg canvas.Config) (uint64, error) {
	pages, openErr := r.Open(ctx, path)
	var renderer *render.Renderer
	if openErr == nil {
		var err error
		if renderer, err = render.New(); err != nil {
			pages.Close()
			openErr = err
		}
	}

	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.generation++
	s.closeDocument()
	if openErr != nil {
		return 0, openErr
	}

	if cfg.Stamp == nil {
		cfg.Stamp = render.Checkmark
	}
	onDelete := cfg.OnDelete
	cfg.OnDelete = func(id string) {
		renderer.Forget(id)
		if onDelete != nil {
			onDelete(id)
		}
	}
	onChange := cfg.OnChange
	cfg.OnChange = func(snap canvas.Snapshot) {
		s.touch()
		if onChange != nil {
			onChange(snap)
		}
	}
	s.doc = &Document{Path: path, Name: name, PageCount: pages.PageCount(), Pages: pages}
	s.renderer = renderer
	s.controller = canvas.New(pages.PageCount(), cfg)
	return s.generation, nil
}

// touch marks the session active. Controller changes call it, so editing
// keeps a session from being reaped.
func (s *Session) touch() {
	s.Mutex.Lock()
	s.LastActive = time.Now()
	s.Mutex.Unlock()
}

// Discard drops the loaded document and its edits.
func (s *Session) Discard() {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.generation++
	s.closeDocument()
}

func (s *Session) closeDocument() {
	if s.doc != nil {
		s.doc.Pages.Close()
	}
	s.doc = nil
	s.controller = nil
	s.renderer = nil
}

// Editor returns the current document, its controller and renderer, and the
// generation they belong to.
func (s *Session) Editor() (*Document, *canvas.Controller, *render.Renderer, uint64, error) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	if s.doc == nil {
		return nil, nil, nil, s.generation, ErrNoDocument
	}
	return s.doc, s.controller, s.renderer, s.generation, nil
}

// Current returns the controller if gen still names the loaded document.
// Work started before a reload or discard gets ErrStale.
func (s *Session) Current(gen uint64) (*canvas.Controller, error) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	if gen != s.generation {
		return nil, ErrStale
	}
	if s.controller == nil {
		return nil, ErrNoDocument
	}
	return s.controller, nil
}

func (s *Session) AddFile(path string) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.Files = append(s.Files, path)
}

// SetOutput records path as the session's downloadable result, offered as
// name. The previous result is removed.
func (s *Session) SetOutput(path, name string) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	if s.OutputFile != "" && s.OutputFile != path {
		os.Remove(s.OutputFile)
	}
	s.OutputFile = path
	s.OutputName = name
}

// Output returns the path and download name of the latest result.
func (s *Session) Output() (path, name string) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	return s.OutputFile, s.OutputName
}

func (s *Session) Cleanup() {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.closeDocument()
	for _, file := range s.Files {
		os.Remove(file)
	}
	s.Files = nil
	if s.OutputFile != "" {
		os.Remove(s.OutputFile)
		s.OutputFile, s.OutputName = "", ""
	}
}

type SessionManager struct {
	Sessions map[string]*Session
	Mutex    sync.RWMutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		Sessions: make(map[string]*Session),
	}
}

func (sm *SessionManager) CreateSession() *Session {
	sm.Mutex.Lock()
	defer sm.Mutex.Unlock()

	now := time.Now()
	session := &Session{
		ID:         utils.GenerateUUID(),
		Files:      []string{},
		CreatedAt:  now,
		LastActive: now,
	}
	sm.Sessions[session.ID] = session
	return session
}

// GetSession looks up a session and marks it active.
func (sm *SessionManager) GetSession(id string) (*Session, bool) {
	sm.Mutex.RLock()
	session, exists := sm.Sessions[id]
	sm.Mutex.RUnlock()
	if exists {
		session.touch()
	}
	return session, exists
}

func (sm *SessionManager) DeleteSession(id string) {
	sm.Mutex.Lock()
	session, exists := sm.Sessions[id]
	delete(sm.Sessions, id)
	sm.Mutex.Unlock()
	if exists {
		session.Cleanup()
	}
}

// Reap removes sessions idle for longer than ttl and returns how many went.
func (sm *SessionManager) Reap(ttl time.Duration) int {
	sm.Mutex.Lock()
	var stale []*Session
	for id, session := range sm.Sessions {
		session.Mutex.Lock()
		idle := time.Since(session.LastActive)
		session.Mutex.Unlock()
		if idle > ttl {
			stale = append(stale, session)
			delete(sm.Sessions, id)
		}
	}
	sm.Mutex.Unlock()

	for _, session := range stale {
		session.Cleanup()
	}
	return len(stale)
}
