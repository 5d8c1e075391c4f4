// Package app provides application state, segmentation orchestration, and events.
package app

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog"

	"cutout-studio/internal/imaging"
	"cutout-studio/internal/repair"
	"cutout-studio/internal/segment"
)

// State holds the application state: the loaded photo, the current cutout
// result, and the repair session. Image fields are guarded by mu because the
// segmentation worker writes the result from its own goroutine; the repair
// session itself is event-loop-only and never touched by workers.
type State struct {
	mu sync.RWMutex

	photoPath string
	photo     *image.NRGBA // original photo, forced opaque
	result    *image.NRGBA // current cutout, straight alpha
	modified  bool         // result has changes not yet exported
	busy      bool         // segmentation in flight

	session   *repair.Session
	segmenter segment.Segmenter
	log       zerolog.Logger

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventPhotoLoaded EventType = iota
	EventSegmentationStarted
	EventSegmentationDone
	EventSegmentationFailed
	EventResultChanged
	EventRepairStarted
	EventRepairEnded
	EventModified
	EventBusyChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a new application state.
func NewState(segmenter segment.Segmenter, log zerolog.Logger) *State {
	return &State{
		session:   repair.NewSession(),
		segmenter: segmenter,
		log:       log,
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type. Listeners run on
// the emitting goroutine: segmentation outcomes arrive on the worker.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the result as having unexported changes and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// LoadPhoto loads a photo from the specified path, replacing the current one.
// Any repair in progress is discarded and the old result cleared.
func (s *State) LoadPhoto(path string) error {
	img, err := imaging.Load(path)
	if err != nil {
		return fmt.Errorf("load photo: %w", err)
	}
	photo := imaging.ToOpaque(imaging.ToNRGBA(img))

	if s.session.Editing() {
		s.session.Exit(false)
		s.Emit(EventRepairEnded, nil)
	}

	s.mu.Lock()
	s.photoPath = path
	s.photo = photo
	s.result = nil
	s.modified = false
	s.mu.Unlock()

	s.log.Info().
		Str("path", path).
		Int("width", photo.Bounds().Dx()).
		Int("height", photo.Bounds().Dy()).
		Msg("photo loaded")

	s.Emit(EventPhotoLoaded, path)
	s.Emit(EventResultChanged, nil)
	return nil
}

// RunSegmentation starts the cutout worker on the loaded photo and returns
// once it is underway; listeners receive the outcome. A repair in progress
// is discarded first, since segmentation replaces the result it was editing.
// Only one run may be in flight at a time.
func (s *State) RunSegmentation(ctx context.Context) error {
	if s.session.Editing() {
		s.session.Exit(false)
		s.Emit(EventRepairEnded, nil)
	}

	s.mu.Lock()
	if s.photo == nil {
		s.mu.Unlock()
		return fmt.Errorf("no photo loaded")
	}
	if s.busy {
		s.mu.Unlock()
		return fmt.Errorf("segmentation already running")
	}
	s.busy = true
	photo := s.photo
	s.mu.Unlock()

	s.Emit(EventBusyChanged, true)
	s.Emit(EventSegmentationStarted, nil)

	go func() {
		result, err := s.segmenter.Segment(ctx, photo)

		s.mu.Lock()
		s.busy = false
		if err == nil {
			s.result = result
		}
		s.mu.Unlock()

		s.Emit(EventBusyChanged, false)
		if err != nil {
			s.log.Error().Err(err).Msg("segmentation failed")
			s.Emit(EventSegmentationFailed, err)
			return
		}
		s.SetModified(true)
		s.Emit(EventSegmentationDone, nil)
		s.Emit(EventResultChanged, nil)
	}()
	return nil
}

// BeginRepair opens a repair session over the current result on a cw by ch
// canvas. Already editing is a no-op; a zero-size canvas returns
// repair.ErrCanvasNotReady, and callers retry after layout.
func (s *State) BeginRepair(cw, ch int) error {
	if s.session.Editing() {
		return nil
	}

	s.mu.RLock()
	result, photo, busy := s.result, s.photo, s.busy
	s.mu.RUnlock()
	if busy {
		return fmt.Errorf("segmentation in progress")
	}

	if err := s.session.Enter(result, photo, cw, ch); err != nil {
		return err
	}
	s.Emit(EventRepairStarted, nil)
	return nil
}

// CommitRepair ends the repair session, keeping the edits: the session's
// buffer becomes the new result at full resolution.
func (s *State) CommitRepair() error {
	if !s.session.Editing() {
		return fmt.Errorf("no repair in progress")
	}
	result := s.session.Exit(true)

	s.mu.Lock()
	s.result = result
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventRepairEnded, nil)
	s.Emit(EventResultChanged, nil)
	return nil
}

// DiscardRepair ends the repair session, dropping every edit. Not editing is
// a no-op.
func (s *State) DiscardRepair() {
	if !s.session.Editing() {
		return
	}
	s.session.Exit(false)
	s.Emit(EventRepairEnded, nil)
}

// ExportResult writes the current result to path as PNG.
func (s *State) ExportResult(path string) error {
	s.mu.RLock()
	result := s.result
	s.mu.RUnlock()
	if result == nil {
		return fmt.Errorf("no result to export")
	}

	if err := imaging.SavePNG(path, result); err != nil {
		return fmt.Errorf("export result: %w", err)
	}
	s.log.Info().Str("path", path).Msg("result exported")
	s.SetModified(false)
	return nil
}

// Session returns the repair session. Event-loop use only.
func (s *State) Session() *repair.Session { return s.session }

// Photo returns the loaded photo, or nil.
func (s *State) Photo() *image.NRGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.photo
}

// Result returns the current cutout result, or nil.
func (s *State) Result() *image.NRGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// PhotoPath returns the path the current photo was loaded from.
func (s *State) PhotoPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.photoPath
}

// Modified reports whether the result has changes not yet exported.
func (s *State) Modified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// Busy reports whether a segmentation run is in flight.
func (s *State) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}
