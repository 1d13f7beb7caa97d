package handlers

import (
	"time"

	"pair-viewer/internal/database"
	"pair-viewer/internal/media"
	"pair-viewer/internal/session"
	"pair-viewer/internal/startup"
	"pair-viewer/internal/workers"
)

// Opener opens a file in an external application.
type Opener interface {
	Open(path string) error
}

// Handlers holds the dependencies of the HTTP API.
type Handlers struct {
	db        *database.Database
	session   *session.Session
	thumbGen  *media.ThumbnailGenerator
	opener    Opener
	limiter   *workers.Limiter
	config    *startup.Config
	startTime time.Time
}

// New wires the API. limiter bounds concurrent thumbnail and preview
// renders; nil allows one render per CPU.
func New(db *database.Database, sess *session.Session, thumbGen *media.ThumbnailGenerator, opener Opener, limiter *workers.Limiter, config *startup.Config) *Handlers {
	if limiter == nil {
		limiter = workers.NewLimiter(workers.ForCPU(0))
	}
	return &Handlers{
		db:        db,
		session:   sess,
		thumbGen:  thumbGen,
		opener:    opener,
		limiter:   limiter,
		config:    config,
		startTime: time.Now(),
	}
}
