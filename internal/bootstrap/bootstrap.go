// Package bootstrap hydrates the state store from the document store.
package bootstrap

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/services"
	"portfolio-backend-go/internal/state"

	"golang.org/x/sync/errgroup"
)

type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseErrored Phase = "errored"
)

// Source is the read side of the data access layer.
type Source interface {
	FetchAbout(ctx context.Context) (models.About, error)
	FetchSkills(ctx context.Context) ([]models.Skill, error)
	FetchProjects(ctx context.Context) ([]models.Project, error)
	FetchExperiences(ctx context.Context) ([]models.Experience, error)
	FetchEducations(ctx context.Context) ([]models.Education, error)
	FetchMessages(ctx context.Context) ([]models.Message, error)
}

type Dispatcher interface {
	Dispatch(action state.Action) error
}

// Notifier surfaces a failed load to the operator.
type Notifier interface {
	Notify(err error)
}

type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

type Status struct {
	Phase Phase `json:"phase"`
	// Reloading is set while a run after the first one is in flight. The
	// phase of the previous run stays in place until it finishes.
	Reloading bool      `json:"reloading,omitempty"`
	Error     string    `json:"error,omitempty"`
	LoadedAt  time.Time `json:"loadedAt,omitempty"`
}

// Loader fetches the profile and every collection in parallel and
// dispatches them only when all succeed. A run always ends in PhaseReady or
// PhaseErrored; nothing is retried automatically.
type Loader struct {
	Source   Source
	Store    Dispatcher
	Notifier Notifier
	// TolerateEmpty loads an empty collection as an empty slice instead of
	// failing the run.
	TolerateEmpty bool

	run    sync.Mutex
	mu     sync.RWMutex
	status Status
}

func (l *Loader) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.status.Phase == "" {
		return Status{Phase: PhaseLoading}
	}
	return l.status
}

// Loading reports whether the first load has not finished yet.
func (l *Loader) Loading() bool {
	return l.Status().Phase == PhaseLoading
}

func (l *Loader) setStatus(status Status) {
	l.mu.Lock()
	l.status = status
	l.mu.Unlock()
}

// beginRun enters PhaseLoading only for the first run. Later runs keep the
// last outcome and its data serving while they fetch.
func (l *Loader) beginRun() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status.Phase == "" || l.status.Phase == PhaseLoading {
		l.status = Status{Phase: PhaseLoading}
		return
	}
	l.status.Reloading = true
}

func (l *Loader) Run(ctx context.Context) error {
	l.run.Lock()
	defer l.run.Unlock()
	l.beginRun()

	var (
		about       models.About
		skills      []models.Skill
		projects    []models.Project
		experiences []models.Experience
		educations  []models.Education
		messages    []models.Message
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		about, err = l.Source.FetchAbout(gctx)
		return err
	})
	group.Go(func() (err error) {
		skills, err = tolerate(l.TolerateEmpty, l.Source.FetchSkills)(gctx)
		return err
	})
	group.Go(func() (err error) {
		projects, err = tolerate(l.TolerateEmpty, l.Source.FetchProjects)(gctx)
		return err
	})
	group.Go(func() (err error) {
		experiences, err = tolerate(l.TolerateEmpty, l.Source.FetchExperiences)(gctx)
		return err
	})
	group.Go(func() (err error) {
		educations, err = tolerate(l.TolerateEmpty, l.Source.FetchEducations)(gctx)
		return err
	})
	group.Go(func() (err error) {
		messages, err = tolerate(l.TolerateEmpty, l.Source.FetchMessages)(gctx)
		return err
	})

	if err := group.Wait(); err != nil {
		l.setStatus(Status{Phase: PhaseErrored, Error: err.Error(), LoadedAt: time.Now().UTC()})
		if l.Notifier != nil {
			l.Notifier.Notify(err)
		}
		return err
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Date > messages[j].Date
	})
	actions := []state.Action{
		state.SetAbout{About: about},
		state.SetAll[models.Skill]{Items: skills},
		state.SetAll[models.Project]{Items: projects},
		state.SetAll[models.Experience]{Items: experiences},
		state.SetAll[models.Education]{Items: educations},
		state.SetAll[models.Message]{Items: messages},
	}
	for _, action := range actions {
		if err := l.Store.Dispatch(action); err != nil {
			l.setStatus(Status{Phase: PhaseErrored, Error: err.Error(), LoadedAt: time.Now().UTC()})
			if l.Notifier != nil {
				l.Notifier.Notify(err)
			}
			return err
		}
	}
	l.setStatus(Status{Phase: PhaseReady, LoadedAt: time.Now().UTC()})
	return nil
}

func tolerate[T any](enabled bool, fetch func(context.Context) ([]T, error)) func(context.Context) ([]T, error) {
	return func(ctx context.Context) ([]T, error) {
		items, err := fetch(ctx)
		if enabled && errors.Is(err, services.ErrEmptyCollection) {
			return []T{}, nil
		}
		return items, err
	}
}
