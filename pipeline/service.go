// Package pipeline ties generation to persistence: one call turns an idea
// into a stored pitch record.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pitchcraft/generator"
	"pitchcraft/logger"
	"pitchcraft/store"
)

// Generator produces a pitch from an idea. *generator.Agent implements it.
type Generator interface {
	Generate(ctx context.Context, idea generator.Idea) (generator.Result, error)
	Schema() generator.SchemaKind
}

type Service struct {
	agent Generator
	repo  store.Repository
}

func NewService(agent Generator, repo store.Repository) (*Service, error) {
	if agent == nil {
		return nil, errors.New("generator is required")
	}
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	return &Service{agent: agent, repo: repo}, nil
}

// Schema reports the schema kind new pitches are generated with.
func (s *Service) Schema() generator.SchemaKind { return s.agent.Schema() }

// GenerateAndStore generates a pitch for the idea and persists it under the
// owner. Nothing is written unless generation produced a pitch.
func (s *Service) GenerateAndStore(ctx context.Context, ownerID string, idea generator.Idea) (*store.PitchRecord, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, store.ErrNoOwner
	}
	if err := idea.Validate(s.agent.Schema()); err != nil {
		return nil, err
	}

	res, err := s.agent.Generate(ctx, idea)
	if err != nil {
		logger.Warn("generation failed", "owner", ownerID, "error", err.Error())
		return nil, err
	}

	rec, err := s.repo.Create(ctx, ownerID, idea, res.Pitch, store.CreateMeta{
		Strategy:     res.Strategy,
		UsedFallback: res.UsedFallback,
	})
	if err != nil {
		logger.Error("pitch could not be stored", err, "owner", ownerID)
		return nil, err
	}
	return rec, nil
}

// SubscribeToMyPitches calls onUpdate with the owner's full sorted record set
// now and after every change, and onError when a read fails. The returned
// function stops delivery and waits for the callbacks to return, so it must
// not be called from inside them.
func (s *Service) SubscribeToMyPitches(ctx context.Context, ownerID string, onUpdate func([]store.PitchRecord), onError func(error)) (func(), error) {
	sub, err := s.repo.Subscribe(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for snap := range sub.Updates {
			if snap.Err != nil {
				if onError != nil {
					onError(snap.Err)
				}
				continue
			}
			if onUpdate != nil {
				onUpdate(snap.Records)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.Close()
			<-done
		})
	}, nil
}

// GetPitchByID returns one of the owner's records.
func (s *Service) GetPitchByID(ctx context.Context, ownerID, id string) (*store.PitchRecord, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// ListMyPitches returns the owner's records, newest first.
func (s *Service) ListMyPitches(ctx context.Context, ownerID string) ([]store.PitchRecord, error) {
	return s.repo.List(ctx, ownerID)
}
