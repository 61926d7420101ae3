package controllers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/amaumene/tritonevents/internal/models"
	"github.com/amaumene/tritonevents/internal/transform"
)

// ErrMalformedNotification is returned for a card move notification missing required fields
var ErrMalformedNotification = errors.New("malformed card move notification")

// CardMoveNotification is a board notification about a card changing lists
type CardMoveNotification struct {
	ActionID   string
	CardID     string
	CardName   string
	ListBefore string
	ListAfter  string
	Trace      map[string]string
}

// IntakeCandidate is a card that moved from the requests list to the ready list
type IntakeCandidate struct {
	CardID   string
	CardName string
	Trace    map[string]string
}

// CandidateHandler processes intake candidates
type CandidateHandler interface {
	HandleCandidate(ctx context.Context, candidate IntakeCandidate) error
}

// EventSource filters card move notifications and feeds the resulting candidates
// to a fixed set of sequential workers. Candidates of one card always land on the
// same worker, so they are handled in arrival order.
type EventSource struct {
	requestsList string
	readyList    string
	handler      CandidateHandler
	queue        chan IntakeCandidate
	shards       []chan IntakeCandidate
	logger       zerolog.Logger
}

// NewEventSource creates a new event source with workers sequential shards
func NewEventSource(requestsList, readyList string, workers, buffer int, handler CandidateHandler, logger zerolog.Logger) *EventSource {
	if workers < 1 {
		workers = 1
	}
	shards := make([]chan IntakeCandidate, workers)
	for i := range shards {
		shards[i] = make(chan IntakeCandidate, buffer)
	}

	return &EventSource{
		requestsList: requestsList,
		readyList:    readyList,
		handler:      handler,
		queue:        make(chan IntakeCandidate, buffer),
		shards:       shards,
		logger:       logger.With().Str("component", "events").Logger(),
	}
}

// Filter returns the candidate for a requests to ready move, nil for any other
// notification, or ErrMalformedNotification
func (s *EventSource) Filter(n CardMoveNotification) (*IntakeCandidate, error) {
	log := s.logger.With().
		Str("card_id", n.CardID).
		Str("list_before", n.ListBefore).
		Str("list_after", n.ListAfter).
		Logger()

	if n.ListBefore == "" && n.ListAfter == "" {
		log.Debug().Msg("Skipping card that wasn't moved")
		return nil, nil
	}
	if n.ListAfter == "" {
		return nil, fmt.Errorf("%w: card %s has no destination list", ErrMalformedNotification, n.CardID)
	}
	if n.CardID == "" {
		return nil, fmt.Errorf("%w: no card id", ErrMalformedNotification)
	}
	if n.ListBefore != s.requestsList {
		log.Debug().Msg("Skipping card that didn't come from the requests list")
		return nil, nil
	}
	if n.ListAfter != s.readyList {
		log.Debug().Msg("Skipping card that didn't go to the ready list")
		return nil, nil
	}

	return &IntakeCandidate{
		CardID:   n.CardID,
		CardName: n.CardName,
		Trace:    n.Trace,
	}, nil
}

// Submit filters a notification and queues the candidate it yields, if any
func (s *EventSource) Submit(ctx context.Context, n CardMoveNotification) error {
	candidate, err := s.Filter(n)
	if err != nil {
		s.logger.Error().Err(err).Str("action_id", n.ActionID).Msg("Dropping notification")
		return err
	}
	if candidate == nil {
		return nil
	}

	s.logger.Info().Str("card_id", candidate.CardID).Msg("Creating intake candidate from card")

	select {
	case s.queue <- *candidate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve dispatches queued candidates to the shard workers until ctx is done
func (s *EventSource) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	for i, shard := range s.shards {
		wg.Add(1)
		go func(id int, shard <-chan IntakeCandidate) {
			defer wg.Done()
			s.work(ctx, id, shard)
		}(i, shard)
	}
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case candidate := <-s.queue:
			shard := s.shards[s.shardFor(candidate.CardID)]
			select {
			case shard <- candidate:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (s *EventSource) shardFor(cardID string) uint64 {
	return xxhash.Sum64String(cardID) % uint64(len(s.shards))
}

func (s *EventSource) work(ctx context.Context, id int, shard <-chan IntakeCandidate) {
	for {
		select {
		case <-ctx.Done():
			return
		case candidate := <-shard:
			err := s.handler.HandleCandidate(ctx, candidate)
			s.logOutcome(id, candidate, err)
		}
	}
}

func (s *EventSource) logOutcome(worker int, candidate IntakeCandidate, err error) {
	if err == nil {
		return
	}

	log := s.logger.With().Int("worker", worker).Str("card_id", candidate.CardID).Logger()

	var verr *transform.ValidationError
	switch {
	case errors.As(err, &verr):
		log.Error().Err(err).Str("field", string(verr.Field)).Msg("Card was invalid")
	case errors.Is(err, models.ErrDuplicateIdentity):
		log.Warn().Err(err).Msg("Media already exists")
	case errors.Is(err, ErrPublishFailed):
		log.Error().Err(err).Msg("Media stored but job not published, requeue to retry")
	default:
		log.Error().Err(err).Msg("Failed to process card")
	}
}
