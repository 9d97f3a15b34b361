// Package persona loads persona configurations and connected-user
// profiles for prompt assembly.
package persona

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/smritlabs/matchbox/pkg/models"
	"github.com/smritlabs/matchbox/pkg/store"
)

const (
	personasCollection = "personalities"
	opTimeout          = 5 * time.Second
)

// ErrPersonaNotFound is returned when no persona matches the id.
var ErrPersonaNotFound = errors.New("persona not found")

// ProfileCache is the slice of the keyed store the service needs for
// short-lived profile caching.
type ProfileCache interface {
	CachePerson(ctx context.Context, userID, personID string, profile *models.UserProfile, ttl time.Duration) error
	ReadPerson(ctx context.Context, userID, personID string) (*models.UserProfile, error)
}

// Service resolves personas and connected-user profiles. Personas are
// cached in-process for the lifetime of the service; profiles go through
// the keyed store with a TTL.
type Service struct {
	personas *mongo.Collection
	profiles *mongo.Database
	cache    ProfileCache
	ttl      time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	personaC map[string]*models.PersonaConfig
}

// New builds a Service over the profile database. cache may be nil, in
// which case profile lookups always hit MongoDB.
func New(db *mongo.Database, cache ProfileCache, profileTTL time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		personas: db.Collection(personasCollection),
		profiles: db,
		cache:    cache,
		ttl:      profileTTL,
		logger:   logger,
		personaC: make(map[string]*models.PersonaConfig),
	}
}

func personaCacheKey(userID, personalityID string) string {
	return userID + ":" + personalityID
}

// Persona returns the persona configuration for (user, personality).
// The first hit populates an in-process cache; Invalidate drops it.
func (s *Service) Persona(ctx context.Context, userID, personalityID string) (*models.PersonaConfig, error) {
	if personalityID == "" {
		return nil, nil
	}
	key := personaCacheKey(userID, personalityID)

	s.mu.RLock()
	cached, ok := s.personaC[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var cfg models.PersonaConfig
	err := s.personas.FindOne(ctx, bson.M{"_id": personalityID, "user_id": userID}).Decode(&cfg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPersonaNotFound
		}
		return nil, fmt.Errorf("load persona %s: %w", personalityID, err)
	}

	s.mu.Lock()
	s.personaC[key] = &cfg
	s.mu.Unlock()
	return &cfg, nil
}

// Invalidate drops a cached persona so the next read reloads it.
func (s *Service) Invalidate(userID, personalityID string) {
	s.mu.Lock()
	delete(s.personaC, personaCacheKey(userID, personalityID))
	s.mu.Unlock()
}

// profileProjection limits connected-user reads to prompt-relevant fields.
var profileProjection = bson.M{
	"name": 1, "age": 1, "gender": 1, "country": 1,
	"address": 1, "image_url": 1, "tags": 1, "interests": 1,
}

// Profile returns the connected person's projected profile, consulting
// the TTL cache first. A missing profile is not an error; prompts simply
// omit the block.
func (s *Service) Profile(ctx context.Context, userID, personID string) (*models.UserProfile, error) {
	if personID == "" {
		return nil, nil
	}

	if s.cache != nil {
		cached, err := s.cache.ReadPerson(ctx, userID, personID)
		if err != nil {
			s.logger.Warn("profile cache read failed", "user_id", userID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	findCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var profile models.UserProfile
	err := s.profiles.Collection(userID).
		FindOne(findCtx, bson.M{"_id": personID}, options.FindOne().SetProjection(profileProjection)).
		Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("load profile %s: %w", personID, err)
	}
	profile.ID = personID

	if s.cache != nil {
		if err := s.cache.CachePerson(ctx, userID, personID, &profile, s.ttl); err != nil {
			s.logger.Warn("profile cache write failed", "user_id", userID, "error", err)
		}
	}
	return &profile, nil
}

var _ ProfileCache = (*store.Client)(nil)
