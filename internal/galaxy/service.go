package galaxy

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"starconquest-server/internal/shared/errors"
)

type Service struct {
	repo    *Repository
	profile Profile
	logger  *slog.Logger
}

// NewService builds the galaxy service. repo may be nil, in which case the
// catalog operations fail and only file and generated sources load.
func NewService(repo *Repository, profile Profile, logger *slog.Logger) *Service {
	logger.Debug("Initializing galaxy service")

	return &Service{
		repo:    repo,
		profile: profile,
		logger:  logger,
	}
}

func (s *Service) requireCatalog() error {
	if s.repo == nil {
		return errors.External("galaxy catalog is not configured")
	}
	return nil
}

// Import validates doc and stores it under name. The stored document is the
// normalized one, so dangling or repeated lanes never reach the catalog.
func (s *Service) Import(ctx context.Context, name string, doc *Document) (*CatalogEntry, error) {
	logger := s.logger.With("component", "galaxy_service", "operation", "import", "name", name)

	if err := s.requireCatalog(); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("galaxy map name is required")
	}

	graph, err := NewGraph(doc)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := graph.Document().Encode(&body); err != nil {
		return nil, errors.WrapInternal("failed to encode galaxy document", err)
	}

	entry := CatalogEntry{
		Name:            name,
		StarCount:       graph.Len(),
		ConnectionCount: len(graph.Connections()),
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, errors.WrapInternal("failed to start catalog transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	exists, err := s.repo.Exists(ctx, name, tx)
	if err != nil {
		return nil, errors.WrapInternal("failed to check galaxy map", err)
	}
	if exists {
		return nil, errors.Conflictf("galaxy map %q already exists", name)
	}

	if err := s.repo.Create(ctx, entry, body.String(), tx); err != nil {
		return nil, errors.WrapInternal("failed to store galaxy map", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.WrapInternal("failed to commit galaxy map", err)
	}

	logger.Info("Galaxy map imported", "stars", entry.StarCount, "connections", entry.ConnectionCount)
	return &entry, nil
}

func (s *Service) Get(ctx context.Context, name string) (*Document, error) {
	if err := s.requireCatalog(); err != nil {
		return nil, err
	}

	stored, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, errors.WrapInternal("failed to load galaxy map", err)
	}
	if stored == nil {
		return nil, errors.NotFoundf("galaxy map %q not found", name)
	}

	return Parse(strings.NewReader(stored.Document))
}

func (s *Service) List(ctx context.Context) ([]CatalogEntry, error) {
	if err := s.requireCatalog(); err != nil {
		return nil, err
	}

	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.WrapInternal("failed to list galaxy maps", err)
	}
	return entries, nil
}

// Load resolves a galaxy source into a graph. Sources are
// "file:<path>", "catalog:<name>" or "generate:<seed>".
func (s *Service) Load(ctx context.Context, source string) (*Graph, error) {
	logger := s.logger.With("component", "galaxy_service", "operation", "load", "source", source)

	kind, arg, ok := strings.Cut(source, ":")
	if !ok || arg == "" {
		return nil, errors.Validationf("galaxy source %q must look like file:<path>, catalog:<name> or generate:<seed>", source)
	}

	var doc *Document
	var err error

	switch kind {
	case "file":
		doc, err = LoadFile(arg)
	case "catalog":
		doc, err = s.Get(ctx, arg)
	case "generate":
		seed, parseErr := strconv.ParseUint(arg, 10, 64)
		if parseErr != nil {
			return nil, errors.WrapValidation(fmt.Sprintf("invalid generator seed %q", arg), parseErr)
		}
		doc, err = Generate(s.profile, NewRand(seed))
	default:
		return nil, errors.Validationf("unknown galaxy source kind %q", kind)
	}
	if err != nil {
		logger.Error("Failed to load galaxy document", "error", err)
		return nil, err
	}

	graph, err := NewGraph(doc)
	if err != nil {
		logger.Error("Galaxy document rejected", "error", err)
		return nil, err
	}

	logger.Info("Galaxy loaded", "stars", graph.Len(), "connections", len(graph.Connections()))
	return graph, nil
}

// NewRand returns the deterministic generator used for seeded galaxies.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
