package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"
)

// Source loads card definitions from a backing store.
type Source interface {
	LoadCards(ctx context.Context) ([]CardDefinition, error)
}

// snapshot is one immutable catalog generation. Readers always see a complete
// generation; Reload swaps the whole pointer.
type snapshot struct {
	cards   []CardDefinition
	byID    map[string]*CardDefinition
	byPhase map[PhaseBucket][]string
}

// Catalog caches card definitions and serves lookups. Safe for concurrent
// reads during Reload.
type Catalog struct {
	source Source
	logger *zap.Logger
	snap   atomic.Pointer[snapshot]
}

// New creates an empty catalog. Reload must succeed before the catalog serves
// lookups.
func New(source Source, logger *zap.Logger) *Catalog {
	return &Catalog{source: source, logger: logger}
}

// Reload replaces the cached card list from the source. On failure the
// previous generation, if any, stays in place and the error is returned.
func (c *Catalog) Reload(ctx context.Context) error {
	cards, err := c.source.LoadCards(ctx)
	if err != nil {
		return fmt.Errorf("load card catalog: %w", err)
	}
	if len(cards) == 0 {
		return fmt.Errorf("load card catalog: no enabled cards")
	}

	sort.SliceStable(cards, func(i, j int) bool { return cards[i].CardNo < cards[j].CardNo })

	snap := &snapshot{
		cards:   cards,
		byID:    make(map[string]*CardDefinition, len(cards)),
		byPhase: make(map[PhaseBucket][]string),
	}
	for i := range cards {
		card := &cards[i]
		if card.CardID == "" {
			return fmt.Errorf("load card catalog: card #%d has empty cardId", card.CardNo)
		}
		if _, dup := snap.byID[card.CardID]; dup {
			return fmt.Errorf("load card catalog: duplicate cardId %s", card.CardID)
		}
		snap.byID[card.CardID] = card
		if card.CardType == CardTypeCore {
			snap.byPhase[card.PhaseBucket] = append(snap.byPhase[card.PhaseBucket], card.CardID)
		}
	}

	c.snap.Store(snap)
	c.logger.Info("card catalog loaded", zap.Int("cards", len(cards)))
	return nil
}

func (c *Catalog) current() (*snapshot, error) {
	snap := c.snap.Load()
	if snap == nil {
		return nil, fmt.Errorf("card catalog is not loaded")
	}
	return snap, nil
}

// ListCards returns the full catalog, or only core cards when includePolicy
// is false. The returned slice must not be mutated.
func (c *Catalog) ListCards(includePolicy bool) ([]CardDefinition, error) {
	snap, err := c.current()
	if err != nil {
		return nil, err
	}
	if includePolicy {
		return snap.cards, nil
	}
	core := make([]CardDefinition, 0, len(snap.cards))
	for _, card := range snap.cards {
		if card.CardType == CardTypeCore {
			core = append(core, card)
		}
	}
	return core, nil
}

// GetRequiredCard returns the definition for cardID or an error when the id
// is unknown.
func (c *Catalog) GetRequiredCard(cardID string) (*CardDefinition, error) {
	snap, err := c.current()
	if err != nil {
		return nil, err
	}
	card, ok := snap.byID[cardID]
	if !ok {
		return nil, fmt.Errorf("unknown card id: %s", cardID)
	}
	return card, nil
}

// ListCoreCardsByPhase returns core card ids in catalog order for a phase
// bucket. Used to seed draw pools.
func (c *Catalog) ListCoreCardsByPhase(bucket PhaseBucket) ([]string, error) {
	snap, err := c.current()
	if err != nil {
		return nil, err
	}
	return snap.byPhase[bucket], nil
}
