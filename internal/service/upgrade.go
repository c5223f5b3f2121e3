package service

import (
	"context"
	"strconv"

	"github.com/forgo/guilds/internal/model"
)

// RequestUpgrade checks upgrade eligibility and registers a confirmation.
// Checks run in order: max tier, member count, prosperity, bank balance.
func (s *GuildService) RequestUpgrade(ctx context.Context, actorID string) (quote UpgradeQuote, err error) {
	_, span := s.startSpan(ctx, "request_upgrade", actorID)
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return UpgradeQuote{}, ErrReadOnly
	}
	g, _, err := s.actorGuild(actorID, model.ActionUpgradeGuild)
	if err != nil {
		return UpgradeQuote{}, err
	}
	next, err := s.CheckUpgrade(g)
	if err != nil {
		return UpgradeQuote{}, err
	}

	guildID, from := g.ID, g.Tier
	s.actions.Register(actorID, ActionKindUpgrade, func(ctx context.Context) error {
		return s.applyUpgrade(ctx, actorID, guildID, from)
	}, nil)

	return UpgradeQuote{
		From:          from,
		To:            next,
		Cost:          next.Cost,
		FormattedCost: s.ledger.Format(next.Cost),
	}, nil
}

// CheckUpgrade returns the tier g would move into, or the first unmet requirement
func (s *GuildService) CheckUpgrade(g *model.Guild) (model.Tier, error) {
	next, ok := s.tiers.Next(g.Tier)
	if !ok {
		return model.Tier{}, ErrUpgradeMaxTier.With("tier", strconv.Itoa(g.Tier))
	}
	if len(g.Members) < next.MinMembersToUpgrade {
		return model.Tier{}, ErrUpgradeMembers.With("amount", strconv.Itoa(next.MinMembersToUpgrade))
	}
	if g.Prosperity < next.Prosperity {
		return model.Tier{}, ErrUpgradeProsperity.With("needed", strconv.FormatInt(next.Prosperity-g.Prosperity, 10))
	}
	if g.Balance < next.Cost {
		return model.Tier{}, ErrUpgradeFunds.With("needed", s.ledger.Format(next.Cost-g.Balance))
	}
	return next, nil
}

// applyUpgrade is the confirmed half of an upgrade. The actor's membership,
// role and the guild balance are checked again under the guild lock.
func (s *GuildService) applyUpgrade(ctx context.Context, actorID, guildID string, from int) (err error) {
	ctx, span := s.startSpan(ctx, "upgrade", actorID)
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return ErrReadOnly
	}
	g, _, err := s.actorGuild(actorID, model.ActionUpgradeGuild)
	if err != nil {
		return err
	}
	if g.ID != guildID {
		return ErrNotInGuild
	}
	target, ok := s.tiers.Next(from)
	if !ok {
		return ErrUpgradeMaxTier.With("tier", strconv.Itoa(from))
	}

	event := s.event(model.EventTierUpgraded, g, actorID, "")
	event.Tier = target.Level
	event.Cost = target.Cost
	if err := s.events.Before(ctx, event); err != nil {
		return err
	}

	next, err := s.registry.Mutate(guildID, func(g *model.Guild) error {
		m, ok := g.Member(actorID)
		if !ok {
			return ErrNotInGuild
		}
		if err := s.requireAction(m, model.ActionUpgradeGuild); err != nil {
			return err
		}
		if g.Tier != from {
			return ErrUpgradeTierChanged.With("tier", strconv.Itoa(g.Tier))
		}
		if g.Balance < target.Cost {
			return ErrUpgradeFunds.With("needed", s.ledger.Format(target.Cost-g.Balance))
		}
		g.Balance -= target.Cost
		g.Tier = target.Level
		return nil
	})
	if err != nil {
		return err
	}

	_ = s.perms.SyncGuild(ctx, next)
	s.persister.MarkDirty(next.ID)
	s.events.After(ctx, event)
	return nil
}
