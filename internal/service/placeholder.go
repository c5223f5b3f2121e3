package service

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/forgo/guilds/internal/model"
)

// PlaceholderTimeLayout formats join and creation times
const PlaceholderTimeLayout = "2006/01/02 15:04:05"

// PlaceholderResolver answers templated lookups such as "balance",
// "member_count_2", "tier_3_cost" or "top_wins_name_1". Unknown or malformed
// tokens resolve to the empty string.
type PlaceholderResolver struct {
	registry *GuildRegistry
	tiers    *TierCatalog
	roles    *RoleCatalog
	players  PlayerDirectory
	ledger   Ledger
	location *time.Location
}

// PlaceholderResolverConfig holds configuration for the resolver
type PlaceholderResolverConfig struct {
	Registry *GuildRegistry
	Tiers    *TierCatalog
	Roles    *RoleCatalog
	Players  PlayerDirectory
	Ledger   Ledger         // optional, formats currency
	Location *time.Location // defaults to time.Local
}

// NewPlaceholderResolver creates a resolver
func NewPlaceholderResolver(cfg PlaceholderResolverConfig) *PlaceholderResolver {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &PlaceholderResolver{
		registry: cfg.Registry,
		tiers:    cfg.Tiers,
		roles:    cfg.Roles,
		players:  cfg.Players,
		ledger:   cfg.Ledger,
		location: loc,
	}
}

// leaderboard metrics; ok=false excludes a guild from the board
type metric func(g *model.Guild) (float64, bool)

var (
	byWins metric = func(g *model.Guild) (float64, bool) { return float64(g.Score.Wins), true }
	byLoss metric = func(g *model.Guild) (float64, bool) { return float64(g.Score.Losses), true }
	byWLR  metric = func(g *model.Guild) (float64, bool) { return g.Score.WinLossRatio() }
)

// Resolve evaluates token for the given player. Tokens are matched
// case-insensitively; embedded player names compare with EqualFold.
func (r *PlaceholderResolver) Resolve(playerID, token string) string {
	token = strings.ToLower(token)
	if v, ok := r.resolveLeaderboard(token); ok {
		return v
	}
	if rest, ok := strings.CutPrefix(token, "tier_"); ok {
		if v, ok := r.resolveTierByLevel(rest); ok {
			return v
		}
	}

	g, ok := r.registry.LookupByMember(playerID)
	if !ok {
		return ""
	}
	member, _ := g.Member(playerID)
	tier, _ := r.tiers.Get(g.Tier)

	if v, ok := r.resolveAttribute(g, member, tier, token); ok {
		return v
	}
	return r.resolveParameterized(g, tier, token)
}

func (r *PlaceholderResolver) resolveLeaderboard(token string) (string, bool) {
	boards := []struct {
		prefix string
		metric metric
		amount func(g *model.Guild) string
	}{
		{"top_wins_name_", byWins, nil},
		{"top_wins_amount_", byWins, func(g *model.Guild) string { return strconv.Itoa(g.Score.Wins) }},
		{"top_losses_name_", byLoss, nil},
		{"top_losses_amount_", byLoss, func(g *model.Guild) string { return strconv.Itoa(g.Score.Losses) }},
		{"top_wlr_name_", byWLR, nil},
		{"top_wlr_amount_", byWLR, func(g *model.Guild) string {
			ratio, _ := g.Score.WinLossRatio()
			return strconv.FormatFloat(ratio, 'f', 2, 64)
		}},
	}

	for _, b := range boards {
		suffix, ok := strings.CutPrefix(token, b.prefix)
		if !ok {
			continue
		}
		rank, err := strconv.Atoi(suffix)
		if err != nil {
			return "", true
		}
		ranked := r.rank(b.metric)
		if rank < 1 || rank > len(ranked) {
			return "", true
		}
		g := ranked[rank-1]
		if b.amount == nil {
			return g.Name, true
		}
		return b.amount(g), true
	}
	return "", false
}

// rank orders guilds by metric descending. Ties keep guild id order.
func (r *PlaceholderResolver) rank(m metric) []*model.Guild {
	all := r.registry.All()
	type scored struct {
		g     *model.Guild
		value float64
	}
	valid := make([]scored, 0, len(all))
	for _, g := range all {
		if v, ok := m(g); ok {
			valid = append(valid, scored{g: g, value: v})
		}
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].value > valid[j].value })

	out := make([]*model.Guild, len(valid))
	for i, s := range valid {
		out[i] = s.g
	}
	return out
}

// resolveTierByLevel handles "<level>_<attr>" after the tier_ prefix
func (r *PlaceholderResolver) resolveTierByLevel(rest string) (string, bool) {
	levelPart, attr, ok := strings.Cut(rest, "_")
	if !ok {
		return "", false
	}
	level, err := strconv.Atoi(levelPart)
	if err != nil {
		return "", false
	}
	tier, ok := r.tiers.Get(level)
	if !ok {
		return "", false
	}
	return r.tierAttribute(tier, attr)
}

func (r *PlaceholderResolver) resolveAttribute(g *model.Guild, member model.Member, tier model.Tier, key string) (string, bool) {
	switch key {
	case "id":
		return g.ID, true
	case "name":
		return g.Name, true
	case "prefix":
		return g.Prefix, true
	case "master":
		if m, ok := g.Master(); ok {
			return r.playerName(m.PlayerID), true
		}
		return "", true
	case "member_count":
		return strconv.Itoa(len(g.Members)), true
	case "members_online":
		online := 0
		for _, m := range g.Members {
			if r.players != nil && r.players.IsOnline(m.PlayerID) {
				online++
			}
		}
		return strconv.Itoa(online), true
	case "status":
		return string(g.Status), true
	case "role":
		if role, ok := r.roles.Get(member.Role); ok {
			return role.Name, true
		}
		return "", true
	case "role_level":
		return strconv.Itoa(member.Role), true
	case "role_level_promote":
		return strconv.Itoa(member.Role - 1), true
	case "role_level_demote":
		return strconv.Itoa(member.Role + 1), true
	case "tier":
		return strconv.Itoa(g.Tier), true
	case "balance":
		return r.money(g.Balance), true
	case "balance_raw":
		return strconv.FormatInt(g.Balance, 10), true
	case "prosperity", "frd":
		return strconv.FormatInt(g.Prosperity, 10), true
	case "residence":
		return g.Residence, true
	case "max_members":
		return strconv.Itoa(tier.MaxMembers), true
	case "max_balance":
		return r.money(tier.MaxBalance), true
	case "max_balance_raw":
		return strconv.FormatInt(tier.MaxBalance, 10), true
	case "challenge_wins":
		return strconv.Itoa(g.Score.Wins), true
	case "challenge_loses", "challenge_losses":
		return strconv.Itoa(g.Score.Losses), true
	case "join_time":
		return member.JoinedAt.In(r.location).Format(PlaceholderTimeLayout), true
	case "create_time":
		return g.CreatedAt.In(r.location).Format(PlaceholderTimeLayout), true
	case "vault_count":
		return strconv.Itoa(len(g.Vaults)), true
	case "next_tier":
		if next, ok := r.tiers.Next(g.Tier); ok {
			return strconv.Itoa(next.Level), true
		}
		return "MAX", true
	}
	return "", false
}

func (r *PlaceholderResolver) resolveParameterized(g *model.Guild, tier model.Tier, token string) string {
	if sep, ok := strings.CutPrefix(token, "residence_perm_"); ok {
		return strings.Join(g.ResidencePerms, sep)
	}
	if s, ok := strings.CutPrefix(token, "member_count_"); ok {
		level, err := strconv.Atoi(s)
		if err != nil {
			return ""
		}
		return strconv.Itoa(g.CountRole(level))
	}
	if s, ok := strings.CutPrefix(token, "max_members_"); ok {
		level, err := strconv.Atoi(s)
		if err != nil {
			return ""
		}
		if limit, ok := tier.RoleLimit(level); ok {
			return strconv.Itoa(limit)
		}
		return "-1"
	}
	if s, ok := strings.CutPrefix(token, "is_member_"); ok {
		_, found := r.memberByName(g, s)
		return strconv.FormatBool(found)
	}

	// Longer prefixes first so role_level_ does not swallow them.
	roleLookups := []struct {
		prefix string
		delta  int
	}{
		{"role_level_promote_", -1},
		{"role_level_demote_", 1},
		{"role_level_", 0},
	}
	for _, l := range roleLookups {
		if s, ok := strings.CutPrefix(token, l.prefix); ok {
			m, found := r.memberByName(g, s)
			if !found {
				return "-1"
			}
			return strconv.Itoa(m.Role + l.delta)
		}
	}

	if attr, ok := strings.CutPrefix(token, "next_tier_"); ok {
		next, ok := r.tiers.Next(g.Tier)
		if !ok {
			return "MAX"
		}
		v, _ := r.tierAttribute(next, attr)
		return v
	}
	if attr, ok := strings.CutPrefix(token, "tier_"); ok {
		v, _ := r.tierAttribute(tier, attr)
		return v
	}
	return ""
}

func (r *PlaceholderResolver) tierAttribute(t model.Tier, attr string) (string, bool) {
	switch attr {
	case "level":
		return strconv.Itoa(t.Level), true
	case "name":
		return t.Name, true
	case "cost":
		return strconv.FormatInt(t.Cost, 10), true
	case "prosperity", "frd":
		return strconv.FormatInt(t.Prosperity, 10), true
	case "members_to_upgrade":
		return strconv.Itoa(t.MinMembersToUpgrade), true
	case "max_allies":
		return strconv.Itoa(t.MaxAllies), true
	case "max_members":
		return strconv.Itoa(t.MaxMembers), true
	case "max_balance":
		return r.money(t.MaxBalance), true
	case "max_balance_raw":
		return strconv.FormatInt(t.MaxBalance, 10), true
	case "damage_multiplier":
		return strconv.FormatFloat(t.DamageMultiplier, 'f', -1, 64), true
	case "mob_xp_multiplier", "exp_multiplier":
		return strconv.FormatFloat(t.MobXPMultiplier, 'f', -1, 64), true
	case "vault_count", "vault_amount":
		return strconv.Itoa(t.VaultCount), true
	}
	return "", false
}

func (r *PlaceholderResolver) memberByName(g *model.Guild, name string) (model.Member, bool) {
	for _, m := range g.Members {
		if strings.EqualFold(r.playerName(m.PlayerID), name) {
			return m, true
		}
	}
	return model.Member{}, false
}

func (r *PlaceholderResolver) playerName(playerID string) string {
	if r.players == nil {
		return playerID
	}
	return r.players.Name(playerID)
}

func (r *PlaceholderResolver) money(amount int64) string {
	if r.ledger == nil {
		return strconv.FormatInt(amount, 10)
	}
	return r.ledger.Format(amount)
}
