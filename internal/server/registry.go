package server

import (
	"fmt"
	"sort"
	"sync"

	"chat-relay/internal/game"
	"chat-relay/internal/network"
)

// Phase is the state of the game session between two users
type Phase int

const (
	PhaseNone Phase = iota
	PhasePendingInvite
	PhaseActive
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhasePendingInvite:
		return "pending_invite"
	case PhaseActive:
		return "active"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// PairKey identifies an unordered pair of users
type PairKey struct {
	A string
	B string
}

// NewPairKey orders the two names so {x, y} and {y, x} share a key
func NewPairKey(x, y string) PairKey {
	if y < x {
		x, y = y, x
	}
	return PairKey{A: x, B: y}
}

func (k PairKey) other(name string) string {
	if name == k.A {
		return k.B
	}
	return k.A
}

type pairSession struct {
	phase   Phase
	inviter string
	target  string
	game    *game.Game
}

type inviteKey struct {
	inviter string
	target  string
	kind    network.InviteKind
}

// GameStart is returned when an accepted invitation becomes a game
type GameStart struct {
	Game *game.Game
	// X is the inviter, O the user who accepted
	X *Client
	O *Client
}

// MoveReport is returned for an accepted move
type MoveReport struct {
	Result   game.MoveResult
	Mover    *Client
	Opponent *Client
}

// TeardownReport lists who must be told about a departed user
type TeardownReport struct {
	// Owned is true for the one report that announces the departure
	Owned bool
	// InviteCounterparts had a DM or group chat invitation with the user
	InviteCounterparts []*Client
	// GameInviteCounterparts had a pending game invitation with the user
	GameInviteCounterparts []*Client
	// Forfeits were mid-game with the user
	Forfeits []*Client
}

// Registry owns every table shared between sessions: the user directory,
// pending DM and group chat invitations, and the per-pair game sessions.
// One mutex guards all of them and every method is a single critical section.
type Registry struct {
	mu      sync.Mutex
	users   map[string]*Client
	invites map[inviteKey]uint64
	pairs   map[PairKey]*pairSession
	seq     uint64
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		users:   make(map[string]*Client),
		invites: make(map[inviteKey]uint64),
		pairs:   make(map[PairKey]*pairSession),
	}
}

// Add registers c under name. A name can be held by one session at a time.
func (r *Registry) Add(c *Client, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[name]; exists {
		return fmt.Errorf("%s: %w", name, ErrAlreadyLoggedIn)
	}
	c.Username = name
	r.users[name] = c
	return nil
}

// Abandon takes back the name claimed by a session that never joined. Its
// teardown announces nothing.
func (r *Registry) Abandon(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseLocked(c)
	c.report = TeardownReport{}
}

// Lookup returns the session holding name
func (r *Registry) Lookup(name string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.users[name]
	return c, ok
}

// Names returns the sorted list of online users
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.users))
	for name := range r.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clients returns every online session except exclude, ordered by name
func (r *Registry) Clients(exclude *Client) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients := make([]*Client, 0, len(r.users))
	for _, c := range r.users {
		if c != exclude {
			clients = append(clients, c)
		}
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].Username < clients[j].Username })
	return clients
}

// Resolve maps names to online sessions, skipping exclude and repeats.
// Names that are not online are returned in missing.
func (r *Registry) Resolve(names []string, exclude *Client) (found []*Client, missing []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		c, ok := r.users[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if c != exclude {
			found = append(found, c)
		}
	}
	return found, missing
}

// RequestInvite records an invitation from inviter to target and returns the
// target's session so the caller can notify it
func (r *Registry) RequestInvite(inviter, target string, kind network.InviteKind) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inviter == target {
		return nil, ErrSelfInvite
	}
	targetClient, ok := r.users[target]
	if !ok {
		return nil, fmt.Errorf("%s: %w", target, ErrTargetNotFound)
	}

	if kind == network.InviteGame {
		key := NewPairKey(inviter, target)
		if _, exists := r.pairs[key]; exists {
			return nil, fmt.Errorf("%s and %s: %w", inviter, target, ErrAlreadyPendingOrActive)
		}
		r.pairs[key] = &pairSession{
			phase:   PhasePendingInvite,
			inviter: inviter,
			target:  target,
		}
		return targetClient, nil
	}

	key := inviteKey{inviter: inviter, target: target, kind: kind}
	if _, exists := r.invites[key]; exists {
		return nil, fmt.Errorf("%s to %s: %w", kind, target, ErrAlreadyPendingOrActive)
	}
	r.seq++
	r.invites[key] = r.seq
	return targetClient, nil
}

// ResolveInvite consumes the oldest DM or group chat invitation from inviter
// to target. It returns the inviter's session (nil if it has gone) and the
// kind that was resolved.
func (r *Registry) ResolveInvite(target, inviter string) (*Client, network.InviteKind, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		found  bool
		oldest inviteKey
		seq    uint64
	)
	for _, kind := range []network.InviteKind{network.InviteDM, network.InviteGroupChat} {
		key := inviteKey{inviter: inviter, target: target, kind: kind}
		if s, ok := r.invites[key]; ok && (!found || s < seq) {
			found, oldest, seq = true, key, s
		}
	}
	if !found {
		return nil, 0, fmt.Errorf("from %s: %w", inviter, ErrNoSuchInvite)
	}

	delete(r.invites, oldest)
	return r.users[inviter], oldest.kind, nil
}

// HasInvite reports whether a DM or group chat invitation is pending
func (r *Registry) HasInvite(inviter, target string, kind network.InviteKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.invites[inviteKey{inviter: inviter, target: target, kind: kind}]
	return ok
}

// Phase reports the game session phase between a and b
func (r *Registry) Phase(a, b string) Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pairs[NewPairKey(a, b)]; ok {
		return p.phase
	}
	return PhaseNone
}

// GameSnapshot returns the board and current turn of the active game between a and b
func (r *Registry) GameSnapshot(a, b string) (game.Grid, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pairs[NewPairKey(a, b)]
	if !ok || p.phase != PhaseActive {
		return game.Grid{}, "", false
	}
	return p.game.Grid(), p.game.CurrentTurn(), true
}

// AcceptGame turns the pending invitation from inviter to target into an
// active game with the inviter playing X
func (r *Registry) AcceptGame(target, inviter string) (GameStart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := NewPairKey(inviter, target)
	p, ok := r.pairs[key]
	if !ok || p.phase != PhasePendingInvite || p.inviter != inviter || p.target != target {
		return GameStart{}, fmt.Errorf("game from %s: %w", inviter, ErrNoSuchInvite)
	}

	p.phase = PhaseActive
	p.game = game.NewGame(inviter, target)
	return GameStart{Game: p.game, X: r.users[inviter], O: r.users[target]}, nil
}

// RejectGame discards the pending invitation from inviter to target and
// returns the inviter's session
func (r *Registry) RejectGame(target, inviter string) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := NewPairKey(inviter, target)
	p, ok := r.pairs[key]
	if !ok || p.phase != PhasePendingInvite || p.inviter != inviter || p.target != target {
		return nil, fmt.Errorf("game from %s: %w", inviter, ErrNoSuchInvite)
	}

	delete(r.pairs, key)
	return r.users[inviter], nil
}

// CreateGame starts a game between a (X) and b (O) directly. The pair must
// have no pending or active session.
func (r *Registry) CreateGame(a, b string) (GameStart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a == b {
		return GameStart{}, ErrSelfInvite
	}
	key := NewPairKey(a, b)
	if _, exists := r.pairs[key]; exists {
		return GameStart{}, fmt.Errorf("%s and %s: %w", a, b, ErrAlreadyPendingOrActive)
	}

	g := game.NewGame(a, b)
	r.pairs[key] = &pairSession{phase: PhaseActive, inviter: a, target: b, game: g}
	return GameStart{Game: g, X: r.users[a], O: r.users[b]}, nil
}

// ApplyMove validates and applies a move in the active game between mover
// and opponent. A finished game is removed in the same critical section.
func (r *Registry) ApplyMove(mover, opponent string, row, col int) (MoveReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := NewPairKey(mover, opponent)
	p, ok := r.pairs[key]
	if !ok || p.phase != PhaseActive || mover == opponent {
		return MoveReport{}, fmt.Errorf("with %s: %w", opponent, ErrNoActiveGame)
	}

	res, err := p.game.Move(mover, row, col)
	if err != nil {
		return MoveReport{}, err
	}
	if res.Outcome != game.InProgress {
		p.phase = PhaseTerminated
		delete(r.pairs, key)
	}

	return MoveReport{Result: res, Mover: r.users[mover], Opponent: r.users[opponent]}, nil
}

// Release removes c and every invitation and game naming its user. It runs
// at most once per session; the report is kept on c for Teardown. A handle
// whose name is held by a different session releases nothing.
func (r *Registry) Release(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseLocked(c)
}

// Teardown releases c if that has not happened yet and hands back its report.
// Only the first call for a session reports Owned.
func (r *Registry) Teardown(c *Client) TeardownReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseLocked(c)
	report := c.report
	c.report = TeardownReport{}
	return report
}

func (r *Registry) releaseLocked(c *Client) {
	if c.released {
		return
	}
	c.released = true

	name := c.Username
	if current, ok := r.users[name]; !ok || current != c {
		return
	}
	delete(r.users, name)

	report := TeardownReport{Owned: true}

	notified := make(map[string]bool)
	for key := range r.invites {
		var other string
		switch name {
		case key.inviter:
			other = key.target
		case key.target:
			other = key.inviter
		default:
			continue
		}
		delete(r.invites, key)
		if peer, ok := r.users[other]; ok && !notified[other] {
			notified[other] = true
			report.InviteCounterparts = append(report.InviteCounterparts, peer)
		}
	}

	for key, p := range r.pairs {
		if key.A != name && key.B != name {
			continue
		}
		peer, online := r.users[key.other(name)]
		switch p.phase {
		case PhasePendingInvite:
			if online {
				report.GameInviteCounterparts = append(report.GameInviteCounterparts, peer)
			}
		case PhaseActive:
			if online {
				report.Forfeits = append(report.Forfeits, peer)
			}
		}
		p.phase = PhaseTerminated
		delete(r.pairs, key)
	}

	c.report = report
}
