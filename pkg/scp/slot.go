package scp

import (
	"sort"
	"sync"

	"github.com/botho-project/botho/pkg/scpmsg"
	"golang.org/x/crypto/ed25519"
)

// Phase is where a Slot's ballot protocol currently stands. Nomination runs
// concurrently with (and feeds) the ballot protocol, so Phase only tracks
// the ballot side.
type Phase int

const (
	PhasePrepare Phase = iota
	PhaseConfirm
	PhaseExternalize
)

func (p Phase) String() string {
	switch p {
	case PhasePrepare:
		return "prepare"
	case PhaseConfirm:
		return "confirm"
	case PhaseExternalize:
		return "externalize"
	default:
		return "unknown"
	}
}

// ValueValidator reports whether a candidate Value names a minting
// transaction this node can itself validate (the block builder's job, not
// this package's). HandleEnvelope rejects any statement naming a value that
// fails this check, without disconnecting the sender.
type ValueValidator func(Value) bool

// Slot runs one instance of federated voting to externalize a single
// consensus Value: nomination feeding the ballot protocol's
// prepare/confirm/externalize phases, exactly mirroring the accept/confirm
// rules in quorum.go. A Slot rejects malformed or out-of-protocol messages
// but never disconnects their sender — that policy decision belongs to the
// transport layer.
type Slot struct {
	mu sync.Mutex

	id         uint64
	self       NodeID
	priv       ed25519.PrivateKey
	selfQS     QuorumSet
	quorumSets map[NodeID]QuorumSet
	universe   []NodeID
	validate   ValueValidator

	// Nomination state: for each peer (including self), the value sets it
	// has most recently claimed to vote for / accept.
	nomPeerVoted    map[NodeID]map[Value]bool
	nomPeerAccepted map[NodeID]map[Value]bool
	nomConfirmed    map[Value]bool

	// Ballot protocol state.
	phase         Phase
	current       Ballot
	prepared      *Ballot
	preparedPrime *Ballot
	cn            uint32
	hn            uint32

	peerPrepare map[NodeID]PreparePayload
	peerCommit  map[NodeID]CommitPayload

	externalized   *Value
	externalizedHN uint32
}

// NewSlot prepares a Slot for id, under the given node identity and quorum
// configuration. quorumSets must contain an entry for every node named in
// selfQS (transitively) plus self.
func NewSlot(id uint64, self NodeID, priv ed25519.PrivateKey, selfQS QuorumSet, quorumSets map[NodeID]QuorumSet, validate ValueValidator) *Slot {
	universe := universeOf(quorumSets)
	return &Slot{
		id:              id,
		self:            self,
		priv:            priv,
		selfQS:          selfQS,
		quorumSets:      quorumSets,
		universe:        universe,
		validate:        validate,
		nomPeerVoted:    map[NodeID]map[Value]bool{self: {}},
		nomPeerAccepted: map[NodeID]map[Value]bool{self: {}},
		nomConfirmed:    map[Value]bool{},
		peerPrepare:     map[NodeID]PreparePayload{},
		peerCommit:      map[NodeID]CommitPayload{},
	}
}

// Phase reports the ballot protocol's current phase.
func (s *Slot) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Externalized reports the value this slot has externalized, if any.
func (s *Slot) Externalized() (Value, uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.externalized == nil {
		return Value{}, 0, false
	}
	return *s.externalized, s.externalizedHN, true
}

// Nominate adds v to this node's nomination vote and returns the envelope to
// broadcast.
func (s *Slot) Nominate(v Value) (*scpmsg.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nomPeerVoted[s.self][v] = true
	return s.signNominate()
}

func (s *Slot) signNominate() (*scpmsg.Envelope, error) {
	payload := NominatePayload{
		Voted:    sortedValueSet(s.nomPeerVoted[s.self]),
		Accepted: sortedValueSet(s.nomPeerAccepted[s.self]),
	}
	return scpmsg.Sign(s.priv, s.self, s.id, scpmsg.KindNominate, payload.encode())
}

func sortedValueSet(set map[Value]bool) []Value {
	out := make([]Value, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// HandleEnvelope validates and applies an inbound envelope, returning this
// node's own updated statement to rebroadcast (or nil if nothing changed).
func (s *Slot) HandleEnvelope(env *scpmsg.Envelope) (*scpmsg.Envelope, error) {
	if err := env.Verify(); err != nil {
		return nil, errBadSignature
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if env.Slot != s.id {
		return nil, errSlotMismatch
	}
	if _, ok := s.quorumSets[env.SenderID]; !ok {
		return nil, errUnknownSender
	}

	switch env.Kind {
	case scpmsg.KindNominate:
		payload, err := decodeNominatePayload(env.Payload)
		if err != nil {
			return nil, errMalformedPayload
		}
		return s.applyNominate(env.SenderID, payload)
	case scpmsg.KindPrepare:
		payload, err := decodePreparePayload(env.Payload)
		if err != nil {
			return nil, errMalformedPayload
		}
		if !payload.Ballot.Sorted() {
			return nil, errUnsortedBallot
		}
		return s.applyPrepare(env.SenderID, payload)
	case scpmsg.KindCommit:
		payload, err := decodeCommitPayload(env.Payload)
		if err != nil {
			return nil, errMalformedPayload
		}
		if !payload.Ballot.Sorted() {
			return nil, errUnsortedBallot
		}
		return s.applyCommit(env.SenderID, payload)
	case scpmsg.KindExternalize:
		payload, err := decodeExternalizePayload(env.Payload)
		if err != nil {
			return nil, errMalformedPayload
		}
		return s.applyExternalize(env.SenderID, payload)
	default:
		return nil, errMalformedPayload
	}
}

func (s *Slot) applyNominate(sender NodeID, payload NominatePayload) (*scpmsg.Envelope, error) {
	for _, v := range payload.Voted {
		if !s.validate(v) {
			return nil, errUnknownValue
		}
	}
	for _, v := range payload.Accepted {
		if !s.validate(v) {
			return nil, errUnknownValue
		}
	}
	s.nomPeerVoted[sender] = toSet(payload.Voted)
	s.nomPeerAccepted[sender] = toSet(payload.Accepted)

	changed := false
	for v := range s.candidateNomValues() {
		if s.nomPeerAccepted[s.self][v] {
			continue
		}
		votedOrAccepted := s.nodesFor(v, true)
		acceptedOnly := s.nodesFor(v, false)
		if FederatedAccept(votedOrAccepted, acceptedOnly, s.selfQS, s.quorumSets, s.universe) {
			s.nomPeerAccepted[s.self][v] = true
			delete(s.nomPeerVoted[s.self], v)
			changed = true
		}
	}
	for v := range s.nomPeerAccepted[s.self] {
		if s.nomConfirmed[v] {
			continue
		}
		if FederatedConfirm(s.nodesFor(v, false), s.quorumSets) {
			s.nomConfirmed[v] = true
			changed = true
		}
	}

	if len(s.nomConfirmed) > 0 && s.current.Counter == 0 {
		s.current = Ballot{Counter: 1, Values: sortedValueSet(s.nomConfirmed)}
		return s.signPrepare()
	}
	if !changed {
		return nil, nil
	}
	return s.signNominate()
}

// candidateNomValues is the set of values mentioned by any peer statement so
// far, the universe this node evaluates federated accept/confirm over.
func (s *Slot) candidateNomValues() map[Value]bool {
	out := map[Value]bool{}
	for _, set := range s.nomPeerVoted {
		for v := range set {
			out[v] = true
		}
	}
	for _, set := range s.nomPeerAccepted {
		for v := range set {
			out[v] = true
		}
	}
	return out
}

// nodesFor returns the set of nodes whose statement counts toward v:
// includeVoted also counts nodes that have merely voted (not yet accepted).
func (s *Slot) nodesFor(v Value, includeVoted bool) map[NodeID]bool {
	out := map[NodeID]bool{}
	for n, set := range s.nomPeerAccepted {
		if set[v] {
			out[n] = true
		}
	}
	if includeVoted {
		for n, set := range s.nomPeerVoted {
			if set[v] {
				out[n] = true
			}
		}
	}
	return out
}

func toSet(values []Value) map[Value]bool {
	out := make(map[Value]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}

func (s *Slot) signPrepare() (*scpmsg.Envelope, error) {
	payload := PreparePayload{
		Ballot:        s.current,
		Prepared:      s.prepared,
		PreparedPrime: s.preparedPrime,
		CN:            s.cn,
		HN:            s.hn,
	}
	return scpmsg.Sign(s.priv, s.self, s.id, scpmsg.KindPrepare, payload.encode())
}

func (s *Slot) signCommit() (*scpmsg.Envelope, error) {
	payload := CommitPayload{Ballot: s.current, CN: s.cn, HN: s.hn}
	return scpmsg.Sign(s.priv, s.self, s.id, scpmsg.KindCommit, payload.encode())
}

func (s *Slot) applyPrepare(sender NodeID, payload PreparePayload) (*scpmsg.Envelope, error) {
	s.peerPrepare[sender] = payload

	b := payload.Ballot
	if b.Compare(s.current) > 0 {
		s.current = b
	}

	votedOrAccepted := map[NodeID]bool{}
	acceptedOnly := map[NodeID]bool{}
	for n, p := range s.peerPrepare {
		if p.Ballot.Compare(b) >= 0 {
			votedOrAccepted[n] = true
		}
		if p.Prepared != nil && p.Prepared.Compare(b) >= 0 {
			acceptedOnly[n] = true
			votedOrAccepted[n] = true
		}
	}

	accepted := s.prepared != nil && s.prepared.Compare(b) >= 0
	if !accepted && FederatedAccept(votedOrAccepted, acceptedOnly, s.selfQS, s.quorumSets, s.universe) {
		if s.prepared == nil || b.Compare(*s.prepared) > 0 {
			if s.prepared != nil && s.prepared.Incompatible(b) {
				pp := *s.prepared
				s.preparedPrime = &pp
			}
			nb := b
			s.prepared = &nb
			accepted = true
		}
	}

	if accepted && FederatedConfirm(acceptedOnly, s.quorumSets) {
		s.phase = PhaseConfirm
		if s.hn < b.Counter {
			s.hn = b.Counter
		}
		if s.cn == 0 {
			s.cn = b.Counter
		}
		return s.signCommit()
	}
	return s.signPrepare()
}

func (s *Slot) applyCommit(sender NodeID, payload CommitPayload) (*scpmsg.Envelope, error) {
	s.peerCommit[sender] = payload

	votedOrAccepted := map[NodeID]bool{}
	acceptedOnly := map[NodeID]bool{}
	for n, c := range s.peerCommit {
		if c.Ballot.Compare(payload.Ballot) >= 0 {
			votedOrAccepted[n] = true
			acceptedOnly[n] = true
		}
	}

	if !FederatedConfirm(acceptedOnly, s.quorumSets) {
		return s.signCommit()
	}

	s.phase = PhaseExternalize
	if len(payload.Ballot.Values) == 0 {
		return nil, errMalformedPayload
	}
	v := payload.Ballot.Values[0]
	s.externalized = &v
	s.externalizedHN = payload.HN
	ep := ExternalizePayload{Value: v, HN: payload.HN}
	return scpmsg.Sign(s.priv, s.self, s.id, scpmsg.KindExternalize, ep.encode())
}

func (s *Slot) applyExternalize(_ NodeID, payload ExternalizePayload) (*scpmsg.Envelope, error) {
	if !s.validate(payload.Value) {
		return nil, errUnknownValue
	}
	if s.externalized != nil {
		return nil, nil
	}
	s.phase = PhaseExternalize
	v := payload.Value
	s.externalized = &v
	s.externalizedHN = payload.HN
	ep := ExternalizePayload{Value: v, HN: payload.HN}
	return scpmsg.Sign(s.priv, s.self, s.id, scpmsg.KindExternalize, ep.encode())
}
