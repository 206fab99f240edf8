package scp

import (
	"testing"

	"github.com/botho-project/botho/pkg/scpmsg"
	"golang.org/x/crypto/ed25519"
)

func acceptAllValues(Value) bool { return true }

// TestSlotSingleNodeNominateReachesOwnVote checks, for a lone node with no
// peer traffic, that its own Nominate call yields a signed nominate
// envelope.
func TestSlotSingleNodeNominateReachesOwnVote(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	var self NodeID
	copy(self[:], pub)

	qsets := symmetricQuorumSets([]NodeID{self}, 1)
	slot := NewSlot(1, self, priv, qsets[self], qsets, acceptAllValues)

	v := valueWithPriority(7, 1)
	env, err := slot.Nominate(v)
	if err != nil {
		t.Fatal(err)
	}
	if env.Kind != scpmsg.KindNominate {
		t.Fatalf("expected a nominate envelope, got kind %v", env.Kind)
	}
}

// TestFourNodeQuorumExternalizesSameValue drives four symmetric
// threshold-3-of-4 nodes through nomination, prepare, confirm, and
// externalize by simulating full-mesh gossip: every envelope one node
// produces is delivered to all four, and each node's own response is
// requeued until the network produces no new distinct statement.
func TestFourNodeQuorumExternalizesSameValue(t *testing.T) {
	type participant struct {
		id   NodeID
		priv ed25519.PrivateKey
		slot *Slot
	}

	ids := make([]NodeID, 0, 4)
	privs := make([]ed25519.PrivateKey, 0, 4)
	for i := 0; i < 4; i++ {
		pub, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			t.Fatal(err)
		}
		var id NodeID
		copy(id[:], pub)
		ids = append(ids, id)
		privs = append(privs, priv)
	}
	qsets := symmetricQuorumSets(ids, 3)

	participants := make([]*participant, 0, 4)
	for i, id := range ids {
		s := NewSlot(1, id, privs[i], qsets[id], qsets, acceptAllValues)
		participants = append(participants, &participant{id: id, priv: privs[i], slot: s})
	}

	value := valueWithPriority(9, 1)

	var queue []*scpmsg.Envelope
	for _, p := range participants {
		env, err := p.slot.Nominate(value)
		if err != nil {
			t.Fatal(err)
		}
		queue = append(queue, env)
	}

	seen := map[string]bool{}
	rounds := 0
	for len(queue) > 0 && rounds < 2000 {
		rounds++
		env := queue[0]
		queue = queue[1:]
		key := string(env.Signature)
		if seen[key] {
			continue
		}
		seen[key] = true

		for _, p := range participants {
			resp, err := p.slot.HandleEnvelope(env)
			if err != nil {
				t.Fatalf("node %x rejected a message from %x: %v", p.id[:2], env.SenderID[:2], err)
			}
			if resp != nil {
				queue = append(queue, resp)
			}
		}
	}

	for i, p := range participants {
		got, _, ok := p.slot.Externalized()
		if !ok {
			t.Fatalf("node %d never externalized a value after %d rounds", i, rounds)
		}
		if got != value {
			t.Fatalf("node %d externalized an unexpected value: %+v", i, got)
		}
	}
}

// TestByzantineEquivocationStillExternalizesSameValue simulates a four-node
// threshold-3-of-4 quorum {A,B,C,D} in which D equivocates: it signs two
// different, individually valid Nominate envelopes for the same slot and
// sends one to A and B, and a conflicting one to C, rather than ever
// rebroadcasting a single consistent vote. A, B, and C otherwise gossip
// honestly and full-mesh among themselves. Since threshold 3 of 4 lets any
// three members form a quorum without the fourth, the honest nodes still
// externalize the same value despite never agreeing on what D voted for.
func TestByzantineEquivocationStillExternalizesSameValue(t *testing.T) {
	type participant struct {
		id   NodeID
		priv ed25519.PrivateKey
		slot *Slot
	}

	ids := make([]NodeID, 0, 4)
	privs := make([]ed25519.PrivateKey, 0, 4)
	for i := 0; i < 4; i++ {
		pub, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			t.Fatal(err)
		}
		var id NodeID
		copy(id[:], pub)
		ids = append(ids, id)
		privs = append(privs, priv)
	}
	qsets := symmetricQuorumSets(ids, 3)

	participants := make([]*participant, 0, 4)
	for i, id := range ids {
		s := NewSlot(1, id, privs[i], qsets[id], qsets, acceptAllValues)
		participants = append(participants, &participant{id: id, priv: privs[i], slot: s})
	}
	honest := participants[:3]
	byzantine := participants[3]

	honestValue := valueWithPriority(9, 1)
	conflictingValue := valueWithPriority(4, 1)

	toAB, err := scpmsg.Sign(byzantine.priv, byzantine.id, 1, scpmsg.KindNominate,
		NominatePayload{Voted: []Value{honestValue}}.encode())
	if err != nil {
		t.Fatal(err)
	}
	toC, err := scpmsg.Sign(byzantine.priv, byzantine.id, 1, scpmsg.KindNominate,
		NominatePayload{Voted: []Value{conflictingValue}}.encode())
	if err != nil {
		t.Fatal(err)
	}

	var queue []*scpmsg.Envelope
	for _, p := range honest {
		env, err := p.slot.Nominate(honestValue)
		if err != nil {
			t.Fatal(err)
		}
		queue = append(queue, env)
	}

	deliverByzantine := func(env *scpmsg.Envelope, to []*participant) {
		for _, p := range to {
			resp, err := p.slot.HandleEnvelope(env)
			if err != nil {
				t.Fatalf("honest node rejected D's envelope: %v", err)
			}
			if resp != nil {
				queue = append(queue, resp)
			}
		}
	}
	deliverByzantine(toAB, []*participant{participants[0], participants[1]})
	deliverByzantine(toC, []*participant{participants[2]})

	seen := map[string]bool{}
	rounds := 0
	for len(queue) > 0 && rounds < 2000 {
		rounds++
		env := queue[0]
		queue = queue[1:]
		key := string(env.Signature)
		if seen[key] {
			continue
		}
		seen[key] = true

		for _, p := range honest {
			resp, err := p.slot.HandleEnvelope(env)
			if err != nil {
				t.Fatalf("node %x rejected a message from %x: %v", p.id[:2], env.SenderID[:2], err)
			}
			if resp != nil {
				queue = append(queue, resp)
			}
		}
	}

	for i, p := range honest {
		got, _, ok := p.slot.Externalized()
		if !ok {
			t.Fatalf("honest node %d never externalized a value after %d rounds despite D's equivocation", i, rounds)
		}
		if got != honestValue {
			t.Fatalf("honest node %d externalized an unexpected value: %+v", i, got)
		}
	}
}
