// Package p2p is the gossip collaborator: it publishes and receives the
// canonical byte encodings for blocks, transactions, and consensus
// envelopes over the three stable topic names, and otherwise knows nothing
// about their contents. Message interpretation belongs to pkg/ledger,
// pkg/mempool, and pkg/scp.
package p2p

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"

	"github.com/botho-project/botho/pkg/logctx"
)

// Topic names are stable across implementations; the substrate behind them
// (here, libp2p-pubsub) is free to vary.
const (
	BlockTopic       = "botho/blocks/1"
	TransactionTopic = "botho/transactions/1"
	ConsensusTopic   = "botho/scp/1"

	maxPeers    = 50
	peerTimeout = 30 * time.Second
)

// Handler processes one gossip message's raw, length-prefixed-free payload
// bytes (pkg/ledger/pkg/mempool/pkg/scp already do their own canonical
// decoding; this package hands them the bytes as received).
type Handler func(data []byte) error

// Network owns the libp2p host, the pubsub router, and per-topic
// subscriptions/handlers for the three gossip topics.
type Network struct {
	host   host.Host
	pubsub *pubsub.PubSub
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger

	blockSub *pubsub.Subscription
	txSub    *pubsub.Subscription
	scpSub   *pubsub.Subscription

	blockHandler Handler
	txHandler    Handler
	scpHandler   Handler

	peers     map[peer.ID]time.Time
	peerMutex sync.RWMutex
}

// New creates a libp2p host listening on listenPort and connects to every
// address in bootstrapPeers on a best-effort basis (a failed bootstrap dial
// is logged, not fatal — the node can still be reached by inbound peers).
func New(listenPort uint, bootstrapPeers []string, log *zap.Logger) (*Network, error) {
	ctx, cancel := context.WithCancel(context.Background())
	log = logctx.Component(log, "p2p")

	h, err := libp2p.New(
		libp2p.ListenAddrStrings(fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", listenPort)),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		cancel()
		h.Close()
		return nil, err
	}

	n := &Network{
		host:   h,
		pubsub: ps,
		ctx:    ctx,
		cancel: cancel,
		log:    log,
		peers:  make(map[peer.ID]time.Time),
	}

	for _, addr := range bootstrapPeers {
		if err := n.connectPeer(addr); err != nil {
			log.Warn("failed to connect to bootstrap peer", zap.String("addr", addr), zap.Error(err))
		}
	}

	return n, nil
}

// SetBlockHandler registers the callback for BlockTopic messages.
func (n *Network) SetBlockHandler(h Handler) { n.blockHandler = h }

// SetTransactionHandler registers the callback for TransactionTopic messages.
func (n *Network) SetTransactionHandler(h Handler) { n.txHandler = h }

// SetConsensusHandler registers the callback for ConsensusTopic messages.
func (n *Network) SetConsensusHandler(h Handler) { n.scpHandler = h }

// Start subscribes to all three topics and launches their listener loops
// plus peer bookkeeping.
func (n *Network) Start() error {
	var err error
	if n.blockSub, err = n.pubsub.Subscribe(BlockTopic); err != nil {
		return err
	}
	if n.txSub, err = n.pubsub.Subscribe(TransactionTopic); err != nil {
		return err
	}
	if n.scpSub, err = n.pubsub.Subscribe(ConsensusTopic); err != nil {
		return err
	}

	go n.listen(n.blockSub, n.blockHandler)
	go n.listen(n.txSub, n.txHandler)
	go n.listen(n.scpSub, n.scpHandler)
	go n.managePeers()

	return nil
}

// PublishBlock gossips a canonical block encoding.
func (n *Network) PublishBlock(data []byte) error { return n.pubsub.Publish(BlockTopic, data) }

// PublishTransaction gossips a canonical transaction encoding.
func (n *Network) PublishTransaction(data []byte) error {
	return n.pubsub.Publish(TransactionTopic, data)
}

// PublishConsensus gossips a canonical SCP envelope encoding.
func (n *Network) PublishConsensus(data []byte) error {
	return n.pubsub.Publish(ConsensusTopic, data)
}

func (n *Network) listen(sub *pubsub.Subscription, handler Handler) {
	for {
		msg, err := sub.Next(n.ctx)
		if err != nil {
			if n.ctx.Err() != nil {
				return
			}
			n.log.Warn("gossip receive error, retrying", zap.Error(err))
			continue
		}
		if msg.ReceivedFrom == n.host.ID() {
			continue
		}
		n.touchPeer(msg.ReceivedFrom)
		if handler == nil {
			continue
		}
		if err := handler(msg.Data); err != nil {
			n.log.Debug("gossip message rejected", zap.Error(err))
		}
	}
}

func (n *Network) connectPeer(addrStr string) error {
	addr, err := multiaddr.NewMultiaddr(addrStr)
	if err != nil {
		return err
	}
	info, err := peer.AddrInfoFromP2pAddr(addr)
	if err != nil {
		return err
	}
	return n.host.Connect(n.ctx, *info)
}

func (n *Network) touchPeer(p peer.ID) {
	n.peerMutex.Lock()
	defer n.peerMutex.Unlock()
	n.peers[p] = time.Now()
}

func (n *Network) managePeers() {
	ticker := time.NewTicker(peerTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n.evictStalePeers()
		case <-n.ctx.Done():
			return
		}
	}
}

func (n *Network) evictStalePeers() {
	n.peerMutex.Lock()
	defer n.peerMutex.Unlock()
	now := time.Now()
	for p, lastSeen := range n.peers {
		if now.Sub(lastSeen) > peerTimeout {
			delete(n.peers, p)
			n.host.Network().ClosePeer(p)
		}
	}
}

// PeerCount reports the number of peers this node has heard from recently.
func (n *Network) PeerCount() int {
	n.peerMutex.RLock()
	defer n.peerMutex.RUnlock()
	return len(n.peers)
}

// HostID returns this node's libp2p peer identity.
func (n *Network) HostID() peer.ID { return n.host.ID() }

// Addrs returns this node's listen multiaddresses.
func (n *Network) Addrs() []multiaddr.Multiaddr { return n.host.Addrs() }

// Close shuts the network down.
func (n *Network) Close() error {
	n.cancel()
	return n.host.Close()
}
