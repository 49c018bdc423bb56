package netsim

import (
	"log/slog"

	"github.com/malbeclabs/fabric-sim/internal/ledger"
)

// Poster is anything a Link can deliver a Message to: append it to an
// inbox and schedule processing (§4.3, §4.4). Both Node and everything
// embedding it satisfy this.
type Poster interface {
	Post(m *Message)
}

// MessageHandler is the single abstract method the base Node contract
// requires of its concrete variants (Host, Switch), replacing the
// Python ABC's abstractmethod on_message with Go composition (§9 DESIGN
// NOTES).
type MessageHandler interface {
	OnMessage(m *Message)
}

// Node is the common actor base: a name, a run context, and a FIFO
// inbox (§3, §4.4).
type Node struct {
	Name    string
	Run     *ledger.Run
	Log     *slog.Logger
	handler MessageHandler

	inbox []*Message
}

// NewNode constructs a Node whose message-arrival callback is delegated to
// handler — normally the concrete struct embedding this Node, wired in a
// two-phase construction (see NewHost/NewSwitch).
func NewNode(name string, run *ledger.Run, log *slog.Logger, handler MessageHandler) *Node {
	if log == nil {
		log = run.Log
	}
	return &Node{Name: name, Run: run, Log: log, handler: handler}
}

// NodeName returns the node's display name, letting callers that only
// hold a Poster (e.g. Link) recover a name for diagnostics/visualization
// without widening the Poster contract itself.
func (n *Node) NodeName() string { return n.Name }

// Post appends a message to the inbox and schedules an immediate
// (delay-0) handle event. Multiple messages posted at the same instant
// are each processed as their own scheduler tick, preserving causal
// interleaving with other nodes' zero-delay events (§4.4).
func (n *Node) Post(m *Message) {
	if n.handler == nil {
		panic("netsim: Node.Post called before handler was wired — construction bug")
	}
	n.inbox = append(n.inbox, m)
	_ = n.Run.Scheduler.Schedule(0, n.handle)
}

// handle pops the head of the inbox and dispatches it; if more remain it
// re-schedules itself for another zero-delay tick, guaranteeing
// per-message causal ordering (§4.4).
func (n *Node) handle() {
	if len(n.inbox) == 0 {
		return
	}
	m := n.inbox[0]
	n.inbox = n.inbox[1:]
	n.handler.OnMessage(m)
	if len(n.inbox) > 0 {
		_ = n.Run.Scheduler.Schedule(0, n.handle)
	}
}
