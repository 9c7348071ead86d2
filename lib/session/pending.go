package session

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// CommandKind is the operation a command performs
type CommandKind int

const (
	CmdPut CommandKind = iota
	CmdGet
	CmdDelete
)

func (k CommandKind) String() string {
	switch k {
	case CmdPut:
		return "put"
	case CmdGet:
		return "get"
	case CmdDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Command is one outstanding operation of a session
type Command struct {
	ID        uint64
	Kind      CommandKind
	Key       string
	Value     string // only set for CmdPut
	CreatedAt time.Time

	future  *Future
	payload []byte // the encoded request
}

// Future returns the completion handle of the command
func (c *Command) Future() *Future {
	return c.future
}

// PendingTable maps request ids to the commands waiting for their reply.
// It keeps the insertion order, so the oldest command can be found without scanning the map.
type PendingTable struct {
	mu    sync.Mutex // guards order
	items *xsync.MapOf[uint64, *Command]
	order []uint64
}

// NewPendingTable creates an empty table
func NewPendingTable() *PendingTable {
	return &PendingTable{
		items: xsync.NewMapOf[uint64, *Command](),
	}
}

// Add inserts a command under its id. It reports false if the id is already taken.
func (p *PendingTable) Add(cmd *Command) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, loaded := p.items.LoadOrStore(cmd.ID, cmd); loaded {
		return false
	}
	p.order = append(p.order, cmd.ID)
	return true
}

// Take removes the command with the given id and returns it
func (p *PendingTable) Take(id uint64) (*Command, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cmd, ok := p.items.LoadAndDelete(id)
	if !ok {
		return nil, false
	}

	// replies usually arrive in issuance order, so the id is almost always at the front
	for i, v := range p.order {
		if v == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return cmd, true
}

// Oldest returns the command that was added first and is still pending
func (p *PendingTable) Oldest() (*Command, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.order) == 0 {
		return nil, false
	}
	return p.items.Load(p.order[0])
}

// Len returns the number of pending commands
func (p *PendingTable) Len() int {
	return p.items.Size()
}

// Drain removes all commands and returns them in insertion order
func (p *PendingTable) Drain() []*Command {
	p.mu.Lock()
	defer p.mu.Unlock()

	cmds := make([]*Command, 0, len(p.order))
	for _, id := range p.order {
		if cmd, ok := p.items.LoadAndDelete(id); ok {
			cmds = append(cmds, cmd)
		}
	}
	p.order = nil
	return cmds
}
