package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/roles"
	"github.com/dukex/flowdraft/pkg/validation"
)

var (
	ErrSessionClosed  = errors.New("editor session closed")
	ErrSaveInProgress = errors.New("save in progress")
	ErrNodeNotFound   = errors.New("node not found")
	ErrEdgeNotFound   = errors.New("edge not found")
	ErrEntityNotFound = errors.New("graph entity not found")
	ErrDuplicateID    = errors.New("duplicate graph entity id")
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNothingToRedo  = errors.New("nothing to redo")
)

const (
	DefaultSaveTimeout = 30 * time.Second
	DefaultMaxHistory  = 100
)

// Backend loads and persists workflow graphs. SaveGraph returns the
// temporary id to persisted id mapping of entities it created.
type Backend interface {
	LoadGraph(ctx context.Context, workflowID string) (*models.Graph, error)
	SaveGraph(ctx context.Context, workflowID string, graph *models.Graph) (map[models.ID]models.ID, error)
}

// StateListener observes state changes. It runs with the session locked and
// must not call back into the session.
type StateListener func(workflowID string, from, to State, dirty bool)

type Config struct {
	SaveTimeout time.Duration
	MaxHistory  int
	Roles       roles.Provider
	Listener    StateListener
	Logger      *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = DefaultSaveTimeout
	}

	if c.MaxHistory <= 0 {
		c.MaxHistory = DefaultMaxHistory
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	return c
}

// NodePatch carries the fields to change; nil fields are left alone.
type NodePatch struct {
	Name        *string `json:"name"`
	Role        *string `json:"role"`
	Description *string `json:"description"`
	IsStart     *bool   `json:"is_start"`
	IsEnd       *bool   `json:"is_end"`
	PositionX   *int    `json:"position_x"`
	PositionY   *int    `json:"position_y"`
}

type EdgePatch struct {
	Name   *string    `json:"name"`
	Source *models.ID `json:"source"`
	Target *models.ID `json:"target"`
}

// Status is a point-in-time view of a session.
type Status struct {
	WorkflowID string      `json:"workflow_id"`
	State      State       `json:"state"`
	Dirty      bool        `json:"dirty"`
	CanUndo    bool        `json:"can_undo"`
	CanRedo    bool        `json:"can_redo"`
	Selection  []models.ID `json:"selection"`
}

type revision struct {
	id    uint64
	graph *models.Graph
}

// Session is one user's draft of a workflow graph. All methods are safe for
// concurrent use; the backend call of Save is the only one that blocks.
type Session struct {
	mu sync.Mutex

	workflowID string
	backend    Backend
	cfg        Config
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	state     State
	draft     *models.Graph
	revision  uint64
	baseline  uint64
	lastRev   uint64
	undo      []revision
	redo      []revision
	selection []models.ID
}

// Open loads the workflow graph from backend and starts a clean session on it.
func Open(ctx context.Context, workflowID string, backend Backend, cfg Config) (*Session, error) {
	graph, err := backend.LoadGraph(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow %s graph: %w", workflowID, err)
	}

	cfg = cfg.withDefaults()
	sessionCtx, cancel := context.WithCancel(context.Background())

	s := &Session{
		workflowID: workflowID,
		backend:    backend,
		cfg:        cfg,
		logger:     cfg.Logger.With("module", "editor", "workflow_id", workflowID),
		ctx:        sessionCtx,
		cancel:     cancel,
		state:      StateClean,
	}
	s.reset(graph)

	return s, nil
}

func (s *Session) WorkflowID() string {
	return s.workflowID
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Dirty reports unsaved changes. A draft being saved is still dirty until the save succeeds.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state != StateClean
}

// Draft returns a copy of the current draft.
func (s *Session) Draft() *models.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.draft.Clone()
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		WorkflowID: s.workflowID,
		State:      s.state,
		Dirty:      s.state != StateClean,
		CanUndo:    len(s.undo) > 0,
		CanRedo:    len(s.redo) > 0,
		Selection:  slices.Clone(s.selection),
	}
}

// Close aborts any in-flight save and rejects further use.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	s.cancel()
}

// AddNode appends a node. An empty id is replaced by a temporary one; a
// caller-provided id must be temporary.
func (s *Session) AddNode(node models.GraphNode) (models.GraphNode, error) {
	if node.ID == "" {
		node.ID = models.NewTemporaryID()
	} else if !node.ID.IsTemporary() {
		return models.GraphNode{}, fmt.Errorf("%w: new nodes need a temporary id, got %q", models.ErrInvalidID, node.ID)
	}

	node.ToDelete = false

	err := s.mutate(func(g *models.Graph) error {
		if exists(g, node.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, node.ID)
		}

		added := node
		g.Nodes = append(g.Nodes, &added)

		return nil
	})

	return node, err
}

// Replace swaps the whole draft for graph as a single undoable change.
// Stored entities missing from graph are dropped on the next save.
func (s *Session) Replace(graph *models.Graph) error {
	return s.mutate(func(g *models.Graph) error {
		next := graph.Clone()
		g.Nodes = next.Nodes
		g.Edges = next.Edges

		return nil
	})
}

func (s *Session) UpdateNode(id models.ID, patch NodePatch) (models.GraphNode, error) {
	var updated models.GraphNode

	err := s.mutate(func(g *models.Graph) error {
		n, ok := g.Node(id)
		if !ok || n.ToDelete {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}

		if patch.Name != nil {
			n.Name = *patch.Name
		}

		if patch.Role != nil {
			n.Role = *patch.Role
		}

		if patch.Description != nil {
			n.Description = *patch.Description
		}

		if patch.IsStart != nil {
			n.IsStart = *patch.IsStart
		}

		if patch.IsEnd != nil {
			n.IsEnd = *patch.IsEnd
		}

		if patch.PositionX != nil {
			n.PositionX = *patch.PositionX
		}

		if patch.PositionY != nil {
			n.PositionY = *patch.PositionY
		}

		updated = *n

		return nil
	})

	return updated, err
}

// DeleteNode marks a persisted node and its transitions for deletion. Nodes
// that only exist in the draft are removed outright together with their
// draft-only transitions.
func (s *Session) DeleteNode(id models.ID) error {
	return s.mutate(func(g *models.Graph) error {
		n, ok := g.Node(id)
		if !ok || n.ToDelete {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}

		if id.IsTemporary() {
			g.Nodes = slices.DeleteFunc(g.Nodes, func(n *models.GraphNode) bool { return n.ID == id })
		} else {
			n.ToDelete = true
		}

		touches := func(e *models.GraphEdge) bool {
			return (e.Source != nil && *e.Source == id) || (e.Target != nil && *e.Target == id)
		}

		g.Edges = slices.DeleteFunc(g.Edges, func(e *models.GraphEdge) bool {
			return touches(e) && e.ID.IsTemporary()
		})

		for _, e := range g.Edges {
			if touches(e) {
				e.ToDelete = true
			}
		}

		return nil
	})
}

// AddEdge appends a transition. Non-nil endpoints must name active nodes.
func (s *Session) AddEdge(edge models.GraphEdge) (models.GraphEdge, error) {
	if edge.ID == "" {
		edge.ID = models.NewTemporaryID()
	} else if !edge.ID.IsTemporary() {
		return models.GraphEdge{}, fmt.Errorf("%w: new transitions need a temporary id, got %q", models.ErrInvalidID, edge.ID)
	}

	edge.ToDelete = false

	err := s.mutate(func(g *models.Graph) error {
		if exists(g, edge.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, edge.ID)
		}

		if err := checkEndpoints(g, edge.Source, edge.Target); err != nil {
			return err
		}

		g.Edges = append(g.Edges, edge.Clone())

		return nil
	})

	return edge, err
}

func (s *Session) UpdateEdge(id models.ID, patch EdgePatch) (models.GraphEdge, error) {
	var updated models.GraphEdge

	err := s.mutate(func(g *models.Graph) error {
		e, ok := g.Edge(id)
		if !ok || e.ToDelete {
			return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
		}

		if err := checkEndpoints(g, patch.Source, patch.Target); err != nil {
			return err
		}

		if patch.Name != nil {
			e.Name = *patch.Name
		}

		if patch.Source != nil {
			e.Source = models.IDRef(*patch.Source)
		}

		if patch.Target != nil {
			e.Target = models.IDRef(*patch.Target)
		}

		updated = *e.Clone()

		return nil
	})

	return updated, err
}

func (s *Session) DeleteEdge(id models.ID) error {
	return s.mutate(func(g *models.Graph) error {
		e, ok := g.Edge(id)
		if !ok || e.ToDelete {
			return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
		}

		if id.IsTemporary() {
			g.Edges = slices.DeleteFunc(g.Edges, func(e *models.GraphEdge) bool { return e.ID == id })
		} else {
			e.ToDelete = true
		}

		return nil
	})
}

// Select replaces the selection. Selecting does not touch the draft and is
// allowed while saving.
func (s *Session) Select(ids ...models.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	for _, id := range ids {
		if !active(s.draft, id) {
			return fmt.Errorf("%w: %s", ErrEntityNotFound, id)
		}
	}

	s.selection = slices.Compact(slices.Clone(ids))

	return nil
}

func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}

	if len(s.undo) == 0 {
		return ErrNothingToUndo
	}

	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, revision{id: s.revision, graph: s.draft})
	s.restore(prev)

	return nil
}

func (s *Session) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}

	if len(s.redo) == 0 {
		return ErrNothingToRedo
	}

	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, revision{id: s.revision, graph: s.draft})
	s.restore(next)

	return nil
}

// Validate runs the aggregate graph validation on the current draft.
func (s *Session) Validate(ctx context.Context) models.ValidationResult {
	roster := roles.Resolve(ctx, s.logger, s.cfg.Roles)

	return validation.ValidateGraph(s.Draft(), roster)
}

// Reload discards the draft and history and starts over from the stored graph.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	err := s.writable()
	s.mu.Unlock()

	if err != nil {
		return err
	}

	graph, err := s.backend.LoadGraph(ctx, s.workflowID)
	if err != nil {
		return fmt.Errorf("failed to reload workflow %s graph: %w", s.workflowID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}

	s.reset(graph)
	s.fire(EventRevert)

	return nil
}

func (s *Session) mutate(fn func(g *models.Graph) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}

	next := s.draft.Clone()
	if err := fn(next); err != nil {
		return err
	}

	s.undo = append(s.undo, revision{id: s.revision, graph: s.draft})
	if len(s.undo) > s.cfg.MaxHistory {
		s.undo = slices.Delete(s.undo, 0, len(s.undo)-s.cfg.MaxHistory)
	}

	s.redo = nil
	s.draft = next
	s.lastRev++
	s.revision = s.lastRev
	s.pruneSelection()
	s.fire(EventMutate)

	return nil
}

func (s *Session) restore(r revision) {
	s.draft = r.graph
	s.revision = r.id
	s.pruneSelection()

	if s.revision == s.baseline {
		s.fire(EventRevert)
	} else {
		s.fire(EventMutate)
	}
}

// reset installs graph as the new baseline. Callers hold the lock.
func (s *Session) reset(graph *models.Graph) {
	s.draft = graph.Clone()
	s.undo = nil
	s.redo = nil
	s.lastRev++
	s.revision = s.lastRev
	s.baseline = s.revision
	s.pruneSelection()
}

func (s *Session) writable() error {
	if s.closed {
		return ErrSessionClosed
	}

	if s.state == StateSaving {
		return ErrSaveInProgress
	}

	return nil
}

func (s *Session) fire(event Event) {
	from := s.state

	to, err := Transition(from, event)
	if err != nil {
		s.logger.Error("Rejected editor state transition", "error", err)

		return
	}

	s.state = to

	if from != to {
		s.logger.Debug("Editor state changed", "from", from, "to", to)

		if s.cfg.Listener != nil {
			s.cfg.Listener(s.workflowID, from, to, to != StateClean)
		}
	}
}

func (s *Session) pruneSelection() {
	s.selection = slices.DeleteFunc(s.selection, func(id models.ID) bool {
		return !active(s.draft, id)
	})
}

func exists(g *models.Graph, id models.ID) bool {
	_, isNode := g.Node(id)
	_, isEdge := g.Edge(id)

	return isNode || isEdge
}

func active(g *models.Graph, id models.ID) bool {
	if n, ok := g.Node(id); ok && !n.ToDelete {
		return true
	}

	if e, ok := g.Edge(id); ok && !e.ToDelete {
		return true
	}

	return false
}

func checkEndpoints(g *models.Graph, endpoints ...*models.ID) error {
	for _, id := range endpoints {
		if id == nil {
			continue
		}

		if n, ok := g.Node(*id); !ok || n.ToDelete {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, *id)
		}
	}

	return nil
}
