package editor

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/roles"
	"github.com/dukex/flowdraft/pkg/validation"
)

type SaveStatus int

const (
	SaveStatusSaved SaveStatus = iota
	// SaveStatusNoChanges means the draft was clean and nothing was sent.
	SaveStatusNoChanges
	// SaveStatusIgnored means another save was already running.
	SaveStatusIgnored
	// SaveStatusInvalid means validation errors blocked the save.
	SaveStatusInvalid
	// SaveStatusNeedsConfirmation means warnings must be acknowledged first.
	SaveStatusNeedsConfirmation
)

func (s SaveStatus) String() string {
	switch s {
	case SaveStatusSaved:
		return "saved"
	case SaveStatusNoChanges:
		return "no_changes"
	case SaveStatusIgnored:
		return "ignored"
	case SaveStatusInvalid:
		return "invalid"
	case SaveStatusNeedsConfirmation:
		return "needs_confirmation"
	default:
		return fmt.Sprintf("save_status(%d)", int(s))
	}
}

func (s SaveStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SaveStatus) UnmarshalText(text []byte) error {
	for candidate := SaveStatusSaved; candidate <= SaveStatusNeedsConfirmation; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate

			return nil
		}
	}

	return fmt.Errorf("unknown save status %q", text)
}

type SaveOptions struct {
	// AcknowledgeWarnings confirms the user has seen the current warnings.
	AcknowledgeWarnings bool
}

type SaveOutcome struct {
	Status      SaveStatus              `json:"status"`
	Validation  models.ValidationResult `json:"validation"`
	AssignedIDs map[models.ID]models.ID `json:"assigned_ids,omitempty"`
}

// SaveError wraps a backend failure. The draft is left untouched and dirty.
type SaveError struct {
	WorkflowID string
	Err        error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save workflow %s graph: %v", e.WorkflowID, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// Save validates the draft and, when allowed, hands it to the backend exactly
// once. The backend call runs on a context derived from the session: it is
// bounded by the save timeout and cancelled by Close or by ctx.
func (s *Session) Save(ctx context.Context, opts SaveOptions) (SaveOutcome, error) {
	roster := roles.Resolve(ctx, s.logger, s.cfg.Roles)

	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return SaveOutcome{}, ErrSessionClosed
	}

	switch s.state {
	case StateSaving:
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Save ignored, another save is running")

		return SaveOutcome{Status: SaveStatusIgnored}, nil
	case StateClean:
		s.mu.Unlock()

		return SaveOutcome{Status: SaveStatusNoChanges}, nil
	}

	result := validation.ValidateGraph(s.draft, roster)

	if !result.IsValid {
		s.mu.Unlock()

		return SaveOutcome{Status: SaveStatusInvalid, Validation: result}, nil
	}

	if result.HasWarnings() && !opts.AcknowledgeWarnings {
		s.mu.Unlock()

		return SaveOutcome{Status: SaveStatusNeedsConfirmation, Validation: result}, nil
	}

	s.fire(EventSave)
	draft := s.draft.Clone()
	saveCtx, cancel := context.WithTimeout(s.ctx, s.cfg.SaveTimeout)
	s.mu.Unlock()

	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	mapping, err := s.backend.SaveGraph(saveCtx, s.workflowID, draft)
	if err != nil {
		s.mu.Lock()
		s.fire(EventSaveFailed)
		s.mu.Unlock()

		s.logger.WarnContext(ctx, "Graph save failed", "error", err)

		return SaveOutcome{Validation: result}, &SaveError{WorkflowID: s.workflowID, Err: err}
	}

	saved, err := s.backend.LoadGraph(saveCtx, s.workflowID)
	if err != nil {
		s.logger.WarnContext(ctx, "Reload after save failed, applying assigned ids locally", "error", err)

		saved = draft.Compact()
		applyMapping(saved, mapping)
	}

	s.mu.Lock()
	selection := slices.Clone(s.selection)
	s.reset(saved)
	s.selection = remapSelection(selection, mapping, s.draft)
	s.fire(EventSaveSucceeded)
	s.mu.Unlock()

	return SaveOutcome{Status: SaveStatusSaved, Validation: result, AssignedIDs: mapping}, nil
}

// LeaveGuard reports whether navigating away would lose unsaved changes.
func (s *Session) LeaveGuard() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.closed && s.state != StateClean
}

// HandleShortcut runs Save for the save key combination. The second return
// value reports whether combo was handled.
func (s *Session) HandleShortcut(ctx context.Context, combo string) (SaveOutcome, bool, error) {
	if !IsSaveShortcut(combo) {
		return SaveOutcome{}, false, nil
	}

	outcome, err := s.Save(ctx, SaveOptions{})

	return outcome, true, err
}

// IsSaveShortcut matches ctrl+s, cmd+s and meta+s in any case and order.
func IsSaveShortcut(combo string) bool {
	parts := strings.Split(strings.ToLower(strings.ReplaceAll(combo, " ", "")), "+")
	if len(parts) != 2 {
		return false
	}

	var modifier, key bool

	for _, p := range parts {
		switch p {
		case "ctrl", "control", "cmd", "command", "meta":
			modifier = true
		case "s":
			key = true
		}
	}

	return modifier && key
}

func applyMapping(g *models.Graph, mapping map[models.ID]models.ID) {
	remap := func(id models.ID) models.ID {
		if mapped, ok := mapping[id]; ok {
			return mapped
		}

		return id
	}

	for _, n := range g.Nodes {
		n.ID = remap(n.ID)
	}

	for _, e := range g.Edges {
		e.ID = remap(e.ID)

		if e.Source != nil {
			e.Source = models.IDRef(remap(*e.Source))
		}

		if e.Target != nil {
			e.Target = models.IDRef(remap(*e.Target))
		}
	}
}

func remapSelection(selection []models.ID, mapping map[models.ID]models.ID, g *models.Graph) []models.ID {
	out := make([]models.ID, 0, len(selection))

	for _, id := range selection {
		if mapped, ok := mapping[id]; ok {
			id = mapped
		}

		if active(g, id) {
			out = append(out, id)
		}
	}

	return slices.Clip(out)
}
