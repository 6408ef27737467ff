package application

import (
	"context"
	"errors"
	"fmt"

	"playlist-bot/internal/domain"
)

// trigger is the kind of event the state machine reacts to
type trigger string

const (
	triggerWelcome       trigger = "welcome"
	triggerHelp          trigger = "help"
	triggerStartCreation trigger = "start_playlist_creation"
	triggerText          trigger = "text_received"
	triggerImage         trigger = "image_received"
	triggerRename        trigger = "request_rename"
	triggerCoverChange   trigger = "request_cover_change"
	triggerTrackLink     trigger = "track_link_received"
	triggerReset         trigger = "reset"
	triggerUnlink        trigger = "unlink"
	triggerPlaylistLink  trigger = "playlist_link"
	triggerUnknown       trigger = "unknown_command"
)

// anyState matches every state in the dispatch table
const anyState domain.ConversationState = "*"

// next describes what happens to current_state after a successful action
type next struct {
	commit bool
	state  domain.ConversationState
}

var (
	stay = next{}
	// finish writes NoState, which removes the persisted field
	finish = next{commit: true, state: domain.NoState}
)

func moveTo(state domain.ConversationState) next {
	return next{commit: true, state: state}
}

// turn carries one event through guards and action
type turn struct {
	event   domain.ChatEvent
	trigger trigger
	session *domain.ChatSession
	outcome *domain.Outcome
	// trackID is set for track_link_received
	trackID string
}

func (t *turn) state() domain.ConversationState {
	if t.session == nil {
		return domain.NoState
	}
	return t.session.CurrentState
}

func (t *turn) owner() string {
	if t.session == nil {
		return ""
	}
	return t.session.OwnerUserID
}

func (t *turn) playlistID() string {
	if t.session == nil {
		return ""
	}
	return t.session.PlaylistID
}

type (
	guard  func(ctx context.Context, t *turn) error
	action func(ctx context.Context, t *turn) error
)

// transition is one row of the dispatch table. afterCommit runs only once
// the next state has been saved.
type transition struct {
	guards      []guard
	action      action
	next        next
	afterCommit action
}

type transitionKey struct {
	state   domain.ConversationState
	trigger trigger
}

// transitions builds the dispatch table of s. Exact (state, trigger) rows
// win over anyState rows; pairs with no row are ignored.
func (s *PlaylistService) transitions() map[transitionKey]transition {
	return map[transitionKey]transition{
		{anyState, triggerWelcome}: {action: s.sendWelcome, next: stay},
		{anyState, triggerHelp}:    {action: s.sendHelp, next: stay},
		{anyState, triggerUnknown}: {action: s.sendUnknownCommand, next: stay},

		{anyState, triggerStartCreation}: {
			guards: []guard{s.requireNoPlaylist, s.requireNotCreating, s.requireStartOwner},
			action:      s.startCreation,
			next:        moveTo(domain.StateCreatingPlaylist),
			afterCommit: s.bindStarter,
		},
		{domain.StateCreatingPlaylist, triggerText}: {
			guards: []guard{s.requireCreationOwner},
			action: s.createPlaylist,
			next:   moveTo(domain.StateAwaitingPlaylistImage),
		},
		{domain.StateAwaitingPlaylistImage, triggerImage}: {
			guards: []guard{s.requireSessionOwner, s.requirePlaylist(replyNoPlaylistFound)},
			action: s.uploadCover,
			next:   finish,
		},
		{domain.StateChangingPlaylistImage, triggerImage}: {
			guards: []guard{s.requireSessionOwner, s.requirePlaylist(replyNoPlaylistFound)},
			action: s.uploadCover,
			next:   finish,
		},
		{anyState, triggerRename}: {
			guards: []guard{s.requirePlaylist(replyNoPlaylistFound)},
			action: s.promptFor(replyEnterNewName),
			next:   moveTo(domain.StateChangingPlaylistName),
		},
		{domain.StateChangingPlaylistName, triggerText}: {
			guards: []guard{s.requireSessionOwner, s.requirePlaylist(replyNoPlaylistFound)},
			action: s.renamePlaylist,
			next:   finish,
		},
		{anyState, triggerCoverChange}: {
			guards: []guard{s.requirePlaylist(replyNoPlaylistFound)},
			action: s.promptFor(replySendNewImage),
			next:   moveTo(domain.StateChangingPlaylistImage),
		},
		{domain.StateCreatingPlaylist, triggerTrackLink}: {
			action: s.promptFor(replyWaitForCreation),
			next:   stay,
		},
		{anyState, triggerTrackLink}: {
			guards: []guard{s.requirePlaylist(replyNoPlaylistCreate)},
			action: s.addTrack,
			next:   stay,
		},
		{anyState, triggerPlaylistLink}: {
			guards: []guard{s.requirePlaylist(replyNoPlaylist)},
			action: s.sendPlaylistLink,
			next:   stay,
		},
		{anyState, triggerReset}: {
			action: s.resetPlaylist,
			next:   stay,
		},
		{anyState, triggerUnlink}: {
			guards: []guard{s.requireLinked},
			action: s.unlink,
			next:   stay,
		},
	}
}

// lookup finds the row for the current state and trigger
func lookup(table map[transitionKey]transition, state domain.ConversationState, tr trigger) (transition, bool) {
	if row, ok := table[transitionKey{state, tr}]; ok {
		return row, true
	}
	row, ok := table[transitionKey{anyState, tr}]
	return row, ok
}

// rejection is a guard or action failure with the reply the user should see
type rejection struct {
	kind  error
	reply string
	cause error
}

func reject(kind error, reply string) error {
	return &rejection{kind: kind, reply: reply}
}

func rejectWithCause(kind error, reply string, cause error) error {
	return &rejection{kind: kind, reply: reply, cause: cause}
}

func (r *rejection) Error() string {
	if r.cause != nil {
		return fmt.Sprintf("%v: %v", r.kind, r.cause)
	}
	return r.kind.Error()
}

func (r *rejection) Unwrap() []error {
	if r.cause == nil {
		return []error{r.kind}
	}
	return []error{r.kind, r.cause}
}

// replyFor returns the message for err and whether err was resolved locally.
// Storage and music API failures are not; callers log and surface them.
func replyFor(err error) (string, bool) {
	resolved := !errors.Is(err, domain.ErrStorage) && !errors.Is(err, domain.ErrExternalAPI)
	var r *rejection
	if errors.As(err, &r) {
		return r.reply, resolved
	}
	return replyGenericFailure, false
}
