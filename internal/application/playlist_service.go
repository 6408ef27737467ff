package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/input"
	"playlist-bot/internal/ports/output"
	"playlist-bot/internal/telemetry"
	"playlist-bot/pkg/statetoken"
)

// DefaultUploadTimeout bounds a cover image download plus upload
const DefaultUploadTimeout = 30 * time.Second

// Compile-time check to ensure PlaylistService implements the input port
var _ input.PlaylistService = (*PlaylistService)(nil)

// StateSigner issues and verifies OAuth state tokens
type StateSigner interface {
	Sign(chatID, userID string) (string, error)
	Parse(raw string) (statetoken.Payload, error)
}

// PlaylistService struct - Application service driving the per-chat playlist flow.
// There is no per-chat locking: two events for the same chat may both pass
// their guards before either writes.
type PlaylistService struct {
	storage       output.Storage
	authorizer    output.MusicAuthorizer
	media         output.MediaFetcher
	signer        StateSigner
	uploadTimeout time.Duration
	table         map[transitionKey]transition
}

// NewPlaylistService func - Creates new playlist service
func NewPlaylistService(
	storage output.Storage,
	authorizer output.MusicAuthorizer,
	media output.MediaFetcher,
	signer StateSigner,
	uploadTimeout time.Duration,
) *PlaylistService {
	if uploadTimeout <= 0 {
		uploadTimeout = DefaultUploadTimeout
	}
	s := &PlaylistService{
		storage:       storage,
		authorizer:    authorizer,
		media:         media,
		signer:        signer,
		uploadTimeout: uploadTimeout,
	}
	s.table = s.transitions()
	return s
}

// HandleEvent func - Use case: Runs one chat event through the dispatch table.
// The returned error is non-nil only for failures that were not resolved
// locally; the outcome still carries the reply for the chat.
func (s *PlaylistService) HandleEvent(ctx context.Context, event domain.ChatEvent) (*domain.Outcome, error) {
	outcome := &domain.Outcome{ChatID: event.ChatID}
	t := &turn{event: event, outcome: outcome}
	t.trigger, t.trackID = classify(event)

	session, err := s.storage.GetSession(ctx, event.ChatID)
	if err != nil {
		logrus.Errorf("Failed to load session for chat %s: %v", event.ChatID, err)
		outcome.Reply(replyGenericFailure)
		telemetry.ObserveEvent(string(t.trigger), "error")
		return outcome, err
	}
	t.session = session

	row, ok := lookup(s.table, t.state(), t.trigger)
	if !ok {
		logrus.Debugf("Ignoring %s in state %s for chat %s", t.trigger, t.state(), event.ChatID)
		telemetry.ObserveEvent(string(t.trigger), "ignored")
		return outcome, nil
	}

	for _, check := range row.guards {
		if err = check(ctx, t); err != nil {
			return s.fail(t, err)
		}
	}
	if err = row.action(ctx, t); err != nil {
		return s.fail(t, err)
	}

	if row.next.commit && row.next.state != t.state() {
		if err = s.storage.SaveState(ctx, event.ChatID, row.next.state); err != nil {
			logrus.Errorf("Failed to save state %s for chat %s: %v", row.next.state, event.ChatID, err)
			outcome.Messages = nil
			outcome.AuthorizationURL = ""
			outcome.Reply(replyGenericFailure)
			telemetry.ObserveEvent(string(t.trigger), "error")
			return outcome, err
		}
		if row.afterCommit != nil {
			if err = row.afterCommit(ctx, t); err != nil {
				return s.rollback(ctx, t, row.next.state, err)
			}
		}
		logrus.Infof("Chat %s moved from %s to %s", event.ChatID, t.state(), row.next.state)
		telemetry.ObserveTransition(t.state().String(), row.next.state.String())
	}

	telemetry.ObserveEvent(string(t.trigger), "ok")
	return outcome, nil
}

// CompleteAuthorization func - Use case: Finishes the OAuth handshake started by /createplaylist
func (s *PlaylistService) CompleteAuthorization(ctx context.Context, callback domain.AuthorizationCallback) (*domain.Outcome, error) {
	payload, err := s.signer.Parse(callback.State)
	if err != nil {
		telemetry.ObserveAuthorization("invalid_state")
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidState, err)
	}
	if callback.Code == "" {
		telemetry.ObserveAuthorization("invalid_state")
		return nil, fmt.Errorf("%w: missing authorization code", domain.ErrInvalidState)
	}

	session, err := s.storage.GetSession(ctx, payload.ChatID)
	if err != nil {
		telemetry.ObserveAuthorization("error")
		return nil, err
	}
	if session.HasOwner() && session.OwnerUserID != payload.UserID {
		logrus.Warnf("Authorization for chat %s by %s, but owner is %s", payload.ChatID, payload.UserID, session.OwnerUserID)
		telemetry.ObserveAuthorization("unauthorized")
		return nil, domain.ErrUnauthorized
	}

	cache := NewCredentialCache(payload.ChatID, payload.UserID, s.storage)
	if _, err = s.authorizer.Exchange(ctx, callback.Code, cache); err != nil {
		logrus.Errorf("Failed to exchange authorization code for chat %s: %v", payload.ChatID, err)
		telemetry.ObserveAuthorization("error")
		return nil, err
	}

	logrus.Infof("Chat %s authorized by %s", payload.ChatID, payload.UserID)
	telemetry.ObserveAuthorization("ok")
	outcome := &domain.Outcome{ChatID: payload.ChatID}
	outcome.Reply(replyAuthorizedEnterName)
	return outcome, nil
}

// rollback restores the previous state after a follow-up write failed, so the
// transition is not left half applied
func (s *PlaylistService) rollback(ctx context.Context, t *turn, attempted domain.ConversationState, cause error) (*domain.Outcome, error) {
	logrus.Errorf("Failed to complete move to %s for chat %s: %v", attempted, t.event.ChatID, cause)
	if err := s.storage.SaveState(ctx, t.event.ChatID, t.state()); err != nil {
		logrus.Errorf("Failed to restore state %s for chat %s: %v", t.state(), t.event.ChatID, err)
		cause = errors.Join(cause, err)
	}
	t.outcome.Messages = nil
	t.outcome.AuthorizationURL = ""
	t.outcome.Reply(replyGenericFailure)
	telemetry.ObserveEvent(string(t.trigger), "error")
	return t.outcome, cause
}

func (s *PlaylistService) fail(t *turn, err error) (*domain.Outcome, error) {
	reply, resolved := replyFor(err)
	t.outcome.Reply(reply)
	if resolved {
		logrus.Infof("Rejected %s for chat %s: %v", t.trigger, t.event.ChatID, err)
		telemetry.ObserveEvent(string(t.trigger), "rejected")
		return t.outcome, nil
	}
	logrus.Errorf("Failed %s for chat %s: %v", t.trigger, t.event.ChatID, err)
	telemetry.ObserveEvent(string(t.trigger), "error")
	return t.outcome, err
}

// classify maps an inbound event onto a trigger
func classify(event domain.ChatEvent) (trigger, string) {
	switch event.Type {
	case domain.InboundCommand:
		switch event.Command {
		case "start":
			return triggerWelcome, ""
		case "help":
			return triggerHelp, ""
		case "createplaylist":
			return triggerStartCreation, ""
		case "changeplaylistname":
			return triggerRename, ""
		case "changeplaylistimage":
			return triggerCoverChange, ""
		case "resetplaylist":
			return triggerReset, ""
		case "unlink":
			return triggerUnlink, ""
		case "playlistlink":
			return triggerPlaylistLink, ""
		default:
			return triggerUnknown, ""
		}
	case domain.InboundImage:
		return triggerImage, ""
	default:
		if trackID, ok := domain.ExtractTrackID(event.Text); ok {
			return triggerTrackLink, trackID
		}
		return triggerText, ""
	}
}

// Guards

func (s *PlaylistService) requireNoPlaylist(_ context.Context, t *turn) error {
	if t.session.HasPlaylist() {
		return reject(domain.ErrConflict, replyPlaylistExists)
	}
	return nil
}

func (s *PlaylistService) requireNotCreating(_ context.Context, t *turn) error {
	if t.state() == domain.StateCreatingPlaylist {
		return reject(domain.ErrConflict, replyAlreadyCreating)
	}
	return nil
}

// requireStartOwner rejects a start by anyone but an already bound owner
func (s *PlaylistService) requireStartOwner(ctx context.Context, t *turn) error {
	actor := t.event.UserID
	if t.session.HasOwner() && t.session.OwnerUserID != actor {
		return reject(domain.ErrUnauthorized, replyNotAuthorized)
	}
	credentialOwner, err := s.storage.GetOwnerFromCredentials(ctx, t.event.ChatID)
	if err != nil {
		return err
	}
	if credentialOwner != "" && credentialOwner != actor {
		return reject(domain.ErrUnauthorized, replyNotAuthorized)
	}
	return nil
}

// requireCreationOwner checks the actor against every owner source that is bound
func (s *PlaylistService) requireCreationOwner(ctx context.Context, t *turn) error {
	actor := t.event.UserID
	credentialOwner, err := s.storage.GetOwnerFromCredentials(ctx, t.event.ChatID)
	if err != nil {
		return err
	}
	bound := false
	for _, owner := range []string{credentialOwner, t.owner()} {
		if owner == "" {
			continue
		}
		bound = true
		if owner != actor {
			return reject(domain.ErrUnauthorized, replyNotAuthorized)
		}
	}
	if !bound {
		return reject(domain.ErrUnauthorized, replyNotAuthorized)
	}
	return nil
}

func (s *PlaylistService) requireSessionOwner(_ context.Context, t *turn) error {
	if !t.session.HasOwner() || t.session.OwnerUserID != t.event.UserID {
		return reject(domain.ErrUnauthorized, replyNotAuthorized)
	}
	return nil
}

func (s *PlaylistService) requirePlaylist(reply string) guard {
	return func(_ context.Context, t *turn) error {
		if !t.session.HasPlaylist() {
			return reject(domain.ErrNotFound, reply)
		}
		return nil
	}
}

func (s *PlaylistService) requireLinked(ctx context.Context, t *turn) error {
	hasCredentials, err := s.storage.ExistsCredentials(ctx, t.event.ChatID)
	if err != nil {
		return err
	}
	hasSession, err := s.storage.ExistsSession(ctx, t.event.ChatID)
	if err != nil {
		return err
	}
	if !hasCredentials || !hasSession {
		return reject(domain.ErrNotFound, replyUnlinkNotFound)
	}
	return nil
}

// Actions

func (s *PlaylistService) sendWelcome(_ context.Context, t *turn) error {
	t.outcome.Reply(replyWelcome)
	return nil
}

func (s *PlaylistService) sendHelp(_ context.Context, t *turn) error {
	t.outcome.Reply(replyHelp)
	return nil
}

func (s *PlaylistService) sendUnknownCommand(_ context.Context, t *turn) error {
	t.outcome.Reply(replyUnknownCommand(t.event.Command))
	return nil
}

func (s *PlaylistService) promptFor(reply string) action {
	return func(_ context.Context, t *turn) error {
		t.outcome.Reply(reply)
		return nil
	}
}

// startCreation only reads; the owner is bound by bindStarter once the state is committed
func (s *PlaylistService) startCreation(ctx context.Context, t *turn) error {
	owner := t.owner()
	if owner == "" {
		owner = t.event.UserID
	}
	cache := NewCredentialCache(t.event.ChatID, owner, s.storage)
	status, err := s.authorizer.ValidateToken(ctx, cache)
	if err != nil {
		return err
	}
	if status == domain.TokenValid {
		t.outcome.Reply(replyEnterPlaylistName)
		return nil
	}

	authURL, err := s.authorizationURL(t.event.ChatID, owner)
	if err != nil {
		return err
	}
	t.outcome.AuthorizationURL = authURL
	t.outcome.Reply(replyAuthorize(authURL))
	return nil
}

func (s *PlaylistService) bindStarter(ctx context.Context, t *turn) error {
	_, err := s.storage.BindOwner(ctx, t.event.ChatID, t.event.UserID)
	return err
}

func (s *PlaylistService) createPlaylist(ctx context.Context, t *turn) error {
	name := strings.TrimSpace(t.event.Text)
	cache := NewCredentialCache(t.event.ChatID, t.event.UserID, s.storage)
	status, err := s.authorizer.ValidateToken(ctx, cache)
	if err != nil {
		return err
	}
	if status != domain.TokenValid {
		// Not linked yet: hand out a fresh authorization link and keep waiting for the name
		authURL, errURL := s.authorizationURL(t.event.ChatID, t.event.UserID)
		if errURL != nil {
			return errURL
		}
		t.outcome.AuthorizationURL = authURL
		return reject(domain.ErrNotFound, replyAuthorize(authURL))
	}

	client, err := s.authorizer.Client(ctx, cache)
	if err != nil {
		return rejectWithCause(domain.ErrExternalAPI, replyCreatePlaylistFail, err)
	}
	playlistID, err := client.CreatePlaylist(ctx, name)
	if err != nil {
		return rejectWithCause(domain.ErrExternalAPI, replyCreatePlaylistFail, err)
	}
	if err = s.storage.SavePlaylist(ctx, t.event.ChatID, playlistID); err != nil {
		return err
	}
	if _, err = s.storage.BindOwner(ctx, t.event.ChatID, t.event.UserID); err != nil {
		return err
	}
	t.outcome.Reply(replyPlaylistCreated(name))
	return nil
}

func (s *PlaylistService) uploadCover(ctx context.Context, t *turn) error {
	uploadCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	image, err := s.media.FetchImage(uploadCtx, t.event.ImageMessageID)
	if err != nil {
		if timedOut(uploadCtx, err) {
			logrus.Warnf("Image download timed out for chat %s: %v", t.event.ChatID, err)
			return reject(domain.ErrTimeout, replyUploadTimeout)
		}
		return rejectWithCause(domain.ErrExternalAPI, replyCoverFail, err)
	}
	encoded, err := domain.EncodeCoverImage(image)
	if err != nil {
		return rejectWithCause(domain.ErrPayloadTooLarge, replyImageTooLarge, err)
	}

	t.outcome.Reply(replyProcessingImage)
	cache := NewCredentialCache(t.event.ChatID, "", s.storage)
	client, err := s.authorizer.Client(uploadCtx, cache)
	if err != nil {
		return rejectWithCause(domain.ErrExternalAPI, replyCoverFail, err)
	}
	if err = client.SetCoverImage(uploadCtx, t.playlistID(), encoded); err != nil {
		switch {
		case timedOut(uploadCtx, err):
			logrus.Warnf("Image upload timed out for chat %s: %v", t.event.ChatID, err)
			return reject(domain.ErrTimeout, replyUploadTimeout)
		case errors.Is(err, domain.ErrInsufficientScope):
			return rejectWithCause(domain.ErrExternalAPI, replyCoverScope, err)
		default:
			return rejectWithCause(domain.ErrExternalAPI, replyCoverFail, err)
		}
	}

	t.outcome.Reply(replyCoverSet)
	if t.state() == domain.StateAwaitingPlaylistImage {
		t.outcome.ReplyWithPreview(replyPlaylistLink(domain.PlaylistURL(t.playlistID())))
	}
	return nil
}

func (s *PlaylistService) renamePlaylist(ctx context.Context, t *turn) error {
	name := strings.TrimSpace(t.event.Text)
	cache := NewCredentialCache(t.event.ChatID, "", s.storage)
	client, err := s.authorizer.Client(ctx, cache)
	if err != nil {
		return rejectWithCause(domain.ErrExternalAPI, replyRenameFail, err)
	}
	if err = client.RenamePlaylist(ctx, t.playlistID(), name); err != nil {
		return rejectWithCause(domain.ErrExternalAPI, replyRenameFail, err)
	}
	t.outcome.Reply(replyPlaylistRenamed(name))
	return nil
}

func (s *PlaylistService) addTrack(ctx context.Context, t *turn) error {
	cache := NewCredentialCache(t.event.ChatID, "", s.storage)
	client, err := s.authorizer.Client(ctx, cache)
	if err != nil {
		return rejectWithCause(domain.ErrExternalAPI, replyAddTrackFail, err)
	}
	if err = client.AddTrack(ctx, t.playlistID(), t.trackID); err != nil {
		if errors.Is(err, domain.ErrInsufficientScope) {
			return rejectWithCause(domain.ErrExternalAPI, replyAddTrackScope, err)
		}
		return rejectWithCause(domain.ErrExternalAPI, replyAddTrackFail, err)
	}
	t.outcome.React(reactionTrackAdded)
	return nil
}

func (s *PlaylistService) sendPlaylistLink(_ context.Context, t *turn) error {
	t.outcome.ReplyWithPreview(replyPlaylistLink(domain.PlaylistURL(t.playlistID())))
	return nil
}

func (s *PlaylistService) resetPlaylist(ctx context.Context, t *turn) error {
	if err := s.storage.DeleteSession(ctx, t.event.ChatID); err != nil {
		return rejectWithCause(domain.ErrStorage, replyResetFail, err)
	}
	t.outcome.Reply(replyReset)
	return nil
}

func (s *PlaylistService) unlink(ctx context.Context, t *turn) error {
	if err := s.storage.DeleteCredentials(ctx, t.event.ChatID); err != nil {
		return rejectWithCause(domain.ErrStorage, replyUnlinkFail, err)
	}
	if err := s.storage.DeleteSession(ctx, t.event.ChatID); err != nil {
		return rejectWithCause(domain.ErrStorage, replyUnlinkFail, err)
	}
	t.outcome.Reply(replyUnlinked)
	return nil
}

func (s *PlaylistService) authorizationURL(chatID, ownerUserID string) (string, error) {
	state, err := s.signer.Sign(chatID, ownerUserID)
	if err != nil {
		return "", fmt.Errorf("sign state token: %w", err)
	}
	return s.authorizer.AuthCodeURL(state), nil
}

func timedOut(ctx context.Context, err error) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, domain.ErrTimeout)
}
