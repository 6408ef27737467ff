package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/output"
)

// Mock implementations for testing

// MockLineClient implements output.LineClient for testing
type MockLineClient struct {
	ReplyMessageFunc func(request domain.LineReplyMessageRequest) (*domain.LineMessageResponse, error)
	PushMessageFunc  func(request domain.LinePushMessageRequest) (*domain.LineMessageResponse, error)

	// Captured values for assertions
	LastReplyRequest *domain.LineReplyMessageRequest
	LastPushRequest  *domain.LinePushMessageRequest

	ReplyRequests []domain.LineReplyMessageRequest
	PushRequests  []domain.LinePushMessageRequest
}

func (m *MockLineClient) ReplyMessage(request domain.LineReplyMessageRequest) (*domain.LineMessageResponse, error) {
	m.LastReplyRequest = &request
	m.ReplyRequests = append(m.ReplyRequests, request)
	if m.ReplyMessageFunc != nil {
		return m.ReplyMessageFunc(request)
	}
	return &domain.LineMessageResponse{Status: "ok"}, nil
}

func (m *MockLineClient) PushMessage(request domain.LinePushMessageRequest) (*domain.LineMessageResponse, error) {
	m.LastPushRequest = &request
	m.PushRequests = append(m.PushRequests, request)
	if m.PushMessageFunc != nil {
		return m.PushMessageFunc(request)
	}
	return &domain.LineMessageResponse{Status: "ok"}, nil
}

// MockMusicClient implements output.MusicClient for testing
type MockMusicClient struct {
	CreatePlaylistFunc func(ctx context.Context, name string) (string, error)
	RenamePlaylistFunc func(ctx context.Context, playlistID, name string) error
	AddTrackFunc       func(ctx context.Context, playlistID, trackID string) error
	SetCoverImageFunc  func(ctx context.Context, playlistID, base64Image string) error

	mu sync.Mutex
	// Captured values for assertions
	CreatedNames []string
	Renames      []string
	AddedTracks  []string
	CoverUploads []string
}

func (m *MockMusicClient) CreatePlaylist(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	m.CreatedNames = append(m.CreatedNames, name)
	m.mu.Unlock()
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, name)
	}
	return "pl-new", nil
}

func (m *MockMusicClient) RenamePlaylist(ctx context.Context, playlistID, name string) error {
	m.mu.Lock()
	m.Renames = append(m.Renames, playlistID+":"+name)
	m.mu.Unlock()
	if m.RenamePlaylistFunc != nil {
		return m.RenamePlaylistFunc(ctx, playlistID, name)
	}
	return nil
}

func (m *MockMusicClient) AddTrack(ctx context.Context, playlistID, trackID string) error {
	m.mu.Lock()
	m.AddedTracks = append(m.AddedTracks, playlistID+":"+trackID)
	m.mu.Unlock()
	if m.AddTrackFunc != nil {
		return m.AddTrackFunc(ctx, playlistID, trackID)
	}
	return nil
}

func (m *MockMusicClient) SetCoverImage(ctx context.Context, playlistID, base64Image string) error {
	m.mu.Lock()
	m.CoverUploads = append(m.CoverUploads, playlistID)
	m.mu.Unlock()
	if m.SetCoverImageFunc != nil {
		return m.SetCoverImageFunc(ctx, playlistID, base64Image)
	}
	return nil
}

// MockMusicAuthorizer implements output.MusicAuthorizer for testing.
// A token is valid when the cache holds one that is not expired.
type MockMusicAuthorizer struct {
	MusicClient  *MockMusicClient
	ExchangeFunc func(ctx context.Context, code string) (*oauth2.Token, error)

	mu sync.Mutex
	// Captured values for assertions
	LastState    string
	LastCode     string
	ClientCalls  int
	ExchangeCall int
}

func (m *MockMusicAuthorizer) AuthCodeURL(state string) string {
	m.mu.Lock()
	m.LastState = state
	m.mu.Unlock()
	return "https://accounts.example.test/authorize?state=" + state
}

func (m *MockMusicAuthorizer) Exchange(ctx context.Context, code string, cache output.TokenCache) (*oauth2.Token, error) {
	m.LastCode = code
	m.ExchangeCall++
	token := &oauth2.Token{AccessToken: "exchanged", RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)}
	if m.ExchangeFunc != nil {
		var err error
		if token, err = m.ExchangeFunc(ctx, code); err != nil {
			return nil, err
		}
	}
	if err := cache.SaveTokenToCache(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (m *MockMusicAuthorizer) ValidateToken(ctx context.Context, cache output.TokenCache) (domain.TokenStatus, error) {
	token, err := cache.GetCachedToken(ctx)
	if err != nil {
		return domain.TokenAbsent, err
	}
	if token == nil {
		return domain.TokenAbsent, nil
	}
	if !token.Valid() {
		return domain.TokenInvalid, nil
	}
	return domain.TokenValid, nil
}

func (m *MockMusicAuthorizer) Client(ctx context.Context, cache output.TokenCache) (output.MusicClient, error) {
	m.mu.Lock()
	m.ClientCalls++
	m.mu.Unlock()
	token, err := cache.GetCachedToken(ctx)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, domain.ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MusicClient == nil {
		m.MusicClient = &MockMusicClient{}
	}
	return m.MusicClient, nil
}

// MockMediaFetcher implements output.MediaFetcher for testing
type MockMediaFetcher struct {
	FetchImageFunc func(ctx context.Context, messageID string) ([]byte, error)

	// Captured values for assertions
	Fetched []string
}

func (m *MockMediaFetcher) FetchImage(ctx context.Context, messageID string) ([]byte, error) {
	m.Fetched = append(m.Fetched, messageID)
	if m.FetchImageFunc != nil {
		return m.FetchImageFunc(ctx, messageID)
	}
	return []byte("jpeg-bytes"), nil
}

var errBackendDown = errors.New("backend down")

// failingStorage wraps a Storage and fails the calls named in failOn
type failingStorage struct {
	output.Storage
	failOn map[string]bool
}

func (f *failingStorage) fail(op string) error {
	if f.failOn[op] {
		return errors.Join(domain.ErrStorage, errBackendDown)
	}
	return nil
}

func (f *failingStorage) GetSession(ctx context.Context, chatID string) (*domain.ChatSession, error) {
	if err := f.fail("GetSession"); err != nil {
		return nil, err
	}
	return f.Storage.GetSession(ctx, chatID)
}

func (f *failingStorage) SaveState(ctx context.Context, chatID string, state domain.ConversationState) error {
	if err := f.fail("SaveState"); err != nil {
		return err
	}
	return f.Storage.SaveState(ctx, chatID, state)
}

func (f *failingStorage) GetCredentials(ctx context.Context, chatID string) (*domain.CredentialRecord, error) {
	if err := f.fail("GetCredentials"); err != nil {
		return nil, err
	}
	return f.Storage.GetCredentials(ctx, chatID)
}

func (f *failingStorage) SaveCredentials(ctx context.Context, record domain.CredentialRecord) error {
	if err := f.fail("SaveCredentials"); err != nil {
		return err
	}
	return f.Storage.SaveCredentials(ctx, record)
}

func (f *failingStorage) BindOwner(ctx context.Context, chatID, userID string) (string, error) {
	if err := f.fail("BindOwner"); err != nil {
		return "", err
	}
	return f.Storage.BindOwner(ctx, chatID, userID)
}

func (f *failingStorage) DeleteSession(ctx context.Context, chatID string) error {
	if err := f.fail("DeleteSession"); err != nil {
		return err
	}
	return f.Storage.DeleteSession(ctx, chatID)
}

// barrierStorage holds every GetSession until `parties` callers have read,
// so concurrent events all observe the same snapshot
type barrierStorage struct {
	output.Storage
	wg sync.WaitGroup
}

func newBarrierStorage(inner output.Storage, parties int) *barrierStorage {
	b := &barrierStorage{Storage: inner}
	b.wg.Add(parties)
	return b
}

func (b *barrierStorage) GetSession(ctx context.Context, chatID string) (*domain.ChatSession, error) {
	session, err := b.Storage.GetSession(ctx, chatID)
	b.wg.Done()
	b.wg.Wait()
	return session, err
}
