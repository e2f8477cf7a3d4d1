// Package session はクライアント側の状態（identityセッションとお気に入りの表示状態）を保持する。
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/feinime/feinime/internal/auth"
	"github.com/feinime/feinime/internal/gateway"
	"github.com/feinime/feinime/internal/model"
)

// backgroundTimeout はサインイン後のプロフィール保存に掛ける上限時間。
const backgroundTimeout = 10 * time.Second

// EventKind はセッションの状態変化の種類。
type EventKind int

const (
	// EventSignedIn はサインインした。
	EventSignedIn EventKind = iota + 1
	// EventSignedOut はサインアウトした。
	EventSignedOut
	// EventRestored は永続化されたidentityを復元した。
	EventRestored
)

// String はイベント種別名を返す。
func (k EventKind) String() string {
	switch k {
	case EventSignedIn:
		return "signed_in"
	case EventSignedOut:
		return "signed_out"
	case EventRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// Event はSubscribeで通知される状態変化。
// EventSignedOutのUserはサインアウト直前のidentity。
type Event struct {
	Kind EventKind
	User model.User
}

// UserBackend はセッションが使うゲートウェイ操作。*gateway.Clientが満たす。
type UserBackend interface {
	SaveUser(ctx context.Context, u model.User) (*gateway.User, error)
	SignOut(ctx context.Context, googleID string) error
}

// Session はサインイン中のidentityを保持する。
// 状態はSessionが唯一の持ち主で、変化はSubscribeで購読する。
type Session struct {
	storage Storage
	backend UserBackend
	logger  *slog.Logger

	mu      sync.RWMutex
	current *model.User

	subsMu sync.Mutex
	subs   map[int]func(Event)
	nextID int

	wg sync.WaitGroup
}

// New はSessionを生成する。初期状態は未サインイン。
func New(storage Storage, backend UserBackend, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		storage: storage,
		backend: backend,
		logger:  logger,
		subs:    make(map[int]func(Event)),
	}
}

// Restore は永続化されたidentityを読み込む。ネットワークでの検証はしない。
// 保存されていなければ未サインインのままエラーも返さない。
// 読み込めない場合はエラーを返し、セッションは空のままにする。
func (s *Session) Restore(ctx context.Context) error {
	u, err := s.storage.Load()
	if err != nil {
		s.setCurrent(nil)
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if u == nil {
		s.setCurrent(nil)
		return nil
	}

	s.setCurrent(u)
	s.logger.Debug("session restored", slog.String("google_id", u.GoogleID))
	s.publish(Event{Kind: EventRestored, User: *u})
	return nil
}

// SignIn はクレームからセッションを確立し、永続化する。
// ゲートウェイへのプロフィール保存はバックグラウンドで行い、失敗してもログに残すだけで巻き戻さない。
func (s *Session) SignIn(ctx context.Context, claims auth.Claims) error {
	if claims.Subject == "" {
		return auth.ErrMissingSubject
	}
	u := claims.User()

	s.setCurrent(&u)

	var persistErr error
	if err := s.storage.Save(u); err != nil {
		persistErr = fmt.Errorf("failed to persist session: %w", err)
	}
	s.publish(Event{Kind: EventSignedIn, User: u})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
		defer cancel()

		if _, err := s.backend.SaveUser(bctx, u); err != nil {
			s.logger.Warn("ユーザーの保存に失敗しました",
				slog.String("google_id", u.GoogleID),
				slog.String("error", err.Error()),
			)
			return
		}
		s.logger.Debug("user saved", slog.String("google_id", u.GoogleID))
	}()

	return persistErr
}

// Wait はバックグラウンドで実行中のゲートウェイ呼び出しの完了を待つ。
func (s *Session) Wait() {
	s.wg.Wait()
}

// SignOut はセッションと永続化されたidentityを即座に消し、ゲートウェイに通知する。
// 通知の失敗は無視する。
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	clearErr := s.storage.Clear()

	if prev == nil {
		return clearErr
	}
	s.publish(Event{Kind: EventSignedOut, User: *prev})

	if err := s.backend.SignOut(ctx, prev.GoogleID); err != nil {
		s.logger.Debug("sign-out notification failed", slog.String("error", err.Error()))
	}

	if clearErr != nil {
		return fmt.Errorf("failed to clear session: %w", clearErr)
	}
	return nil
}

// Current はサインイン中のidentityを返す。
func (s *Session) Current() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return model.User{}, false
	}
	return *s.current, true
}

// Identity はサインイン中のgoogle_idを返す。未サインインなら空文字。
func (s *Session) Identity() string {
	u, _ := s.Current()
	return u.GoogleID
}

// Subscribe は状態変化の購読を登録し、解除関数を返す。
// コールバックは状態を変更したゴルーチンから同期的に呼ばれる。
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Session) setCurrent(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.current = nil
		return
	}
	c := *u
	s.current = &c
}

func (s *Session) publish(e Event) {
	s.subsMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// IsAuthRequired はerrがサインイン必須エラーかを返す。
func IsAuthRequired(err error) bool {
	return errors.Is(err, ErrAuthRequired)
}
