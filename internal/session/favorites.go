package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/feinime/feinime/internal/gateway"
	"github.com/feinime/feinime/internal/model"
)

var (
	// ErrAuthRequired はサインインせずにお気に入りを変更しようとしたことを表す。
	ErrAuthRequired = errors.New("sign-in required")
	// ErrToggleFailed はお気に入りの切り替えに失敗し、表示を元に戻したことを表す。
	ErrToggleFailed = errors.New("favorite toggle failed")
)

// FavoritesBackend はお気に入りの同期に使うゲートウェイ操作。*gateway.Clientが満たす。
type FavoritesBackend interface {
	ListFavorites(ctx context.Context, googleID string) ([]gateway.Favorite, error)
	AddFavorite(ctx context.Context, in gateway.AddFavoriteInput) error
	RemoveFavorite(ctx context.Context, googleID string, animeID model.AnimeID) error
}

// Anime はお気に入り登録に必要なアニメの表示情報。
type Anime struct {
	ID      model.AnimeID
	Title   string
	Picture *model.Picture
}

// FlagChange は表示上のお気に入り状態の変化。
type FlagChange struct {
	GoogleID string
	AnimeID  model.AnimeID
	Favorite bool
}

type flagKey struct {
	googleID string
	animeID  model.AnimeID
}

// Favorites はidentityごとのお気に入りの表示状態を保持し、ゲートウェイと同期する。
// 同時に走る切り替えは調停せず、最後に完了したものが残る。
type Favorites struct {
	backend FavoritesBackend
	logger  *slog.Logger

	mu    sync.RWMutex
	flags map[flagKey]bool

	subsMu sync.Mutex
	subs   map[int]func(FlagChange)
	nextID int
}

// NewFavorites はFavoritesを生成する。
func NewFavorites(backend FavoritesBackend, logger *slog.Logger) *Favorites {
	if logger == nil {
		logger = slog.Default()
	}
	return &Favorites{
		backend: backend,
		logger:  logger,
		flags:   make(map[flagKey]bool),
		subs:    make(map[int]func(FlagChange)),
	}
}

// List はidentityのお気に入り一覧を取得する。identityが空なら空の一覧を返す。
func (f *Favorites) List(ctx context.Context, googleID string) ([]gateway.Favorite, error) {
	if googleID == "" {
		return []gateway.Favorite{}, nil
	}
	favs, err := f.backend.ListFavorites(ctx, googleID)
	if err != nil {
		return nil, err
	}
	return favs, nil
}

// IsFavorite はアニメがidentityのお気に入りかをゲートウェイに問い合わせる。
// 比較は正規化済みのAnimeIDで行う。identityが空ならfalseを返す。
func (f *Favorites) IsFavorite(ctx context.Context, googleID string, animeID model.AnimeID) (bool, error) {
	if googleID == "" {
		return false, nil
	}

	favs, err := f.backend.ListFavorites(ctx, googleID)
	if err != nil {
		return false, fmt.Errorf("failed to list favorites: %w", err)
	}

	member := false
	for _, fav := range favs {
		if fav.AnimeID == animeID {
			member = true
			break
		}
	}
	f.setFlag(googleID, animeID, member)
	return member, nil
}

// Flag は表示中のお気に入り状態を返す。未取得ならfalse。
func (f *Favorites) Flag(googleID string, animeID model.AnimeID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.flags[flagKey{googleID, animeID}]
}

// Toggle はお気に入りを切り替え、切り替え後の状態を返す。
// 表示は先に反転させ、ゲートウェイ呼び出しが失敗した場合は切り替え前の値に戻して
// ErrToggleFailedをラップしたエラーを返す。
func (f *Favorites) Toggle(ctx context.Context, googleID string, anime Anime) (bool, error) {
	if googleID == "" {
		return false, ErrAuthRequired
	}

	prev, err := f.IsFavorite(ctx, googleID, anime.ID)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrToggleFailed, err)
	}

	var t toggle
	if err := t.begin(prev); err != nil {
		return prev, err
	}
	f.setFlag(googleID, anime.ID, t.optimistic())

	if prev {
		err = f.backend.RemoveFavorite(ctx, googleID, anime.ID)
	} else {
		err = f.backend.AddFavorite(ctx, gateway.AddFavoriteInput{
			GoogleID: googleID,
			AnimeID:  anime.ID,
			Title:    anime.Title,
			ImageURL: anime.Picture.BestURL(),
		})
	}

	if err != nil {
		restored, rbErr := t.rollback()
		if rbErr != nil {
			return prev, rbErr
		}
		f.setFlag(googleID, anime.ID, restored)
		f.logger.Warn("お気に入りの切り替えに失敗しました",
			slog.Int64("anime_id", int64(anime.ID)),
			slog.String("error", err.Error()),
		)
		return restored, fmt.Errorf("%w: %w", ErrToggleFailed, err)
	}

	if err := t.commit(); err != nil {
		return prev, err
	}
	return t.optimistic(), nil
}

// Subscribe は表示状態の変化の購読を登録し、解除関数を返す。
func (f *Favorites) Subscribe(fn func(FlagChange)) (unsubscribe func()) {
	f.subsMu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.subsMu.Lock()
			delete(f.subs, id)
			f.subsMu.Unlock()
		})
	}
}

// Forget はidentityの表示状態を破棄する。サインアウト時に使う。
func (f *Favorites) Forget(googleID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.flags {
		if k.googleID == googleID {
			delete(f.flags, k)
		}
	}
}

func (f *Favorites) setFlag(googleID string, animeID model.AnimeID, v bool) {
	f.mu.Lock()
	f.flags[flagKey{googleID, animeID}] = v
	f.mu.Unlock()

	f.subsMu.Lock()
	fns := make([]func(FlagChange), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.subsMu.Unlock()

	change := FlagChange{GoogleID: googleID, AnimeID: animeID, Favorite: v}
	for _, fn := range fns {
		fn(change)
	}
}
