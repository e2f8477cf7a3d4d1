package repository

import (
	"context"
	"sync"
	"time"

	"github.com/feinime/feinime/internal/model"
)

// MemoryStore はusersとfavoritesをプロセス内に保持するストア。
// PostgreSQLと同じUPSERT・カスケードの意味論を持ち、結合テストで使う。
type MemoryStore struct {
	mu        sync.Mutex
	now       func() time.Time
	users     map[string]*model.User
	userOrder []string
	favorites map[string][]*model.Favorite
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:       time.Now,
		users:     make(map[string]*model.User),
		favorites: make(map[string][]*model.Favorite),
	}
}

// Users はUserRepositoryとしてのビューを返す。
func (s *MemoryStore) Users() *MemoryUserRepo {
	return &MemoryUserRepo{store: s}
}

// Favorites はFavoriteRepositoryとしてのビューを返す。
func (s *MemoryStore) Favorites() *MemoryFavoriteRepo {
	return &MemoryFavoriteRepo{store: s}
}

// DeleteUser はユーザーを削除し、そのお気に入りもカスケード削除する。
func (s *MemoryStore) DeleteUser(googleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[googleID]; !ok {
		return
	}
	delete(s.users, googleID)
	delete(s.favorites, googleID)
	for i, id := range s.userOrder {
		if id == googleID {
			s.userOrder = append(s.userOrder[:i], s.userOrder[i+1:]...)
			break
		}
	}
}

// ensureUser はユーザー行が無ければ空のプロフィールで作成する。呼び出し側でロックを保持すること。
func (s *MemoryStore) ensureUser(googleID string, now time.Time) *model.User {
	if u, ok := s.users[googleID]; ok {
		return u
	}
	u := &model.User{GoogleID: googleID, CreatedAt: now, UpdatedAt: now}
	s.users[googleID] = u
	s.userOrder = append(s.userOrder, googleID)
	return u
}

// MemoryUserRepo はMemoryStore上のUserRepository実装。
type MemoryUserRepo struct {
	store *MemoryStore
}

// Upsert はユーザーを作成または更新する。
func (r *MemoryUserRepo) Upsert(ctx context.Context, user *model.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	u := s.ensureUser(user.GoogleID, now)
	u.Name = user.Name
	u.Email = user.Email
	u.Picture = user.Picture
	u.UpdatedAt = now

	user.CreatedAt = u.CreatedAt
	user.UpdatedAt = u.UpdatedAt
	return nil
}

// List は全ユーザーを作成順に返す。
func (r *MemoryUserRepo) List(ctx context.Context) ([]*model.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]*model.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		u := *s.users[id]
		users = append(users, &u)
	}
	return users, nil
}

// MemoryFavoriteRepo はMemoryStore上のFavoriteRepository実装。
type MemoryFavoriteRepo struct {
	store *MemoryStore
}

// Upsert はお気に入りを作成または更新する。
func (r *MemoryFavoriteRepo) Upsert(ctx context.Context, favorite *model.Favorite) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.ensureUser(favorite.GoogleID, now)

	for _, f := range s.favorites[favorite.GoogleID] {
		if f.AnimeID == favorite.AnimeID {
			f.Title = favorite.Title
			f.ImageURL = favorite.ImageURL
			f.UpdatedAt = now
			favorite.CreatedAt = f.CreatedAt
			favorite.UpdatedAt = f.UpdatedAt
			return nil
		}
	}

	f := *favorite
	f.CreatedAt = now
	f.UpdatedAt = now
	s.favorites[favorite.GoogleID] = append(s.favorites[favorite.GoogleID], &f)
	favorite.CreatedAt = now
	favorite.UpdatedAt = now
	return nil
}

// Delete はお気に入りを削除する。存在しなくてもエラーにしない。
func (r *MemoryFavoriteRepo) Delete(ctx context.Context, googleID string, animeID model.AnimeID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	favs := s.favorites[googleID]
	for i, f := range favs {
		if f.AnimeID == animeID {
			s.favorites[googleID] = append(favs[:i], favs[i+1:]...)
			break
		}
	}
	return nil
}

// ListByGoogleID はユーザーのお気に入りを登録順に返す。
func (r *MemoryFavoriteRepo) ListByGoogleID(ctx context.Context, googleID string) ([]*model.Favorite, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	favs := s.favorites[googleID]
	result := make([]*model.Favorite, 0, len(favs))
	for _, f := range favs {
		c := *f
		result = append(result, &c)
	}
	return result, nil
}

var (
	_ UserRepository     = (*MemoryUserRepo)(nil)
	_ FavoriteRepository = (*MemoryFavoriteRepo)(nil)
)
