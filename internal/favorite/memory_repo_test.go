package favorite

import (
	"context"
	"sync"

	"github.com/feinime/feinime/internal/model"
)

type favoriteKey struct {
	googleID string
	animeID  model.AnimeID
}

// memoryFavoriteRepo はUPSERTの意味論を再現するインメモリ実装。
type memoryFavoriteRepo struct {
	mu    sync.Mutex
	rows  map[favoriteKey]model.Favorite
	order []favoriteKey
	err   error
	calls int
}

func newMemoryFavoriteRepo() *memoryFavoriteRepo {
	return &memoryFavoriteRepo{rows: make(map[favoriteKey]model.Favorite)}
}

func (r *memoryFavoriteRepo) Upsert(ctx context.Context, f *model.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return r.err
	}
	k := favoriteKey{f.GoogleID, f.AnimeID}
	if _, ok := r.rows[k]; !ok {
		r.order = append(r.order, k)
	}
	r.rows[k] = *f
	return nil
}

func (r *memoryFavoriteRepo) Delete(ctx context.Context, googleID string, animeID model.AnimeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return r.err
	}
	k := favoriteKey{googleID, animeID}
	delete(r.rows, k)
	for i, o := range r.order {
		if o == k {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryFavoriteRepo) ListByGoogleID(ctx context.Context, googleID string) ([]*model.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	var out []*model.Favorite
	for _, k := range r.order {
		if k.googleID == googleID {
			f := r.rows[k]
			out = append(out, &f)
		}
	}
	return out, nil
}
