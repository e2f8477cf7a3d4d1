// Package user はユーザープロフィール管理のドメインロジックを提供する。
package user

import (
	"context"
	"log/slog"
	"strings"

	"github.com/feinime/feinime/internal/model"
	"github.com/feinime/feinime/internal/repository"
	"github.com/feinime/feinime/internal/security"
)

// Recorder はユーザー保存の結果を記録する。
type Recorder interface {
	RecordUserUpsert(outcome string)
}

// SaveInput はユーザー保存の入力。
type SaveInput struct {
	GoogleID string
	Name     string
	Email    string
	Picture  string
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo  repository.UserRepository
	sanitizer security.ContentSanitizerService
	recorder  Recorder
}

// NewService はServiceの新しいインスタンスを生成する。
// recorderはnilでもよい。
func NewService(
	userRepo repository.UserRepository,
	sanitizer security.ContentSanitizerService,
	recorder Recorder,
) *Service {
	return &Service{
		userRepo:  userRepo,
		sanitizer: sanitizer,
		recorder:  recorder,
	}
}

// Save はサインインしたユーザーのプロフィールをUPSERTする。
// google_idが空の場合はストアに触れずに検証エラーを返す。
func (s *Service) Save(ctx context.Context, in SaveInput) (*model.User, error) {
	googleID := strings.TrimSpace(in.GoogleID)
	if googleID == "" {
		return nil, model.NewIdentityRequiredError()
	}

	picture := strings.TrimSpace(in.Picture)
	if err := security.ValidateLinkURL(picture); err != nil {
		return nil, model.NewInvalidURLError("picture", err.Error())
	}

	user := &model.User{
		GoogleID: googleID,
		Name:     s.sanitizer.SanitizeText(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Picture:  picture,
	}

	if err := s.userRepo.Upsert(ctx, user); err != nil {
		s.record("error")
		return nil, model.PersistenceError("ユーザーの保存に失敗しました", err)
	}
	s.record("ok")

	slog.Info("ユーザーを保存しました",
		slog.String("google_id", user.GoogleID),
	)

	return user, nil
}

// List は登録済みの全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, model.PersistenceError("ユーザー一覧の取得に失敗しました", err)
	}
	return users, nil
}

func (s *Service) record(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordUserUpsert(outcome)
	}
}
