// Package model はドメインモデルを定義する。
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AnimeID はアニメの正規化済み識別子。
// プロバイダーによって数値と文字列が混在するため、境界で必ずint64に揃える。
type AnimeID int64

// ParseAnimeID は文字列からAnimeIDを解析する。
// 正の整数以外はエラーを返す。
func ParseAnimeID(raw string) (AnimeID, error) {
	s := strings.TrimSpace(raw)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("anime id %q is not an integer: %w", raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("anime id %q must be positive", raw)
	}
	return AnimeID(n), nil
}

// String はAnimeIDを10進文字列で返す。
func (id AnimeID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Valid はIDが正の値であるかを返す。
func (id AnimeID) Valid() bool {
	return id > 0
}

// UnmarshalJSON は数値と数値文字列の両方を受け付ける。
// nullはゼロ値のまま残し、検証は呼び出し側で行う。
func (id *AnimeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseAnimeID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("anime id must be a number or numeric string: %w", err)
	}
	parsed, err := ParseAnimeID(n.String())
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalJSON は常にJSON数値として出力する。
func (id AnimeID) MarshalJSON() ([]byte, error) {
	return []byte(id.String()), nil
}

// Picture はプロバイダーが返す画像URLの組を表す。
type Picture struct {
	Medium string `json:"medium,omitempty"`
	Large  string `json:"large,omitempty"`
}

// BestURL はlarge → medium → 空文字の順で最適な画像URLを返す。
func (p *Picture) BestURL() string {
	if p == nil {
		return ""
	}
	if p.Large != "" {
		return p.Large
	}
	return p.Medium
}
