package session

import "fmt"

// ToggleState はお気に入り切り替え1回分の状態。
//
//	Idle → Pending(prev) → Committed
//	                     → RolledBack(prev)
type ToggleState int

const (
	ToggleIdle ToggleState = iota
	TogglePending
	ToggleCommitted
	ToggleRolledBack
)

// String は状態名を返す。
func (s ToggleState) String() string {
	switch s {
	case ToggleIdle:
		return "idle"
	case TogglePending:
		return "pending"
	case ToggleCommitted:
		return "committed"
	case ToggleRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// toggle は楽観的更新の前の値を捕捉し、失敗時にその値だけを返す。
type toggle struct {
	state ToggleState
	prev  bool
}

// begin は切り替え前の値を捕捉してPendingに進む。
func (t *toggle) begin(prev bool) error {
	if t.state != ToggleIdle {
		return fmt.Errorf("toggle: cannot begin from %s", t.state)
	}
	t.prev = prev
	t.state = TogglePending
	return nil
}

// optimistic は表示すべき楽観的な値を返す。
func (t *toggle) optimistic() bool {
	return !t.prev
}

// commit は切り替えを確定する。
func (t *toggle) commit() error {
	if t.state != TogglePending {
		return fmt.Errorf("toggle: cannot commit from %s", t.state)
	}
	t.state = ToggleCommitted
	return nil
}

// rollback は切り替えを取り消し、捕捉した値を返す。
func (t *toggle) rollback() (bool, error) {
	if t.state != TogglePending {
		return false, fmt.Errorf("toggle: cannot roll back from %s", t.state)
	}
	t.state = ToggleRolledBack
	return t.prev, nil
}
