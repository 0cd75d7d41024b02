package netsync

import (
	"fmt"
	"strings"
)

// KeyCode 单个移动输入码
type KeyCode int32

const (
	KeyUp KeyCode = iota + 1
	KeyDown
	KeyLeft
	KeyRight
)

var keyNames = map[KeyCode]string{
	KeyUp:    "up",
	KeyDown:  "down",
	KeyLeft:  "left",
	KeyRight: "right",
}

func (k KeyCode) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("key(%d)", int32(k))
}

// Valid 是否为已知输入码
func (k KeyCode) Valid() bool {
	_, ok := keyNames[k]
	return ok
}

// ParseKey 将线上的按键名（up/down/left/right）解析为 KeyCode
func ParseKey(s string) (KeyCode, error) {
	switch strings.ToLower(s) {
	case "up":
		return KeyUp, nil
	case "down":
		return KeyDown, nil
	case "left":
		return KeyLeft, nil
	case "right":
		return KeyRight, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}
}

// Action 一个模拟步的输入样本（按下的移动键，有序、非空）
type Action struct {
	Keys []KeyCode
}

// NewAction 构造动作；空集合或未知输入码返回错误
func NewAction(keys ...KeyCode) (Action, error) {
	a := Action{Keys: append([]KeyCode(nil), keys...)}
	if err := a.Validate(); err != nil {
		return Action{}, err
	}
	return a, nil
}

// MustAction 测试与脚本输入使用
func MustAction(keys ...KeyCode) Action {
	a, err := NewAction(keys...)
	if err != nil {
		panic(err)
	}
	return a
}

// Validate 非空且全部为已知输入码
func (a Action) Validate() error {
	if a.Empty() {
		return ErrEmptyAction
	}
	for _, k := range a.Keys {
		if !k.Valid() {
			return fmt.Errorf("%w: %d", ErrUnknownKey, int32(k))
		}
	}
	return nil
}

func (a Action) Empty() bool { return len(a.Keys) == 0 }

// Equal 按内容（含顺序）比较
func (a Action) Equal(b Action) bool {
	if len(a.Keys) != len(b.Keys) {
		return false
	}
	for i := range a.Keys {
		if a.Keys[i] != b.Keys[i] {
			return false
		}
	}
	return true
}

// Has 是否包含指定按键
func (a Action) Has(k KeyCode) bool {
	for _, key := range a.Keys {
		if key == k {
			return true
		}
	}
	return false
}

// Names 线上表示
func (a Action) Names() []string {
	names := make([]string, len(a.Keys))
	for i, k := range a.Keys {
		names[i] = k.String()
	}
	return names
}

// ParseAction 从线上按键名构造动作
func ParseAction(names []string) (Action, error) {
	keys := make([]KeyCode, 0, len(names))
	for _, n := range names {
		k, err := ParseKey(n)
		if err != nil {
			return Action{}, err
		}
		keys = append(keys, k)
	}
	return NewAction(keys...)
}
