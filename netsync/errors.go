package netsync

import "errors"

var (
	// ErrEmptyAction 动作没有任何按键，提交前即被丢弃
	ErrEmptyAction = errors.New("netsync: empty action")
	// ErrUnknownKey 无法识别的输入码
	ErrUnknownKey = errors.New("netsync: unknown key code")
	// ErrUnknownEntity 分发表中没有该实体
	ErrUnknownEntity = errors.New("netsync: unknown entity")
)
