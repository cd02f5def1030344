// Package fault は予約コアの閉じたエラー分類を定義する。
// メッセージ文字列の解析ではなく、構造化フィールドと errors.As による
// 分岐を可能にするためのもの。
package fault

import (
	"errors"
	"fmt"
	"strings"
)

// NotFound は対象エンティティが存在しないことを表す
type NotFound struct {
	Entity string
	ID     string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("%sが見つかりません: %s", e.Entity, e.ID)
}

// InvalidState は現在の状態では許可されない操作を表す
type InvalidState struct {
	Entity          string
	ID              string
	CurrentStatus   string
	AttemptedAction string
}

func (e *InvalidState) Error() string {
	return fmt.Sprintf("%s %s は状態 %s のため %s できません", e.Entity, e.ID, e.CurrentStatus, e.AttemptedAction)
}

// Conflict は競合による一時的な失敗を表す（リトライ可能）
type Conflict struct {
	Reason       string
	OffendingIDs []string
}

func (e *Conflict) Error() string {
	if len(e.OffendingIDs) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.OffendingIDs, ", "))
}

// Expired は予約の有効期限切れを表す
type Expired struct {
	ID string
}

func (e *Expired) Error() string {
	return fmt.Sprintf("予約の有効期限が切れています: %s", e.ID)
}

// Infrastructure はストア・ロック・キューへの到達不能を表す
type Infrastructure struct {
	Op    string
	Cause error
}

func (e *Infrastructure) Error() string {
	return fmt.Sprintf("インフラ障害 (%s): %v", e.Op, e.Cause)
}

func (e *Infrastructure) Unwrap() error {
	return e.Cause
}

// IsNotFound はNotFoundエラーかを返す
func IsNotFound(err error) bool {
	var target *NotFound
	return errors.As(err, &target)
}

// IsInvalidState はInvalidStateエラーかを返す
func IsInvalidState(err error) bool {
	var target *InvalidState
	return errors.As(err, &target)
}

// IsConflict はConflictエラーかを返す
func IsConflict(err error) bool {
	var target *Conflict
	return errors.As(err, &target)
}

// IsExpired はExpiredエラーかを返す
func IsExpired(err error) bool {
	var target *Expired
	return errors.As(err, &target)
}

// IsInfrastructure はInfrastructureエラーかを返す
func IsInfrastructure(err error) bool {
	var target *Infrastructure
	return errors.As(err, &target)
}
