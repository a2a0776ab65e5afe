package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/repository"
)

// ValidationError 字段级校验错误，Handler 层映射为 400 + errors
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "参数校验失败: " + strings.Join(parts, "; ")
}

// fieldError 单字段校验错误
func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// validationCollector 累积多个字段错误
type validationCollector struct {
	fields map[string]string
}

func (v *validationCollector) add(field, msg string) {
	if v.fields == nil {
		v.fields = make(map[string]string)
	}
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = msg
	}
}

func (v *validationCollector) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// checkRefs 校验引用的 id 均存在，不存在时记录到 field
func checkRefs(ctx context.Context, refs repository.ReferenceRepository, v *validationCollector, kind repository.RefKind, field string, ids ...string) error {
	var nonEmpty []string
	for _, id := range ids {
		if id != "" {
			nonEmpty = append(nonEmpty, id)
		}
	}
	missing, err := refs.Missing(ctx, kind, nonEmpty)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		v.add(field, "unknown id: "+strings.Join(missing, ", "))
	}
	return nil
}

// ── 日期 ──

// parseDate 解析 YYYY-MM-DD；请求体已经过 date 规则校验
func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		return time.Time{}, fieldError(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return t.Format(dto.DateLayout)
}

// formatClock 数据库 time 列可能带秒与微秒，统一为 HH:MM
func formatClock(s string) string {
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}

// normalizeClock H:MM、HH:MM 或 HH:MM:SS → HH:MM:SS
func normalizeClock(s string) string {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05")
		}
	}
	return s
}
