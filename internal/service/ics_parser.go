package service

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"klimr/backend/internal/model"
)

// ── 节假日日历解析 ──────────────────────────────────────────
//
// 将 iCalendar (RFC 5545) 节假日日历解析为 Holiday 列表：
//   - 每个 VEVENT 的 SUMMARY 作为节假日原因
//   - DTSTART..DTEND（DTEND 不含）覆盖的每一天各生成一条
//   - 缺少 DTEND 时视为单日
//   - 同一日期重复出现时保留第一条
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize   = 5 * 1024 * 1024 // 5MB
	icsMaxEventDays  = 31
	holidayReasonMax = 100
)

// ParseHolidayCalendar 解析节假日日历，按日期升序返回
func ParseHolidayCalendar(reader io.Reader) ([]model.Holiday, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(reader, icsMaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	seen := make(map[string]bool)
	var result []model.Holiday
	for _, evt := range cal.Events() {
		days, reason, ok := parseHolidayEvent(evt)
		if !ok {
			continue
		}
		for _, d := range days {
			key := d.Format("2006-01-02")
			if seen[key] {
				continue
			}
			seen[key] = true
			result = append(result, model.Holiday{Date: d, Reason: reason})
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// parseHolidayEvent 解析单个 VEVENT 覆盖的日期
func parseHolidayEvent(evt *ics.VEvent) ([]time.Time, string, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return nil, "", false
	}
	reason := strings.TrimSpace(summary.Value)
	if r := []rune(reason); len(r) > holidayReasonMax {
		reason = string(r[:holidayReasonMax])
	}

	start, err := parseICSDate(evt, ics.ComponentPropertyDtStart)
	if err != nil {
		return nil, "", false
	}
	end, err := parseICSDate(evt, ics.ComponentPropertyDtEnd)
	if err != nil || !end.After(start) {
		end = start.AddDate(0, 0, 1)
	}

	var days []time.Time
	for d := start; d.Before(end) && len(days) < icsMaxEventDays; d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, reason, true
}

// parseICSDate 读取日期属性，只保留日期部分
func parseICSDate(evt *ics.VEvent, propName ics.ComponentProperty) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, val); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
