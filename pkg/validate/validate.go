// Package validate 负责请求体校验：把 go-playground/validator 注册为 gin 的
// 校验引擎，并把校验错误翻译成以 JSON 字段名为键的错误表。
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// 自定义校验标签
const (
	TagWeekday       = "weekday"
	TagWeekType      = "weektype"
	TagLessonState   = "lesson_state"
	TagClassroomType = "classroom_type"
	TagQueueReason   = "queue_reason"
	TagDate          = "date"
	TagClock         = "clock"
)

var (
	once       sync.Once
	translator ut.Translator
)

// Setup 为 gin 默认校验引擎注册 JSON 字段名、自定义标签与英文翻译
// 可重复调用，只生效一次
func Setup() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		translator, _ = uni.GetTranslator("en")
		Register(v, translator)
	})
}

// Register 在指定实例上注册自定义规则（测试中可直接使用独立实例）
func Register(v *validator.Validate, trans ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	registerRange(v, trans, TagWeekday, 0, 6, "must be a weekday between 0 (Monday) and 6 (Sunday)")
	registerRange(v, trans, TagWeekType, 0, 2, "must be 0 (both), 1 (odd) or 2 (even)")
	registerRange(v, trans, TagLessonState, 0, 3, "must be 0 (scheduled), 1 (on time), 2 (arrived) or 3 (cancelled)")
	registerRange(v, trans, TagClassroomType, -1, 4, "must be a classroom type between -1 and 4")
	registerRange(v, trans, TagQueueReason, 0, 2, "must be 0 (autograph), 1 (assignment) or 2 (question)")

	_ = v.RegisterValidation(TagDate, dateValidation)
	registerText(v, trans, TagDate, "must be a date in YYYY-MM-DD format")
	_ = v.RegisterValidation(TagClock, clockValidation)
	registerText(v, trans, TagClock, "must be a time in HH:MM format")

	registerText(v, trans, "required", "this field is required", true)
}

func registerRange(v *validator.Validate, trans ut.Translator, tag string, lo, hi int64, text string) {
	_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n >= lo && n <= hi
	})
	registerText(v, trans, tag, text)
}

func registerText(v *validator.Validate, trans ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = v.RegisterTranslation(
		tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Fields 把绑定错误转换为 {字段: 信息}；非校验错误（如 JSON 语法错误）归入 "body"
func Fields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": "malformed request body"}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg := fe.Error()
		if translator != nil {
			msg = fe.Translate(translator)
		}
		out[fieldPath(fe)] = msg
	}
	return out
}

// fieldPath 去掉顶层结构体名，保留 JSON 字段路径
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
