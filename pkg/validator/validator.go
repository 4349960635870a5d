package validator

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	zhTranslations "github.com/go-playground/validator/v10/translations/zh"
)

// gin binding validator的翻译器，根据配置语言输出校验错误

var (
	once  sync.Once
	trans ut.Translator
)

// LazyInitGinValidator 初始化gin的validator翻译，重复调用只生效一次
func LazyInitGinValidator(language string) {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		zhT := zh.New()
		enT := en.New()
		uni := ut.New(enT, zhT, enT)

		locale := "en"
		if strings.HasPrefix(strings.ToLower(language), "zh") {
			locale = "zh"
		}
		trans, _ = uni.GetTranslator(locale)
		switch locale {
		case "zh":
			_ = zhTranslations.RegisterDefaultTranslations(v, trans)
		default:
			_ = enTranslations.RegisterDefaultTranslations(v, trans)
		}
	})
}

// Translate 将binding错误翻译成一条可读信息
func Translate(err error) string {
	if err == nil {
		return ""
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || trans == nil {
		return err.Error()
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Translate(trans))
	}
	return strings.Join(parts, "; ")
}
