package engine

import (
	"context"
	"fmt"

	"gamification-engine/pkg/expr"
)

// Trs resolves a translation variable into one text per configured language.
// Every returned map contains the fallback language; languages without their
// own text inherit the fallback, and a missing fallback text produces the
// "[not_translated]_<id>" sentinel so the gap is visible instead of silent.
// Template substitution failures degrade to the raw text.
func (e *Engine) Trs(ctx context.Context, translationID *int64, params expr.Params) (map[string]string, error) {
	if translationID == nil {
		return nil, nil
	}

	languages, err := e.translations.GetLanguages(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := e.translations.GetTranslations(ctx, *translationID)
	if err != nil {
		return nil, err
	}

	byLanguage := make(map[string]string, len(rows))
	for _, row := range rows {
		byLanguage[row.LanguageName] = e.render(row.Text, params)
	}

	fallbackText, ok := byLanguage[e.fallbackLanguage]
	if !ok {
		fallbackText = fmt.Sprintf("[not_translated]_%d", *translationID)
	}

	result := make(map[string]string, len(languages)+1)
	result[e.fallbackLanguage] = fallbackText
	for _, lang := range languages {
		if text, ok := byLanguage[lang.Name]; ok {
			result[lang.Name] = text
		} else {
			result[lang.Name] = fallbackText
		}
	}

	return result, nil
}

// render evaluates a template string, degrading to the raw text on failure.
func (e *Engine) render(text string, params expr.Params) string {
	rendered, err := expr.EvaluateString(text, params)
	if err != nil {
		return text
	}
	return rendered
}
