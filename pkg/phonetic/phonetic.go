// Package phonetic derives missing pronunciations for Japanese lemmas.
package phonetic

import (
	"strings"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/japaniel/lexdict/pkg/dictionary"
)

// Transcriber turns a lemma into its pronunciation.
// The second return value is false when no pronunciation could be derived.
type Transcriber interface {
	Transcribe(lemma string) (string, bool)
}

// KanaTranscriber reads lemmas with the IPA dictionary and spells them in hiragana.
type KanaTranscriber struct {
	t *tokenizer.Tokenizer
}

// NewKanaTranscriber creates a new tokenizer instance.
func NewKanaTranscriber() (*KanaTranscriber, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &KanaTranscriber{t: t}, nil
}

// Transcribe concatenates the readings of all tokens of lemma.
// A token without a dictionary reading is accepted only when it is already kana.
func (k *KanaTranscriber) Transcribe(lemma string) (string, bool) {
	var sb strings.Builder
	for _, token := range k.t.Tokenize(lemma) {
		if token.Class == tokenizer.DUMMY || strings.TrimSpace(token.Surface) == "" {
			continue
		}
		// IPA features: 6 is the base form, 7 the reading in katakana
		features := token.Features()
		if len(features) > 7 && features[7] != "*" {
			sb.WriteString(ToHiragana(features[7]))
			continue
		}
		if !isKana(token.Surface) {
			return "", false
		}
		sb.WriteString(ToHiragana(token.Surface))
	}
	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}

// ToHiragana maps katakana letters to their hiragana counterparts.
// Anything else, the prolonged sound mark included, is kept.
func ToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ァ' && r <= 'ヶ' {
			return r - 0x60
		}
		return r
	}, s)
}

func isKana(s string) bool {
	for _, r := range s {
		if !unicode.In(r, unicode.Hiragana, unicode.Katakana) && r != 'ー' {
			return false
		}
	}
	return true
}

// Fill derives a pronunciation for every row with a lemma but an empty
// phonetic and returns how many rows it filled. Existing values are kept.
func Fill(rows []dictionary.Row, t Transcriber) int {
	var filled int
	for i := range rows {
		row := &rows[i]
		if !row.Lemma.Valid || (row.Phonetic.Valid && row.Phonetic.String != "") {
			continue
		}
		if reading, ok := t.Transcribe(row.Lemma.String); ok {
			row.Phonetic.String = reading
			row.Phonetic.Valid = true
			filled++
		}
	}
	return filled
}
