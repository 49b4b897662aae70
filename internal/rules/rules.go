package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// Ошибки загрузки правил.
var (
	// ErrEmptyVocabulary — словарь видов пуст.
	ErrEmptyVocabulary = errors.New("species vocabulary is empty")

	// ErrConflictingVariant — вариант написания ведёт к двум разным видам.
	ErrConflictingVariant = errors.New("variant maps to more than one species")

	// ErrInvalidKey — ключ вида не в канонической форме.
	ErrInvalidKey = errors.New("species key is not canonical")
)

// Species — запись канонического словаря.
type Species struct {
	// Key — каноническая форма (нижний регистр, "_" вместо пробелов).
	Key string `yaml:"key"`

	// Name — научное название в обычном написании.
	Name string `yaml:"name"`

	// Common — общеупотребительное название.
	Common string `yaml:"common"`

	// Variants — известные ошибочные написания (синонимы, опечатки, усечения).
	Variants []string `yaml:"variants"`
}

// Numeric — словарные заглушки в числовых полях.
type Numeric struct {
	ZeroTokens    []string `yaml:"zero_tokens"`
	MissingTokens []string `yaml:"missing_tokens"`
}

// Bounds — границы правдоподобных значений.
type Bounds struct {
	MaxWeightKg float64 `yaml:"max_weight_kg"`
	MaxCount    int64   `yaml:"max_count"`
}

// Rules — канонический словарь и таблица исправлений.
type Rules struct {
	Vocabulary []Species `yaml:"vocabulary"`
	Numeric    Numeric   `yaml:"numeric"`
	Bounds     Bounds    `yaml:"bounds"`
	GearTypes  []string  `yaml:"gear_types"`

	lookup  map[string]string
	zero    map[string]bool
	missing map[string]bool
}

// Default возвращает встроенный набор правил.
// Встроенный файл проверяется тестами, поэтому ошибка здесь — баг сборки.
func Default() *Rules {
	r, err := Parse(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("rules: invalid embedded rules: %v", err))
	}
	return r
}

// Load читает правила из YAML файла.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return Parse(data)
}

// Parse разбирает правила из YAML и строит таблицу поиска.
func Parse(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := r.build(); err != nil {
		return nil, err
	}
	return &r, nil
}

// build строит таблицу поиска: каждая форма написания, приведённая
// через Canonicalize, указывает на ключ вида.
func (r *Rules) build() error {
	if len(r.Vocabulary) == 0 {
		return ErrEmptyVocabulary
	}

	r.lookup = make(map[string]string)
	for _, sp := range r.Vocabulary {
		if sp.Key == "" || Canonicalize(sp.Key) != sp.Key {
			return fmt.Errorf("%w: %q", ErrInvalidKey, sp.Key)
		}

		forms := append([]string{sp.Key, sp.Name, sp.Common}, sp.Variants...)
		for _, form := range forms {
			c := Canonicalize(form)
			if c == "" {
				continue
			}
			if prev, ok := r.lookup[c]; ok && prev != sp.Key {
				return fmt.Errorf("%w: %q (%s, %s)", ErrConflictingVariant, form, prev, sp.Key)
			}
			r.lookup[c] = sp.Key
		}
	}

	r.zero = tokenSet(r.Numeric.ZeroTokens)
	r.missing = tokenSet(r.Numeric.MissingTokens)

	return nil
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[NormalizeToken(t)] = true
	}
	return set
}

// Canonicalize приводит название вида к канонической форме:
// Unicode NFC, нижний регистр, обрезка краёв и замена серий
// пробельных символов на "_".
func Canonicalize(s string) string {
	s = norm.NFC.String(s)
	s = cases.Lower(language.Und).String(s)
	return strings.Join(strings.Fields(s), "_")
}

// NormalizeToken приводит значение числового поля к форме
// для сравнения с заглушками.
func NormalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Resolve возвращает канонический ключ для произвольного написания вида.
func (r *Rules) Resolve(raw string) (string, bool) {
	key, ok := r.lookup[Canonicalize(raw)]
	return key, ok
}

// IsCanonical проверяет, что значение — ключ из словаря.
func (r *Rules) IsCanonical(key string) bool {
	for _, sp := range r.Vocabulary {
		if sp.Key == key {
			return true
		}
	}
	return false
}

// Keys возвращает отсортированный список канонических ключей.
func (r *Rules) Keys() []string {
	keys := make([]string, 0, len(r.Vocabulary))
	for _, sp := range r.Vocabulary {
		keys = append(keys, sp.Key)
	}
	sort.Strings(keys)
	return keys
}

// IsZeroToken — словесная заглушка, означающая ноль ("none", "zero").
func (r *Rules) IsZeroToken(s string) bool {
	return r.zero[NormalizeToken(s)]
}

// IsMissingToken — пустое значение или заглушка пропуска ("", "NA").
func (r *Rules) IsMissingToken(s string) bool {
	t := NormalizeToken(s)
	return t == "" || r.missing[t]
}

// LookupSize возвращает количество форм в таблице исправлений.
func (r *Rules) LookupSize() int {
	return len(r.lookup)
}
