package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/surveyqc/internal/domain"
	"github.com/shaiso/surveyqc/internal/rules"
)

// Значения по умолчанию.
const (
	defaultSeed       = 42
	defaultRows       = 200
	defaultSites      = 8
	defaultSeasonDays = 153

	// Второе слово состояния PCG фиксировано: seed задаёт только первое.
	pcgStream = 0x5eedf15b
)

var defaultGearTypes = []string{"electrofishing", "fyke_net", "gill_net", "seine"}

var (
	zeroStandIns  = []string{"none", "zero"}
	countJunk     = []string{"unknown", "~5", "lots"}
	weightJunk    = []string{"n/a", "heavy", "not weighed"}
	defaultOrigin = time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)
)

// Config — параметры генерации.
type Config struct {
	// Seed — зерно генератора случайных чисел.
	Seed uint64

	// Rows — количество базовых строк (без дубликатов).
	Rows int

	// Sites — количество станций отбора.
	Sites int

	// StartDate / SeasonDays — окно дат съёмки.
	StartDate  time.Time
	SeasonDays int

	// Доли строк с дефектами.
	BlankRate     float64 // пустое значение в count/weight
	ZeroTokenRate float64 // словесный ноль в count
	JunkRate      float64 // произвольный текст в count/weight
	MisspellRate  float64 // искажённое название вида
	OutlierRate   float64 // масса в граммах вместо килограммов
	DuplicateRate float64 // доля строк, повторно вставленных целиком
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		Seed:          defaultSeed,
		Rows:          defaultRows,
		Sites:         defaultSites,
		StartDate:     defaultOrigin,
		SeasonDays:    defaultSeasonDays,
		BlankRate:     0.05,
		ZeroTokenRate: 0.04,
		JunkRate:      0.02,
		MisspellRate:  0.30,
		OutlierRate:   0.02,
		DuplicateRate: 0.05,
	}
}

// Generator строит синтетическую таблицу.
type Generator struct {
	cfg   Config
	rules *rules.Rules
}

// New создаёт генератор. Нулевые поля конфигурации заменяются значениями по умолчанию.
func New(cfg Config, r *rules.Rules) *Generator {
	if r == nil {
		r = rules.Default()
	}
	return &Generator{cfg: normalize(cfg), rules: r}
}

// Config возвращает итоговую конфигурацию (после подстановки значений по умолчанию).
func (g *Generator) Config() Config {
	return g.cfg
}

func normalize(cfg Config) Config {
	if cfg.Rows <= 0 {
		cfg.Rows = defaultRows
	}
	if cfg.Sites <= 0 {
		cfg.Sites = defaultSites
	}
	if cfg.StartDate.IsZero() {
		cfg.StartDate = defaultOrigin
	}
	if cfg.SeasonDays <= 0 {
		cfg.SeasonDays = defaultSeasonDays
	}
	// Расширяем сезон, чтобы пар (станция, дата) хватило на все строки
	if need := (cfg.Rows + cfg.Sites - 1) / cfg.Sites; need > cfg.SeasonDays {
		cfg.SeasonDays = need
	}
	return cfg
}

// site — станция отбора с фиксированными координатами.
type site struct {
	id       string
	lat, lon float64
}

// Generate строит таблицу. Каждый вызов начинает с того же состояния
// генератора, поэтому повторные вызовы возвращают одинаковые таблицы.
func (g *Generator) Generate() *domain.RawTable {
	rng := rand.New(rand.NewPCG(g.cfg.Seed, pcgStream))

	sites := g.sites(rng)

	// Уникальные пары (станция, день) без возвращения
	slots := rng.Perm(g.cfg.Sites * g.cfg.SeasonDays)[:g.cfg.Rows]

	records := make([]domain.RawRecord, 0, g.cfg.Rows+g.duplicateCount())
	for _, slot := range slots {
		s := sites[slot%g.cfg.Sites]
		day := slot / g.cfg.Sites
		records = append(records, g.record(rng, s, day))
	}

	// Точные дубликаты: копии случайных базовых строк
	for range g.duplicateCount() {
		records = append(records, records[rng.IntN(g.cfg.Rows)])
	}

	rng.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})

	return &domain.RawTable{Records: records}
}

func (g *Generator) duplicateCount() int {
	return int(math.Round(g.cfg.DuplicateRate * float64(g.cfg.Rows)))
}

func (g *Generator) sites(rng *rand.Rand) []site {
	sites := make([]site, g.cfg.Sites)
	for i := range sites {
		sites[i] = site{
			id:  fmt.Sprintf("S%02d", i+1),
			lat: 44.0 + rng.Float64()*1.5,
			lon: -73.0 + rng.Float64()*1.5,
		}
	}
	return sites
}

// record строит одну строку. Порядок обращений к rng фиксирован.
func (g *Generator) record(rng *rand.Rand, s site, day int) domain.RawRecord {
	date := g.cfg.StartDate.AddDate(0, 0, day)

	return domain.RawRecord{
		SiteID:       s.id,
		SamplingDate: date.Format(domain.DateLayout),
		Species:      g.species(rng),
		GearType:     g.gearType(rng),
		Count:        g.count(rng),
		Weight:       g.weight(rng),
		Latitude:     strconv.FormatFloat(s.lat+(rng.Float64()-0.5)*0.002, 'f', 5, 64),
		Longitude:    strconv.FormatFloat(s.lon+(rng.Float64()-0.5)*0.002, 'f', 5, 64),
	}
}

// species выбирает вид и, с вероятностью MisspellRate, искажает название.
func (g *Generator) species(rng *rand.Rand) string {
	sp := g.rules.Vocabulary[rng.IntN(len(g.rules.Vocabulary))]
	name := sp.Name
	if name == "" {
		name = strings.ReplaceAll(sp.Key, "_", " ")
	}

	if rng.Float64() >= g.cfg.MisspellRate {
		return name
	}

	switch rng.IntN(3) {
	case 0:
		if len(sp.Variants) > 0 {
			return sp.Variants[rng.IntN(len(sp.Variants))]
		}
		return name
	case 1:
		return strings.ToUpper(name)
	default:
		return " " + strings.ReplaceAll(strings.ToLower(name), " ", "  ") + " "
	}
}

func (g *Generator) gearType(rng *rand.Rand) string {
	gears := g.rules.GearTypes
	if len(gears) == 0 {
		gears = defaultGearTypes
	}
	return gears[rng.IntN(len(gears))]
}

func (g *Generator) count(rng *rand.Rand) string {
	n := int64(rng.ExpFloat64() * 12)

	r := rng.Float64()
	switch {
	case r < g.cfg.BlankRate:
		return ""
	case r < g.cfg.BlankRate+g.cfg.ZeroTokenRate:
		return zeroStandIns[rng.IntN(len(zeroStandIns))]
	case r < g.cfg.BlankRate+g.cfg.ZeroTokenRate+g.cfg.JunkRate:
		return countJunk[rng.IntN(len(countJunk))]
	default:
		return strconv.FormatInt(n, 10)
	}
}

func (g *Generator) weight(rng *rand.Rand) string {
	kg := 0.05 + rng.ExpFloat64()*0.8
	kg = math.Round(kg*1000) / 1000

	r := rng.Float64()
	switch {
	case r < g.cfg.BlankRate:
		return ""
	case r < g.cfg.BlankRate+g.cfg.JunkRate:
		return weightJunk[rng.IntN(len(weightJunk))]
	case r < g.cfg.BlankRate+g.cfg.JunkRate+g.cfg.OutlierRate:
		// Масса записана в граммах
		return strconv.FormatFloat(math.Round(kg*1000), 'f', 0, 64)
	default:
		return strconv.FormatFloat(kg, 'f', 3, 64)
	}
}
